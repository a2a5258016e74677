package youtube

import (
	"encoding/json"
	"fmt"
)

// ytdlpPlaylist represents yt-dlp's flat-playlist JSON output for a channel.
type ytdlpPlaylist struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	ChannelID  string       `json:"channel_id"`
	ChannelURL string       `json:"channel_url"`
	Entries    []ytdlpEntry `json:"entries"`
}

// ytdlpEntry is a single video in the flat-playlist output.
type ytdlpEntry struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// parsePlaylist converts flat-playlist output into video targets, preserving
// the order YouTube returned and capping at maxVideos when positive.
func parsePlaylist(data []byte, originChannel string, maxVideos int) ([]VideoTarget, error) {
	var playlist ytdlpPlaylist
	if err := json.Unmarshal(data, &playlist); err != nil {
		return nil, fmt.Errorf("parse yt-dlp playlist output: %w", err)
	}

	if len(playlist.Entries) == 0 {
		return nil, fmt.Errorf("no videos found in channel: %w", ErrChannelNotFound)
	}

	entries := playlist.Entries
	if maxVideos > 0 && len(entries) > maxVideos {
		entries = entries[:maxVideos]
	}

	targets := make([]VideoTarget, 0, len(entries))
	for _, entry := range entries {
		if entry.ID == "" {
			continue
		}
		url := entry.URL
		if url == "" {
			url = "https://www.youtube.com/watch?v=" + entry.ID
		}
		targets = append(targets, VideoTarget{
			VideoID:       entry.ID,
			SourceURL:     url,
			OriginChannel: originChannel,
		})
	}

	return targets, nil
}

// parseMetadata decodes yt-dlp's single-video JSON output.
func parseMetadata(data []byte) (*RawMetadata, error) {
	var meta RawMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse yt-dlp metadata output: %w", err)
	}

	if meta.ID == "" {
		return nil, fmt.Errorf("invalid metadata: missing or empty id")
	}
	if meta.Title == "" {
		return nil, fmt.Errorf("invalid metadata: missing or empty title")
	}

	return &meta, nil
}
