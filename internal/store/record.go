package store

import (
	"time"

	"ytaudio/internal/media"
	"ytaudio/internal/youtube"
)

// timestampLayout is the download_timestamp format in the sidecar.
const timestampLayout = "2006-01-02 15:04:05"

// DownloadRecord is the per-video sidecar: the normalized video metadata,
// the measured audio attributes, and provenance of the download. Written
// exactly once per successfully completed video.
type DownloadRecord struct {
	VideoID     string   `json:"video_id"`
	Title       string   `json:"title"`
	ChannelURL  string   `json:"channel_url"`
	ChannelID   string   `json:"channel_id"`
	ChannelName string   `json:"channel_name"`
	Uploader    string   `json:"uploader"`
	UploadDate  string   `json:"upload_date"`
	Duration    int64    `json:"duration"`
	ViewCount   int64    `json:"view_count"`
	LikeCount   int64    `json:"like_count"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`

	Audio media.AudioInfo `json:"audio"`

	DownloadTimestamp string `json:"download_timestamp"`
	OriginalURL       string `json:"original_url"`
}

// NewDownloadRecord maps a raw extraction record plus measured audio
// attributes into the fixed sidecar schema.
func NewDownloadRecord(meta *youtube.RawMetadata, audio media.AudioInfo, sourceURL string, downloadedAt time.Time) DownloadRecord {
	originalURL := meta.WebpageURL
	if originalURL == "" {
		originalURL = sourceURL
	}

	channelName := meta.Channel
	if channelName == "" {
		channelName = meta.Uploader
	}

	rec := DownloadRecord{
		VideoID:           meta.ID,
		Title:             meta.Title,
		ChannelURL:        meta.ChannelURL,
		ChannelID:         meta.ChannelID,
		ChannelName:       channelName,
		Uploader:          meta.Uploader,
		UploadDate:        meta.UploadDate,
		Duration:          int64(meta.Duration),
		ViewCount:         meta.ViewCount,
		LikeCount:         meta.LikeCount,
		Description:       meta.Description,
		Tags:              meta.Tags,
		Categories:        meta.Categories,
		Audio:             audio,
		DownloadTimestamp: downloadedAt.Format(timestampLayout),
		OriginalURL:       originalURL,
	}

	// Keep the sidecar arrays present even when yt-dlp omitted the fields.
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if rec.Categories == nil {
		rec.Categories = []string{}
	}

	return rec
}
