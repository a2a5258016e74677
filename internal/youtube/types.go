// Package youtube drives yt-dlp as a subprocess to resolve channels,
// fetch video metadata, and download audio streams.
package youtube

// VideoTarget identifies one video to be processed.
type VideoTarget struct {
	// VideoID is the YouTube video ID (e.g., "dQw4w9WgXcQ"). May be empty
	// when the ID could not be derived from the source URL; it is then
	// resolved from the fetched metadata.
	VideoID string

	// SourceURL is the URL handed to yt-dlp for this video.
	SourceURL string

	// OriginChannel is the channel URL this target was expanded from.
	// Empty for directly supplied video URLs.
	OriginChannel string
}

// RawMetadata holds the subset of yt-dlp's JSON metadata output that the
// archiver records. Field names follow yt-dlp's info dict.
type RawMetadata struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ChannelURL  string   `json:"channel_url"`
	ChannelID   string   `json:"channel_id"`
	Channel     string   `json:"channel"`
	Uploader    string   `json:"uploader"`
	UploadDate  string   `json:"upload_date"` // YYYYMMDD
	Duration    float64  `json:"duration"`    // seconds
	ViewCount   int64    `json:"view_count"`
	LikeCount   int64    `json:"like_count"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
	WebpageURL  string   `json:"webpage_url"`
}
