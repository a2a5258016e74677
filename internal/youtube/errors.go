package youtube

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for extraction operations.
var (
	// ErrThrottled indicates YouTube is rate limiting or blocking the caller.
	// Operations failing with this error are candidates for backoff and retry.
	ErrThrottled = errors.New("youtube: rate limited")
	// ErrVideoUnavailable indicates the video is private, removed, or otherwise
	// not downloadable. Permanent for a given run.
	ErrVideoUnavailable = errors.New("youtube: video unavailable")
	// ErrChannelNotFound indicates the channel does not exist.
	ErrChannelNotFound = errors.New("youtube: channel not found")
	// ErrNetworkTimeout indicates yt-dlp exceeded its configured timeout.
	ErrNetworkTimeout = errors.New("youtube: network timeout")
	// ErrNotInstalled indicates the yt-dlp binary was not found.
	ErrNotInstalled = errors.New("youtube: yt-dlp not installed")
)

// ExtractionError wraps an error from a yt-dlp invocation with the operation
// and URL it was performing.
//
// Use errors.As() to extract it:
//
//	var extErr *youtube.ExtractionError
//	if errors.As(err, &extErr) {
//		fmt.Printf("%s failed for %s: %v\n", extErr.Op, extErr.URL, extErr.Err)
//	}
type ExtractionError struct {
	// Op is the operation that failed ("metadata", "list", "download").
	Op string
	// URL is the video or channel URL being processed.
	URL string
	// Err is the underlying error.
	Err error
}

// Error returns a string representation of the extraction error.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("youtube: %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *ExtractionError) Unwrap() error { return e.Err }

// IsThrottle reports whether err carries a throttling signal from YouTube.
// Only errors matching this predicate are retried with backoff; everything
// else is a terminal per-video failure.
func IsThrottle(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// classifyStderr maps yt-dlp stderr output to a sentinel error. Returns
// fallback when no known pattern matches.
func classifyStderr(stderr string, fallback error) error {
	msg := strings.ToLower(stderr)

	switch {
	case strings.Contains(msg, "http error 403"),
		strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "http error 429"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "rate-limit"),
		strings.Contains(msg, "rate limit"):
		return ErrThrottled
	case strings.Contains(msg, "video unavailable"),
		strings.Contains(msg, "private video"),
		strings.Contains(msg, "has been removed"),
		strings.Contains(msg, "sign in to confirm your age"),
		strings.Contains(msg, "members-only"):
		return ErrVideoUnavailable
	case strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "channel not found"),
		strings.Contains(msg, "not a valid url"):
		return ErrChannelNotFound
	}
	return fallback
}
