package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const (
	defaultYtdlpPath    = "yt-dlp"
	defaultYtdlpTimeout = 10 * time.Minute
)

var (
	videoIDRegex   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	channelIDRegex = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
)

// Client runs yt-dlp as a subprocess. It is the single remote-facing
// component: channel listing, metadata extraction, and media download all
// go through it.
type Client struct {
	// Path is the path to the yt-dlp executable. Defaults to "yt-dlp".
	Path string

	// Timeout is the maximum time to wait for a single yt-dlp invocation.
	// Defaults to 10 minutes.
	Timeout time.Duration

	// CookieFile is an optional Netscape-format cookie file passed to
	// yt-dlp for access-restricted content.
	CookieFile string

	// ExtraArgs are additional arguments appended to every invocation.
	ExtraArgs []string
}

// NewClient creates a yt-dlp client with default settings.
func NewClient() *Client {
	return &Client{
		Path:    defaultYtdlpPath,
		Timeout: defaultYtdlpTimeout,
	}
}

// CheckInstalled verifies that yt-dlp is available.
func (c *Client) CheckInstalled(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.path(), "--version")
	if err := cmd.Run(); err != nil {
		return ErrNotInstalled
	}
	return nil
}

// FetchMetadata retrieves full metadata for a single video without
// downloading media.
func (c *Client) FetchMetadata(ctx context.Context, url string) (*RawMetadata, error) {
	args := []string{"-J", "--no-playlist", "--no-warnings"}
	args = c.appendCommon(args)
	args = append(args, url)

	stdout, err := c.run(ctx, args)
	if err != nil {
		return nil, &ExtractionError{Op: "metadata", URL: url, Err: err}
	}

	meta, err := parseMetadata(stdout)
	if err != nil {
		return nil, &ExtractionError{Op: "metadata", URL: url, Err: err}
	}
	return meta, nil
}

// ListChannel enumerates the public videos of a channel in the order
// YouTube returns them, capped at maxVideos when maxVideos > 0.
func (c *Client) ListChannel(ctx context.Context, channelURL string, maxVideos int) ([]VideoTarget, error) {
	url := normalizeChannelURL(channelURL)

	args := []string{"--flat-playlist", "-J", "--no-warnings"}
	args = c.appendCommon(args)
	args = append(args, url)

	stdout, err := c.run(ctx, args)
	if err != nil {
		return nil, &ExtractionError{Op: "list", URL: channelURL, Err: err}
	}

	targets, err := parsePlaylist(stdout, channelURL, maxVideos)
	if err != nil {
		return nil, &ExtractionError{Op: "list", URL: channelURL, Err: err}
	}
	return targets, nil
}

// DownloadAudio downloads the highest-available-bitrate audio stream to
// destPath. The transfer rate is capped by rateLimit (yt-dlp syntax,
// e.g. "500K") when non-empty. destPath is written exactly as given; no
// extension substitution takes place.
func (c *Client) DownloadAudio(ctx context.Context, url, destPath, rateLimit string) error {
	args := []string{
		"-f", "bestaudio/best",
		"-o", destPath,
		"--no-playlist",
		"--no-warnings",
		"--no-progress",
	}
	if rateLimit != "" {
		args = append(args, "--limit-rate", rateLimit)
	}
	args = c.appendCommon(args)
	args = append(args, url)

	if _, err := c.run(ctx, args); err != nil {
		return &ExtractionError{Op: "download", URL: url, Err: err}
	}
	return nil
}

// run executes yt-dlp with the given arguments and returns stdout.
// Failures are classified from stderr patterns into sentinel errors.
func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultYtdlpTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, c.path(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrNetworkTimeout
		}
		if errors.Is(cmdCtx.Err(), context.Canceled) {
			return nil, context.Canceled
		}
		errMsg := stderr.String()
		return nil, classifyStderr(errMsg, fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(errMsg)))
	}

	return stdout.Bytes(), nil
}

func (c *Client) appendCommon(args []string) []string {
	if c.CookieFile != "" {
		args = append(args, "--cookies", c.CookieFile)
	}
	return append(args, c.ExtraArgs...)
}

func (c *Client) path() string {
	if c.Path != "" {
		return c.Path
	}
	return defaultYtdlpPath
}

// normalizeChannelURL ensures the URL points at the channel's videos tab.
func normalizeChannelURL(url string) string {
	// A bare channel ID becomes a full URL.
	if channelIDRegex.MatchString(url) && !strings.Contains(url, "youtube.com") {
		return "https://www.youtube.com/channel/" + url + "/videos"
	}

	if strings.Contains(url, "/videos") {
		return url
	}
	return strings.TrimSuffix(url, "/") + "/videos"
}

// IsChannelURL reports whether url refers to a channel rather than a single
// video.
func IsChannelURL(url string) bool {
	for _, marker := range []string{"/channel/", "/@", "/c/", "/user/"} {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return channelIDRegex.MatchString(url)
}

// ParseVideoID extracts the video ID from a watch URL. Returns an empty
// string when the URL shape is not recognized; callers then resolve the ID
// from fetched metadata instead.
func ParseVideoID(url string) string {
	if videoIDRegex.MatchString(url) {
		return url
	}

	for _, prefix := range []string{"watch?v=", "youtu.be/", "/shorts/", "/embed/"} {
		idx := strings.Index(url, prefix)
		if idx < 0 {
			continue
		}
		rest := url[idx+len(prefix):]
		if cut := strings.IndexAny(rest, "?&#/"); cut >= 0 {
			rest = rest[:cut]
		}
		if videoIDRegex.MatchString(rest) {
			return rest
		}
	}
	return ""
}
