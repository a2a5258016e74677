package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const defaultFfmpegPath = "ffmpeg"

// Target is the audio profile a conversion must produce.
type Target struct {
	// Codec is the encoder name ("aac").
	Codec string
	// SampleRate in Hz.
	SampleRate int
	// Channels is the channel count.
	Channels int
	// BitRateK is the encoding bit rate in kbit/s.
	BitRateK int
}

// Converter re-encodes audio files using ffmpeg.
type Converter struct {
	// Path is the path to the ffmpeg executable. Defaults to "ffmpeg".
	Path string
}

// NewConverter creates a converter with default settings.
func NewConverter() *Converter {
	return &Converter{Path: defaultFfmpegPath}
}

// CheckInstalled verifies that ffmpeg is available.
func (c *Converter) CheckInstalled(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.path(), "-version")
	if err := cmd.Run(); err != nil {
		return ErrFfmpegNotInstalled
	}
	return nil
}

// Convert transcodes inputPath into outputPath with the target profile,
// dropping any video streams. outputPath is overwritten when present.
func (c *Converter) Convert(ctx context.Context, inputPath, outputPath string, t Target) error {
	args := []string{
		"-v", "error",
		"-i", inputPath,
		"-vn",
		"-c:a", t.Codec,
		"-ar", fmt.Sprintf("%d", t.SampleRate),
		"-ac", fmt.Sprintf("%d", t.Channels),
		"-b:a", fmt.Sprintf("%dk", t.BitRateK),
		"-movflags", "+faststart",
		"-y", outputPath,
	}

	cmd := exec.CommandContext(ctx, c.path(), args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg convert: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (c *Converter) path() string {
	if c.Path != "" {
		return c.Path
	}
	return defaultFfmpegPath
}
