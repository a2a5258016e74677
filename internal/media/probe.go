// Package media probes and converts audio artifacts via the ffprobe and
// ffmpeg command line tools, and enforces the archive's fixed audio profile.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const defaultFfprobePath = "ffprobe"

// AudioInfo describes the measured attributes of an audio artifact. It is
// always derived by probing the file on disk, never trusted from the
// extractor.
type AudioInfo struct {
	Codec       string  `json:"codec"`
	SampleRate  int     `json:"sample_rate"`
	BitRate     int64   `json:"bit_rate"`
	Channels    int     `json:"channels"`
	DurationSec float64 `json:"duration_sec"`
	FileSize    int64   `json:"file_size"`

	// Container is the demuxer format name reported by ffprobe. Not part of
	// the persisted sidecar schema.
	Container string `json:"-"`
}

// Prober inspects audio files using ffprobe.
type Prober struct {
	// Path is the path to the ffprobe executable. Defaults to "ffprobe".
	Path string
}

// NewProber creates a prober with default settings.
func NewProber() *Prober {
	return &Prober{Path: defaultFfprobePath}
}

// CheckInstalled verifies that ffprobe is available.
func (p *Prober) CheckInstalled(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, p.path(), "-version")
	if err := cmd.Run(); err != nil {
		return ErrFfprobeNotInstalled
	}
	return nil
}

// Probe returns the measured attributes of the first audio stream in the
// file at path.
func (p *Prober) Probe(ctx context.Context, path string) (AudioInfo, error) {
	cmd := exec.CommandContext(ctx, p.path(),
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return AudioInfo{}, &FormatError{
			Path:   path,
			Reason: "probe failed",
			Err:    fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String())),
		}
	}

	info, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return AudioInfo{}, &FormatError{Path: path, Reason: "unparseable probe output", Err: err}
	}

	if fi, err := os.Stat(path); err == nil {
		info.FileSize = fi.Size()
	}

	return info, nil
}

func (p *Prober) path() string {
	if p.Path != "" {
		return p.Path
	}
	return defaultFfprobePath
}

// probeOutput mirrors the ffprobe JSON fields the enforcer inspects. Numeric
// values arrive as strings.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitRate    string `json:"bit_rate"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	Size       string `json:"size"`
}

// parseProbeOutput extracts the first audio stream from ffprobe JSON output.
func parseProbeOutput(data []byte) (AudioInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return AudioInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var stream *probeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "audio" {
			stream = &out.Streams[i]
			break
		}
	}
	if stream == nil {
		return AudioInfo{}, fmt.Errorf("no audio stream found")
	}

	info := AudioInfo{
		Codec:     stream.CodecName,
		Channels:  stream.Channels,
		Container: out.Format.FormatName,
	}

	if v, err := strconv.Atoi(stream.SampleRate); err == nil {
		info.SampleRate = v
	}
	if v, err := strconv.ParseInt(stream.BitRate, 10, 64); err == nil {
		info.BitRate = v
	} else if v, err := strconv.ParseInt(out.Format.BitRate, 10, 64); err == nil {
		// Some containers only report an overall bit rate.
		info.BitRate = v
	}
	if v, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.DurationSec = v
	}
	if v, err := strconv.ParseInt(out.Format.Size, 10, 64); err == nil {
		info.FileSize = v
	}

	return info, nil
}
