package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// The fixed audio profile every persisted artifact must satisfy.
const (
	TargetCodec      = "aac"
	TargetSampleRate = 44100
	TargetChannels   = 1
	TargetBitRateK   = 192
)

// Sentinel errors for missing external tools.
var (
	ErrFfprobeNotInstalled = errors.New("media: ffprobe not installed")
	ErrFfmpegNotInstalled  = errors.New("media: ffmpeg not installed")
)

// FormatError reports that an artifact could not be brought to, or verified
// against, the target audio profile. Never retried through the backoff path.
type FormatError struct {
	// Path is the file the enforcement was operating on.
	Path string
	// Reason describes which step failed.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

// Error returns a string representation of the format error.
func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("media: %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("media: %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *FormatError) Unwrap() error { return e.Err }

// AudioProber probes audio files. Implemented by *Prober.
type AudioProber interface {
	Probe(ctx context.Context, path string) (AudioInfo, error)
}

// AudioConverter re-encodes audio files. Implemented by *Converter.
type AudioConverter interface {
	Convert(ctx context.Context, inputPath, outputPath string, t Target) error
}

// Enforcer guarantees the invariant "container = m4a, codec = aac,
// sample rate = 44100 Hz, channels = 1" on the artifact it places at the
// final path.
type Enforcer struct {
	Prober    AudioProber
	Converter AudioConverter
}

// NewEnforcer creates an enforcer over the given collaborators.
func NewEnforcer(prober AudioProber, converter AudioConverter) *Enforcer {
	return &Enforcer{Prober: prober, Converter: converter}
}

// Enforce moves the downloaded artifact at inputPath to finalPath, ensuring
// the target profile holds. A compliant source is renamed without
// re-encoding to avoid quality loss; anything else is converted and then
// re-probed to confirm compliance. The returned AudioInfo reflects the file
// at finalPath.
func (e *Enforcer) Enforce(ctx context.Context, inputPath, finalPath string) (AudioInfo, error) {
	info, err := e.Prober.Probe(ctx, inputPath)
	if err != nil {
		return AudioInfo{}, err
	}

	if Compliant(info) {
		if err := os.Rename(inputPath, finalPath); err != nil {
			return AudioInfo{}, &FormatError{Path: inputPath, Reason: "move into place", Err: err}
		}
		if fi, err := os.Stat(finalPath); err == nil {
			info.FileSize = fi.Size()
		}
		return info, nil
	}

	target := Target{
		Codec:      TargetCodec,
		SampleRate: TargetSampleRate,
		Channels:   TargetChannels,
		BitRateK:   TargetBitRateK,
	}
	if err := e.Converter.Convert(ctx, inputPath, finalPath, target); err != nil {
		return AudioInfo{}, &FormatError{Path: inputPath, Reason: "conversion failed", Err: err}
	}

	// Verify by re-probing rather than trusting the conversion call.
	converted, err := e.Prober.Probe(ctx, finalPath)
	if err != nil {
		return AudioInfo{}, err
	}
	if !Compliant(converted) {
		return AudioInfo{}, &FormatError{
			Path: finalPath,
			Reason: fmt.Sprintf("still non-compliant after conversion: codec=%s rate=%d channels=%d container=%s",
				converted.Codec, converted.SampleRate, converted.Channels, converted.Container),
		}
	}

	return converted, nil
}

// Compliant reports whether info satisfies the target audio profile.
func Compliant(info AudioInfo) bool {
	return info.Codec == TargetCodec &&
		info.SampleRate == TargetSampleRate &&
		info.Channels == TargetChannels &&
		m4aContainer(info.Container)
}

// m4aContainer reports whether the ffprobe format name denotes the MP4/M4A
// container family. ffprobe reports it as a comma-separated demuxer list
// ("mov,mp4,m4a,3gp,3g2,mj2").
func m4aContainer(formatName string) bool {
	for _, name := range strings.Split(formatName, ",") {
		switch name {
		case "m4a", "mp4", "mov":
			return true
		}
	}
	return false
}
