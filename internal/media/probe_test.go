package media

import "testing"

const sampleProbeOutput = `{
	"streams": [
		{
			"index": 0,
			"codec_name": "aac",
			"codec_type": "audio",
			"sample_rate": "44100",
			"channels": 1,
			"bit_rate": "127999"
		}
	],
	"format": {
		"filename": "dQw4w9WgXcQ.m4a",
		"format_name": "mov,mp4,m4a,3gp,3g2,mj2",
		"duration": "212.091000",
		"size": "3403935",
		"bit_rate": "128392"
	}
}`

const sampleOpusProbeOutput = `{
	"streams": [
		{
			"index": 0,
			"codec_name": "opus",
			"codec_type": "audio",
			"sample_rate": "48000",
			"channels": 2
		}
	],
	"format": {
		"format_name": "matroska,webm",
		"duration": "212.101000",
		"size": "3310021",
		"bit_rate": "124844"
	}
}`

func TestParseProbeOutput(t *testing.T) {
	info, err := parseProbeOutput([]byte(sampleProbeOutput))
	if err != nil {
		t.Fatalf("parseProbeOutput() error = %v", err)
	}

	if info.Codec != "aac" {
		t.Errorf("info.Codec = %q, want %q", info.Codec, "aac")
	}
	if info.SampleRate != 44100 {
		t.Errorf("info.SampleRate = %d, want 44100", info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("info.Channels = %d, want 1", info.Channels)
	}
	if info.BitRate != 127999 {
		t.Errorf("info.BitRate = %d, want 127999", info.BitRate)
	}
	if info.DurationSec != 212.091 {
		t.Errorf("info.DurationSec = %v, want 212.091", info.DurationSec)
	}
	if info.FileSize != 3403935 {
		t.Errorf("info.FileSize = %d, want 3403935", info.FileSize)
	}
	if info.Container != "mov,mp4,m4a,3gp,3g2,mj2" {
		t.Errorf("info.Container = %q", info.Container)
	}
}

func TestParseProbeOutput_StreamWithoutBitRate(t *testing.T) {
	// webm/opus streams often omit the per-stream bit rate; the overall
	// format bit rate is used instead.
	info, err := parseProbeOutput([]byte(sampleOpusProbeOutput))
	if err != nil {
		t.Fatalf("parseProbeOutput() error = %v", err)
	}
	if info.Codec != "opus" {
		t.Errorf("info.Codec = %q, want %q", info.Codec, "opus")
	}
	if info.BitRate != 124844 {
		t.Errorf("info.BitRate = %d, want 124844 (format bit rate)", info.BitRate)
	}
}

func TestParseProbeOutput_NoAudioStream(t *testing.T) {
	data := `{"streams": [{"codec_type": "video", "codec_name": "h264"}], "format": {}}`
	if _, err := parseProbeOutput([]byte(data)); err == nil {
		t.Error("parseProbeOutput() error = nil, want error for missing audio stream")
	}
}

func TestCompliant(t *testing.T) {
	tests := []struct {
		name string
		info AudioInfo
		want bool
	}{
		{
			name: "compliant m4a",
			info: AudioInfo{Codec: "aac", SampleRate: 44100, Channels: 1, Container: "mov,mp4,m4a,3gp,3g2,mj2"},
			want: true,
		},
		{
			name: "wrong codec",
			info: AudioInfo{Codec: "opus", SampleRate: 44100, Channels: 1, Container: "mov,mp4,m4a,3gp,3g2,mj2"},
			want: false,
		},
		{
			name: "wrong sample rate",
			info: AudioInfo{Codec: "aac", SampleRate: 48000, Channels: 1, Container: "mov,mp4,m4a,3gp,3g2,mj2"},
			want: false,
		},
		{
			name: "stereo",
			info: AudioInfo{Codec: "aac", SampleRate: 44100, Channels: 2, Container: "mov,mp4,m4a,3gp,3g2,mj2"},
			want: false,
		},
		{
			name: "wrong container",
			info: AudioInfo{Codec: "aac", SampleRate: 44100, Channels: 1, Container: "matroska,webm"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compliant(tt.info); got != tt.want {
				t.Errorf("Compliant(%+v) = %v, want %v", tt.info, got, tt.want)
			}
		})
	}
}
