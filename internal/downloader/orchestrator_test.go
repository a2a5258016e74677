package downloader

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytaudio/internal/media"
	"ytaudio/internal/ratelimit"
	"ytaudio/internal/store"
	"ytaudio/internal/youtube"
)

// fakeExtractor scripts the remote side: metadata per URL, channel listings,
// and downloads that drop a file at the destination path.
type fakeExtractor struct {
	metadata map[string]*youtube.RawMetadata
	metaErr  error
	channel  []youtube.VideoTarget
	chanErr  error
	dlErr    error

	metaCalls int
	listCalls int
	dlCalls   int
	lastRate  string
}

func (f *fakeExtractor) FetchMetadata(_ context.Context, url string) (*youtube.RawMetadata, error) {
	f.metaCalls++
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	meta, ok := f.metadata[url]
	if !ok {
		return nil, &youtube.ExtractionError{Op: "metadata", URL: url, Err: youtube.ErrVideoUnavailable}
	}
	return meta, nil
}

func (f *fakeExtractor) ListChannel(_ context.Context, _ string, maxVideos int) ([]youtube.VideoTarget, error) {
	f.listCalls++
	if f.chanErr != nil {
		return nil, f.chanErr
	}
	if maxVideos > 0 && maxVideos < len(f.channel) {
		return f.channel[:maxVideos], nil
	}
	return f.channel, nil
}

func (f *fakeExtractor) DownloadAudio(_ context.Context, _, destPath, rateLimit string) error {
	f.dlCalls++
	f.lastRate = rateLimit
	if f.dlErr != nil {
		return f.dlErr
	}
	return os.WriteFile(destPath, []byte("raw audio"), 0o644)
}

// fakeEnforcer moves the artifact into place and reports a fixed profile.
type fakeEnforcer struct {
	err   error
	calls int
}

func (f *fakeEnforcer) Enforce(_ context.Context, inputPath, finalPath string) (media.AudioInfo, error) {
	f.calls++
	if f.err != nil {
		return media.AudioInfo{}, f.err
	}
	if err := os.Rename(inputPath, finalPath); err != nil {
		return media.AudioInfo{}, err
	}
	return media.AudioInfo{Codec: "aac", SampleRate: 44100, Channels: 1}, nil
}

func testMeta(id string) *youtube.RawMetadata {
	return &youtube.RawMetadata{
		ID:         id,
		Title:      "Video " + id,
		Channel:    "Test Channel",
		WebpageURL: "https://www.youtube.com/watch?v=" + id,
	}
}

// newTestOrchestrator wires an orchestrator with nanosecond pacing and a
// zero-duration backoff schedule so tests run instantly.
func newTestOrchestrator(t *testing.T, extractor *fakeExtractor, enforcer *fakeEnforcer) *Orchestrator {
	t.Helper()

	pacer := ratelimit.NewPacer(ratelimit.PacerConfig{
		MinRequestDelay:  time.Nanosecond,
		MaxRequestDelay:  time.Nanosecond,
		MinDownloadDelay: time.Nanosecond,
		MaxDownloadDelay: time.Nanosecond,
	})
	backoff := ratelimit.NewBackoff(youtube.IsThrottle)
	backoff.Schedule = []time.Duration{0, 0, 0}

	return NewOrchestrator(extractor, enforcer, store.New(t.TempDir()), pacer, backoff, "500K", zerolog.Nop())
}

func TestProcess_Success(t *testing.T) {
	const id = "dQw4w9WgXcQ"
	url := "https://www.youtube.com/watch?v=" + id

	extractor := &fakeExtractor{metadata: map[string]*youtube.RawMetadata{url: testMeta(id)}}
	orch := newTestOrchestrator(t, extractor, &fakeEnforcer{})

	outcome, err := orch.Process(context.Background(), youtube.VideoTarget{VideoID: id, SourceURL: url})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDownloaded, outcome)

	assert.FileExists(t, orch.Store.Layout.AudioPath(id))
	rec, err := orch.Store.ReadSidecar(id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.VideoID)
	assert.Equal(t, "Video "+id, rec.Title)
	assert.Equal(t, 44100, rec.Audio.SampleRate)

	assert.Equal(t, "500K", extractor.lastRate)
	assert.Equal(t, RunState{Attempted: 1, Succeeded: 1}, orch.State)
}

func TestProcess_SkipsArchivedWithoutRemoteCalls(t *testing.T) {
	const id = "dQw4w9WgXcQ"
	url := "https://www.youtube.com/watch?v=" + id

	extractor := &fakeExtractor{metadata: map[string]*youtube.RawMetadata{url: testMeta(id)}}
	orch := newTestOrchestrator(t, extractor, &fakeEnforcer{})
	target := youtube.VideoTarget{VideoID: id, SourceURL: url}

	_, err := orch.Process(context.Background(), target)
	require.NoError(t, err)
	require.Equal(t, 1, extractor.metaCalls)
	require.Equal(t, 1, extractor.dlCalls)

	// The second pass must not touch the network at all.
	outcome, err := orch.Process(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, 1, extractor.metaCalls)
	assert.Equal(t, 1, extractor.dlCalls)
	assert.Equal(t, RunState{Attempted: 2, Succeeded: 1, Skipped: 1}, orch.State)
}

func TestProcess_CanonicalIDFromMetadata(t *testing.T) {
	// A target whose URL shape defeated ID parsing still lands under the
	// extractor-reported ID, and a second pass still skips.
	const id = "dQw4w9WgXcQ"
	url := "https://www.youtube.com/watch?v=" + id

	extractor := &fakeExtractor{metadata: map[string]*youtube.RawMetadata{url: testMeta(id)}}
	orch := newTestOrchestrator(t, extractor, &fakeEnforcer{})
	target := youtube.VideoTarget{SourceURL: url} // no VideoID

	_, err := orch.Process(context.Background(), target)
	require.NoError(t, err)
	assert.FileExists(t, orch.Store.Layout.AudioPath(id))

	outcome, err := orch.Process(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, 2, extractor.metaCalls, "skip after canonicalization costs one metadata call, no download")
	assert.Equal(t, 1, extractor.dlCalls)
}

func TestProcess_UnavailableVideoFailsWithoutDownload(t *testing.T) {
	extractor := &fakeExtractor{
		metaErr: &youtube.ExtractionError{Op: "metadata", URL: "u", Err: youtube.ErrVideoUnavailable},
	}
	orch := newTestOrchestrator(t, extractor, &fakeEnforcer{})

	outcome, err := orch.Process(context.Background(), youtube.VideoTarget{VideoID: "dQw4w9WgXcQ", SourceURL: "u"})
	assert.Equal(t, OutcomeFailed, outcome)
	assert.ErrorIs(t, err, youtube.ErrVideoUnavailable)

	// Unavailable is permanent: one attempt, no retries, no download.
	assert.Equal(t, 1, extractor.metaCalls)
	assert.Equal(t, 0, extractor.dlCalls)
	assert.Equal(t, RunState{Attempted: 1, Failed: 1}, orch.State)
}

func TestProcess_ThrottleExhaustsBackoff(t *testing.T) {
	extractor := &fakeExtractor{
		metaErr: &youtube.ExtractionError{Op: "metadata", URL: "u", Err: youtube.ErrThrottled},
	}
	orch := newTestOrchestrator(t, extractor, &fakeEnforcer{})

	outcome, err := orch.Process(context.Background(), youtube.VideoTarget{VideoID: "dQw4w9WgXcQ", SourceURL: "u"})
	assert.Equal(t, OutcomeFailed, outcome)

	var exhausted *ratelimit.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, extractor.metaCalls, "throttled metadata fetch retries to the attempt cap")
}

func TestProcess_FormatErrorCleansTemp(t *testing.T) {
	const id = "dQw4w9WgXcQ"
	url := "https://www.youtube.com/watch?v=" + id

	extractor := &fakeExtractor{metadata: map[string]*youtube.RawMetadata{url: testMeta(id)}}
	enforcer := &fakeEnforcer{err: &media.FormatError{Path: "x", Reason: "conversion failed"}}
	orch := newTestOrchestrator(t, extractor, enforcer)

	outcome, err := orch.Process(context.Background(), youtube.VideoTarget{VideoID: id, SourceURL: url})
	assert.Equal(t, OutcomeFailed, outcome)

	var ferr *media.FormatError
	assert.ErrorAs(t, err, &ferr)

	// The partial download must not linger and no sidecar may exist.
	entries, readErr := os.ReadDir(orch.Store.Layout.Dir(id))
	require.NoError(t, readErr)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".part"), "leftover temp file %s", entry.Name())
	}
	assert.NoFileExists(t, orch.Store.Layout.SidecarPath(id))
	assert.False(t, orch.Store.Layout.Completed(id))
}

func TestProcess_ArtifactWithoutSidecarIsRedone(t *testing.T) {
	const id = "dQw4w9WgXcQ"
	url := "https://www.youtube.com/watch?v=" + id

	extractor := &fakeExtractor{metadata: map[string]*youtube.RawMetadata{url: testMeta(id)}}
	orch := newTestOrchestrator(t, extractor, &fakeEnforcer{})

	// Simulate a crash after artifact placement but before the sidecar write.
	require.NoError(t, orch.Store.Layout.EnsureDir(id))
	require.NoError(t, os.WriteFile(orch.Store.Layout.AudioPath(id), []byte("stale"), 0o644))

	outcome, err := orch.Process(context.Background(), youtube.VideoTarget{VideoID: id, SourceURL: url})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDownloaded, outcome)
	assert.Equal(t, 1, extractor.dlCalls, "incomplete entry must be re-downloaded")
	assert.True(t, orch.Store.Layout.Completed(id))
}

func TestRunState_SuccessRate(t *testing.T) {
	assert.Equal(t, float64(0), RunState{}.SuccessRate())
	assert.InDelta(t, 75.0, RunState{Attempted: 4, Succeeded: 3, Failed: 1}.SuccessRate(), 0.001)
}

func TestOutcome_String(t *testing.T) {
	for outcome, want := range map[Outcome]string{
		OutcomeDownloaded: "downloaded",
		OutcomeSkipped:    "skipped",
		OutcomeFailed:     "failed",
		Outcome(99):       "unknown",
	} {
		if got := outcome.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(outcome), got, want)
		}
	}
}
