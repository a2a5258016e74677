package downloader

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ytaudio/internal/media"
	"ytaudio/internal/ratelimit"
	"ytaudio/internal/store"
	"ytaudio/internal/youtube"
)

// Extractor is the remote extraction collaborator. Implemented by
// *youtube.Client.
type Extractor interface {
	FetchMetadata(ctx context.Context, url string) (*youtube.RawMetadata, error)
	ListChannel(ctx context.Context, channelURL string, maxVideos int) ([]youtube.VideoTarget, error)
	DownloadAudio(ctx context.Context, url, destPath, rateLimit string) error
}

// FormatEnforcer validates and coerces a downloaded artifact to the target
// audio profile. Implemented by *media.Enforcer.
type FormatEnforcer interface {
	Enforce(ctx context.Context, inputPath, finalPath string) (media.AudioInfo, error)
}

// Orchestrator produces a complete, validated download record plus audio
// artifact for one target, or fails cleanly. All remote calls go through the
// pacer and the backoff controller.
type Orchestrator struct {
	Extractor Extractor
	Enforcer  FormatEnforcer
	Store     *store.Store
	Pacer     *ratelimit.Pacer
	Backoff   *ratelimit.Backoff

	// SpeedLimit is the transfer-rate cap handed to the extraction
	// collaborator per download ("500K").
	SpeedLimit string

	// State accumulates the run counters across Process calls.
	State RunState

	log zerolog.Logger
	now func() time.Time
}

// NewOrchestrator wires an orchestrator over its collaborators.
func NewOrchestrator(extractor Extractor, enforcer FormatEnforcer, st *store.Store, pacer *ratelimit.Pacer, backoff *ratelimit.Backoff, speedLimit string, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		Extractor:  extractor,
		Enforcer:   enforcer,
		Store:      st,
		Pacer:      pacer,
		Backoff:    backoff,
		SpeedLimit: speedLimit,
		log:        log.With().Str("component", "orchestrator").Logger(),
		now:        time.Now,
	}
}

// Process runs one target end-to-end: skip check, throttled metadata fetch,
// throttled download, format enforcement, sidecar write, counters. A
// re-run of an archived target performs zero remote calls.
func (o *Orchestrator) Process(ctx context.Context, target youtube.VideoTarget) (Outcome, error) {
	o.State.Attempted++

	videoID := target.VideoID
	if videoID != "" && o.Store.Layout.Completed(videoID) {
		o.State.Skipped++
		o.log.Info().Str("video_id", videoID).Msg("already downloaded, skipping")
		return OutcomeSkipped, nil
	}

	meta, err := o.fetchMetadata(ctx, target.SourceURL)
	if err != nil {
		return o.fail(videoID, target.SourceURL, err)
	}

	// The extractor's ID is canonical; a target resolved from an unusual URL
	// shape may not have carried one.
	if meta.ID != "" && meta.ID != videoID {
		videoID = meta.ID
		if o.Store.Layout.Completed(videoID) {
			o.State.Skipped++
			o.log.Info().Str("video_id", videoID).Str("title", meta.Title).Msg("already downloaded, skipping")
			return OutcomeSkipped, nil
		}
	}

	if err := o.Store.Layout.EnsureDir(videoID); err != nil {
		return o.fail(videoID, target.SourceURL, err)
	}

	tempPath := o.Store.Layout.TempAudioPath(videoID)
	defer o.Store.DiscardTemp(tempPath)

	if err := o.download(ctx, target.SourceURL, tempPath); err != nil {
		return o.fail(videoID, target.SourceURL, err)
	}

	info, err := o.Enforcer.Enforce(ctx, tempPath, o.Store.Layout.AudioPath(videoID))
	if err != nil {
		return o.fail(videoID, target.SourceURL, err)
	}

	rec := store.NewDownloadRecord(meta, info, target.SourceURL, o.now())
	if err := o.Store.WriteSidecar(videoID, rec); err != nil {
		return o.fail(videoID, target.SourceURL, err)
	}

	o.State.Succeeded++
	o.log.Info().
		Str("video_id", videoID).
		Str("title", meta.Title).
		Int("sample_rate", info.SampleRate).
		Int("channels", info.Channels).
		Msg("download complete")
	return OutcomeDownloaded, nil
}

func (o *Orchestrator) fetchMetadata(ctx context.Context, url string) (*youtube.RawMetadata, error) {
	if err := o.Pacer.WaitRequest(ctx); err != nil {
		return nil, err
	}

	var meta *youtube.RawMetadata
	err := o.Backoff.Do(ctx, func(ctx context.Context) error {
		m, err := o.Extractor.FetchMetadata(ctx, url)
		if err != nil {
			return err
		}
		meta = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

func (o *Orchestrator) download(ctx context.Context, url, destPath string) error {
	if err := o.Pacer.WaitDownload(ctx); err != nil {
		return err
	}

	return o.Backoff.Do(ctx, func(ctx context.Context) error {
		return o.Extractor.DownloadAudio(ctx, url, destPath, o.SpeedLimit)
	})
}

func (o *Orchestrator) fail(videoID, url string, err error) (Outcome, error) {
	o.State.Failed++
	o.log.Error().
		Err(err).
		Str("video_id", videoID).
		Str("url", url).
		Msg("video failed")
	return OutcomeFailed, err
}
