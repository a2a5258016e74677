package downloader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"ytaudio/internal/youtube"
)

// Batch expands URL and channel inputs into an ordered target sequence and
// iterates the orchestrator over them, one video at a time.
type Batch struct {
	Orchestrator *Orchestrator

	// MaxVideos caps channel expansion. 0 means no cap.
	MaxVideos int

	log zerolog.Logger
}

// NewBatch creates a batch driver around an orchestrator.
func NewBatch(orch *Orchestrator, maxVideos int, log zerolog.Logger) *Batch {
	return &Batch{
		Orchestrator: orch,
		MaxVideos:    maxVideos,
		log:          log.With().Str("component", "batch").Logger(),
	}
}

// ResolveVideo builds the single target for a directly supplied video URL.
func (b *Batch) ResolveVideo(url string) youtube.VideoTarget {
	return youtube.VideoTarget{
		VideoID:   youtube.ParseVideoID(url),
		SourceURL: url,
	}
}

// ResolveChannel enumerates a channel into targets, in the order YouTube
// returns them, capped at MaxVideos. The listing request goes through the
// pacer and the backoff controller like any other metadata call.
func (b *Batch) ResolveChannel(ctx context.Context, channelURL string) ([]youtube.VideoTarget, error) {
	if err := b.Orchestrator.Pacer.WaitRequest(ctx); err != nil {
		return nil, err
	}

	var targets []youtube.VideoTarget
	err := b.Orchestrator.Backoff.Do(ctx, func(ctx context.Context) error {
		list, err := b.Orchestrator.Extractor.ListChannel(ctx, channelURL, b.MaxVideos)
		if err != nil {
			return err
		}
		targets = list
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.log.Info().Str("channel", channelURL).Int("videos", len(targets)).Msg("channel resolved")
	return targets, nil
}

// ResolveFile reads a newline-delimited file mixing video and channel URLs.
// Blank lines and lines starting with '#' are ignored. Channel URLs are
// expanded in place, preserving overall order.
func (b *Batch) ResolveFile(ctx context.Context, path string) ([]youtube.VideoTarget, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open urls file: %w", err)
	}
	defer f.Close()

	var targets []youtube.VideoTarget
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if youtube.IsChannelURL(line) {
			expanded, err := b.ResolveChannel(ctx, line)
			if err != nil {
				// A bad channel line fails that line, not the file.
				b.log.Error().Err(err).Str("channel", line).Msg("channel resolution failed")
				b.Orchestrator.State.Attempted++
				b.Orchestrator.State.Failed++
				continue
			}
			targets = append(targets, expanded...)
			continue
		}

		targets = append(targets, b.ResolveVideo(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read urls file: %w", err)
	}

	return targets, nil
}

// Run processes targets strictly sequentially. Per-video failures are logged
// and counted, never fatal; the run stops early only on context cancellation
// or when the storage breaker trips.
func (b *Batch) Run(ctx context.Context, targets []youtube.VideoTarget) error {
	breaker := newStorageBreaker(defaultBreakerThreshold)

	for i, target := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b.log.Info().
			Int("index", i+1).
			Int("total", len(targets)).
			Str("url", target.SourceURL).
			Msg("processing")

		_, err := b.Orchestrator.Process(ctx, target)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		breaker.record(err)
		if breaker.tripped() {
			b.log.Error().Msg("repeated systemic storage failures, aborting batch")
			return ErrStorageBreaker
		}
	}

	return nil
}
