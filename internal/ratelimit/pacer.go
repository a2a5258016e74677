// Package ratelimit bounds the rate of outbound requests to YouTube and
// recovers from throttling responses with escalating backoff.
package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Default delay intervals between remote calls.
const (
	DefaultMinRequestDelay  = 3 * time.Second
	DefaultMaxRequestDelay  = 5 * time.Second
	DefaultMinDownloadDelay = 5 * time.Second
	DefaultMaxDownloadDelay = 10 * time.Second
)

// PacerConfig holds the jittered delay intervals enforced between remote
// calls.
type PacerConfig struct {
	// MinRequestDelay and MaxRequestDelay bound the delay before each
	// metadata or listing request.
	MinRequestDelay time.Duration
	MaxRequestDelay time.Duration

	// MinDownloadDelay and MaxDownloadDelay bound the delay before each
	// media transfer.
	MinDownloadDelay time.Duration
	MaxDownloadDelay time.Duration
}

// DefaultPacerConfig returns the delay intervals used when none are
// configured: 3-5s between requests, 5-10s between downloads.
func DefaultPacerConfig() PacerConfig {
	return PacerConfig{
		MinRequestDelay:  DefaultMinRequestDelay,
		MaxRequestDelay:  DefaultMaxRequestDelay,
		MinDownloadDelay: DefaultMinDownloadDelay,
		MaxDownloadDelay: DefaultMaxDownloadDelay,
	}
}

// Pacer spaces outbound calls by sleeping for a duration drawn uniformly
// from a configured interval. Time already spent since the previous call of
// the same kind counts against the delay, so only the remainder is slept.
//
// Pacer is used from a single goroutine; the batch is strictly sequential.
type Pacer struct {
	cfg PacerConfig

	lastRequest  time.Time
	lastDownload time.Time

	now       func() time.Time
	sleep     func(context.Context, time.Duration) error
	randFloat func() float64
}

// NewPacer creates a pacer with the given intervals. Zero-valued intervals
// fall back to the defaults.
func NewPacer(cfg PacerConfig) *Pacer {
	def := DefaultPacerConfig()
	if cfg.MinRequestDelay <= 0 {
		cfg.MinRequestDelay = def.MinRequestDelay
	}
	if cfg.MaxRequestDelay <= 0 {
		cfg.MaxRequestDelay = def.MaxRequestDelay
	}
	if cfg.MinDownloadDelay <= 0 {
		cfg.MinDownloadDelay = def.MinDownloadDelay
	}
	if cfg.MaxDownloadDelay <= 0 {
		cfg.MaxDownloadDelay = def.MaxDownloadDelay
	}

	return &Pacer{
		cfg:       cfg,
		now:       time.Now,
		sleep:     sleepCtx,
		randFloat: rand.Float64,
	}
}

// WaitRequest blocks until the jittered inter-request delay has elapsed
// since the previous request.
func (p *Pacer) WaitRequest(ctx context.Context) error {
	return p.waitSince(ctx, &p.lastRequest, p.cfg.MinRequestDelay, p.cfg.MaxRequestDelay)
}

// WaitDownload blocks until the jittered inter-download delay has elapsed
// since the previous download.
func (p *Pacer) WaitDownload(ctx context.Context) error {
	return p.waitSince(ctx, &p.lastDownload, p.cfg.MinDownloadDelay, p.cfg.MaxDownloadDelay)
}

// Delay returns a duration drawn uniformly from [min, max].
func (p *Pacer) Delay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(p.randFloat()*float64(max-min))
}

func (p *Pacer) waitSince(ctx context.Context, last *time.Time, min, max time.Duration) error {
	delay := p.Delay(min, max)

	if !last.IsZero() {
		elapsed := p.now().Sub(*last)
		if elapsed >= delay {
			*last = p.now()
			return nil
		}
		delay -= elapsed
	}

	if err := p.sleep(ctx, delay); err != nil {
		return err
	}
	*last = p.now()
	return nil
}

// sleepCtx sleeps for d or returns early when ctx is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
