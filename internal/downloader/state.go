// Package downloader drives one video end-to-end through extraction, format
// enforcement, and persistence, and iterates a batch of targets sequentially
// under the rate-limiting contract.
package downloader

import "fmt"

// Outcome classifies the result of processing one target.
type Outcome int

const (
	// OutcomeDownloaded means the artifact and sidecar were persisted.
	OutcomeDownloaded Outcome = iota
	// OutcomeSkipped means the video was already archived.
	OutcomeSkipped
	// OutcomeFailed means processing failed; the batch continues.
	OutcomeFailed
)

// String returns the string representation of an outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunState holds the per-run counters. It is touched only by the single
// execution goroutine and is not persisted; the filesystem layout is the
// durable record of completed work.
type RunState struct {
	Attempted int
	Succeeded int
	Skipped   int
	Failed    int
}

// SuccessRate returns the fraction of attempted videos that succeeded, in
// percent.
func (s RunState) SuccessRate() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Attempted) * 100
}

// Summary returns a one-line rendering of the counters.
func (s RunState) Summary() string {
	return fmt.Sprintf("attempted=%d succeeded=%d skipped=%d failed=%d",
		s.Attempted, s.Succeeded, s.Skipped, s.Failed)
}
