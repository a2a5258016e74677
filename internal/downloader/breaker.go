package downloader

import (
	"errors"

	"ytaudio/internal/store"
)

// defaultBreakerThreshold is the number of consecutive systemic storage
// failures after which the batch aborts.
const defaultBreakerThreshold = 3

// ErrStorageBreaker is returned by the batch driver when the storage breaker
// trips: the remaining targets would all fail identically.
var ErrStorageBreaker = errors.New("downloader: aborting batch, storage is failing systemically")

// storageBreaker counts consecutive systemic storage failures. One healthy
// video resets it; isolated per-video errors never trip it.
type storageBreaker struct {
	threshold int
	streak    int
}

func newStorageBreaker(threshold int) *storageBreaker {
	if threshold <= 0 {
		threshold = defaultBreakerThreshold
	}
	return &storageBreaker{threshold: threshold}
}

// record updates the streak from one processed target's error (nil on
// success or skip).
func (b *storageBreaker) record(err error) {
	var storErr *store.StorageError
	if err != nil && errors.As(err, &storErr) && store.IsSystemic(storErr.Err) {
		b.streak++
		return
	}
	b.streak = 0
}

// tripped reports whether the failure streak reached the threshold.
func (b *storageBreaker) tripped() bool {
	return b.streak >= b.threshold
}
