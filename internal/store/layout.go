// Package store manages the on-disk archive layout: one directory per video
// holding the audio artifact and its JSON sidecar, written crash-safely.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
)

// Layout computes archive paths under a fixed output root. The rule is
// {root}/{video_id}/{video_id}.m4a with a {video_id}.json sibling.
type Layout struct {
	// Root is the output root directory.
	Root string
}

// NewLayout creates a layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// Dir returns the per-video directory.
func (l Layout) Dir(videoID string) string {
	return filepath.Join(l.Root, videoID)
}

// AudioPath returns the final audio artifact path.
func (l Layout) AudioPath(videoID string) string {
	return filepath.Join(l.Root, videoID, videoID+".m4a")
}

// SidecarPath returns the JSON sidecar path.
func (l Layout) SidecarPath(videoID string) string {
	return filepath.Join(l.Root, videoID, videoID+".json")
}

// TempAudioPath returns a fresh temporary download path inside the video's
// directory, so the final placement is a same-filesystem rename.
func (l Layout) TempAudioPath(videoID string) string {
	return filepath.Join(l.Root, videoID, "."+videoID+"-"+uuid.NewString()+".part")
}

// EnsureDir creates the per-video directory.
func (l Layout) EnsureDir(videoID string) error {
	if err := os.MkdirAll(l.Dir(videoID), 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: l.Dir(videoID), Err: err}
	}
	return nil
}

// Completed reports whether the video was fully archived in a previous run:
// both the artifact and the sidecar exist and are non-empty. The sidecar is
// written last, so its presence governs completion.
func (l Layout) Completed(videoID string) bool {
	return nonEmptyFile(l.AudioPath(videoID)) && nonEmptyFile(l.SidecarPath(videoID))
}

func nonEmptyFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}

// StorageError wraps filesystem errors with the operation and path context.
type StorageError struct {
	// Op is the operation that failed ("mkdir", "write sidecar", ...).
	Op string
	// Path is the path being operated on.
	Path string
	// Err is the underlying error.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// IsSystemic reports whether err points at a storage problem that will
// affect every remaining video (permissions, disk full, read-only mount).
// The batch driver aborts on a streak of these instead of failing each
// target identically.
func IsSystemic(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EROFS)
}
