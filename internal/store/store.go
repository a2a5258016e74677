package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// Store persists archive artifacts under a Layout. Writes follow the crash
// safety rule: the artifact is placed first, the sidecar is written last via
// an atomic temp-file-and-rename, so a sidecar never references a missing or
// partial artifact.
type Store struct {
	Layout Layout
}

// New creates a store rooted at root.
func New(root string) *Store {
	return &Store{Layout: NewLayout(root)}
}

// WriteSidecar marshals the record and writes it atomically next to the
// artifact. Call only after artifact placement is confirmed.
func (s *Store) WriteSidecar(videoID string, rec DownloadRecord) error {
	path := s.Layout.SidecarPath(videoID)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return &StorageError{Op: "marshal sidecar", Path: path, Err: fmt.Errorf("marshal record: %w", err)}
	}
	data = append(data, '\n')

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return &StorageError{Op: "write sidecar", Path: path, Err: err}
	}
	return nil
}

// ReadSidecar loads a previously written record, mostly for tests and
// inspection tooling.
func (s *Store) ReadSidecar(videoID string) (DownloadRecord, error) {
	path := s.Layout.SidecarPath(videoID)

	data, err := os.ReadFile(path)
	if err != nil {
		return DownloadRecord{}, &StorageError{Op: "read sidecar", Path: path, Err: err}
	}

	var rec DownloadRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return DownloadRecord{}, &StorageError{Op: "parse sidecar", Path: path, Err: err}
	}
	return rec, nil
}

// DiscardTemp removes a temporary download file, tolerating its absence.
func (s *Store) DiscardTemp(path string) {
	if path == "" {
		return
	}
	// Only ever remove our own .part files.
	if !strings.HasSuffix(filepath.Base(path), ".part") {
		return
	}
	_ = os.Remove(path)
}
