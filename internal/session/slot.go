// Package session implements the continuity tier: a quota-limited
// synchronous slot holding one small session document, and the autosave and
// restore flows that keep large payload bodies in the durable store.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"minuta/internal/models"
)

// ErrQuotaExceeded is returned when a session document does not fit the
// slot's byte ceiling. Nothing is written.
var ErrQuotaExceeded = errors.New("session slot quota exceeded")

// Slot is the quota-limited synchronous store: exactly one JSON document in
// one file, written atomically, with a strict size ceiling.
type Slot struct {
	path     string
	maxBytes int64
}

// NewSlot creates a slot at path with the given byte ceiling.
func NewSlot(path string, maxBytes int64) *Slot {
	return &Slot{path: path, maxBytes: maxBytes}
}

// Write serializes doc into the slot. Oversized documents are rejected with
// ErrQuotaExceeded before anything touches disk.
func (s *Slot) Write(doc *models.SessionDocument) error {
	if doc == nil {
		return fmt.Errorf("session document is required")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.writeRaw(data)
}

func (s *Slot) writeRaw(data []byte) error {
	if int64(len(data)) > s.maxBytes {
		return fmt.Errorf("%w: %d bytes over %d limit", ErrQuotaExceeded, len(data), s.maxBytes)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// ReadRaw returns the stored document bytes, or nil when no session exists.
func (s *Slot) ReadRaw() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Exists is a cheap probe for the startup "resume previous session?" prompt.
func (s *Slot) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Remove deletes the slot file. A missing file is not an error.
func (s *Slot) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
