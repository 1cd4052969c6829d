// Package userstore persists small per-user records for the gateway. The
// gateway treats records as opaque JSON; callers own the schema.
package userstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned when no record exists for the requested user.
var ErrNotFound = fmt.Errorf("userstore: record not found")

// Store is the user record boundary.
type Store interface {
	// Get returns the record for userID, or ErrNotFound.
	Get(ctx context.Context, userID string) (json.RawMessage, error)

	// Put replaces the record for userID.
	Put(ctx context.Context, userID string, record json.RawMessage) error

	// Delete removes the record for userID. Deleting a missing record is
	// not an error.
	Delete(ctx context.Context, userID string) error
}

// FileStore implements Store backed by a single JSON file. Writes rewrite
// the whole file; this is meant for small operator-scale record counts.
type FileStore struct {
	mu       sync.Mutex
	filePath string
}

// NewFileStore creates a file-backed store at filePath. The parent directory
// is created if missing; the file itself is created on first Put.
func NewFileStore(filePath string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{filePath: filePath}, nil
}

// Get returns the record for userID, or ErrNotFound.
func (s *FileStore) Get(_ context.Context, userID string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	record, ok := records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return record, nil
}

// Put replaces the record for userID.
func (s *FileStore) Put(_ context.Context, userID string, record json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records[userID] = record
	return s.save(records)
}

// Delete removes the record for userID.
func (s *FileStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[userID]; !ok {
		return nil
	}
	delete(records, userID)
	return s.save(records)
}

func (s *FileStore) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	records := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	return records, nil
}

func (s *FileStore) save(records map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	// Write atomically using temp file + rename
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		os.Remove(tmpFile) // Clean up temp file
		return fmt.Errorf("failed to rename store file: %w", err)
	}

	return nil
}
