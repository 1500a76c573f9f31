// Package cache persists the last raw status document seen for each tracked
// server.
package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/serverwatch/fivewatch/internal/fivem"
	"github.com/serverwatch/fivewatch/internal/models"
)

// ErrNotFound is returned by Load when no snapshot has ever been cached for
// a server. It lets the poller tell "first ever poll" apart from a cached
// empty roster.
var ErrNotFound = errors.New("no cached snapshot")

// Store is a file-per-server snapshot store. Writes go through a temp file
// and a rename, so a concurrent Load never observes a partial record.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory itself is created
// lazily on the first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load reads and parses the cached snapshot for a server. A missing record
// is ErrNotFound; a present but unreadable record is a real error.
func (s *Store) Load(serverID string) (*models.ServerSnapshot, error) {
	raw, err := s.LoadRaw(serverID)
	if err != nil {
		return nil, err
	}
	snap, err := fivem.ParseSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("cached snapshot for %s: %w", serverID, err)
	}
	return snap, nil
}

// LoadRaw returns the raw cached document for a server.
func (s *Store) LoadRaw(serverID string) ([]byte, error) {
	raw, err := os.ReadFile(s.path(serverID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Save overwrites the cached document for a server with the raw API
// response, re-indented for human inspection.
func (s *Store) Save(serverID string, raw []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		// Not valid JSON; store as-is rather than lose the observation.
		buf.Reset()
		buf.Write(raw)
	}

	tmp, err := os.CreateTemp(s.dir, serverID+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(serverID))
}

func (s *Store) path(serverID string) string {
	return filepath.Join(s.dir, serverID+".cache.json")
}
