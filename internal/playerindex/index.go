// Package playerindex keeps a durable record of every player ever seen on a
// tracked server.
package playerindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/serverwatch/fivewatch/internal/diff"
	"github.com/serverwatch/fivewatch/internal/models"
)

// Index maps player names to their sighting history. Names are
// case-sensitive; the index only ever grows.
type Index struct {
	path    string
	mu      sync.Mutex
	records map[string]*models.PlayerRecord
}

// Open loads the index file at path, or starts an empty index when the file
// does not exist yet.
func Open(path string) (*Index, error) {
	ix := &Index{
		path:    path,
		records: make(map[string]*models.PlayerRecord),
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ix, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &ix.records); err != nil {
		return nil, fmt.Errorf("loading player index: %w", err)
	}
	return ix, nil
}

// Update records one observation. Repeated updates for the same name and
// server within a poll converge to a single sighting carrying the latest
// ping and timestamp.
func (ix *Index) Update(serverID string, seen time.Time, p models.PlayerObservation) error {
	name := diff.Sanitize(p.Name)
	if name == "" {
		return fmt.Errorf("player #%d has no usable name", p.ID)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	rec, ok := ix.records[name]
	if !ok {
		rec = &models.PlayerRecord{
			Name:      name,
			Sightings: make(map[string]models.Sighting),
		}
		ix.records[name] = rec
	}
	rec.Sightings[serverID] = models.Sighting{
		ServerID: serverID,
		LastSeen: seen,
		Ping:     p.Ping,
	}
	return nil
}

// UpdateAll updates the index for a whole roster. One bad player record is
// logged and skipped so it cannot block the rest of the roster.
func (ix *Index) UpdateAll(serverID string, seen time.Time, players []models.PlayerObservation) {
	for _, p := range players {
		if err := ix.Update(serverID, seen, p); err != nil {
			log.Warn().Err(err).Str("server_id", serverID).Int("player_id", p.ID).
				Msg("Skipping player index update")
		}
	}
}

// GetByName returns the records matching a name exactly. Callers must treat
// the result as a sequence; nothing guarantees a single match forever.
func (ix *Index) GetByName(name string) []models.PlayerRecord {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var out []models.PlayerRecord
	if rec, ok := ix.records[name]; ok {
		out = append(out, *rec)
	}
	return out
}

// Len returns the number of distinct player names on record.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.records)
}

// Save rewrites the whole index file. Safe to call when nothing changed.
func (ix *Index) Save() error {
	ix.mu.Lock()
	raw, err := json.MarshalIndent(ix.records, "", "    ")
	ix.mu.Unlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(ix.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(ix.path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), ix.path)
}
