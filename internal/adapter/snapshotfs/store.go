// Package snapshotfs persists leaderboard snapshots as JSON files in a
// single output directory. Each write replaces the whole file atomically so
// the dashboard never reads a half-written snapshot.
package snapshotfs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/snow-season-etl/internal/observability"
)

// Store reads and writes snapshot files under one directory.
type Store struct {
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Store rooted at dir. The directory is created on first write.
func New(dir string, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{dir: dir, logger: logger, metrics: metrics}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Write marshals v as indented JSON and replaces name with it.
func (s *Store) Write(name string, v any) error {
	if err := s.write(name, v); err != nil {
		s.metrics.SnapshotWrites.WithLabelValues(name, "error").Inc()
		return err
	}
	s.metrics.SnapshotWrites.WithLabelValues(name, "success").Inc()
	s.logger.Info("snapshot written", "file", name, "dir", s.dir)
	return nil
}

func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Read decodes name into v. A missing file yields an error wrapping fs.ErrNotExist.
func (s *Store) Read(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// rankedFile matches any leaderboard snapshot, including files written
// before the list was renamed from "records" to "rankings".
type rankedFile struct {
	Rankings []rankRow `json:"rankings"`
	Records  []rankRow `json:"records"`
}

type rankRow struct {
	ID   string `json:"id"`
	Rank int    `json:"rank"`
}

// PreviousRanks returns id -> rank from the snapshot currently stored under
// name. A missing file is not an error and yields an empty map.
func (s *Store) PreviousRanks(name string) (map[string]int, error) {
	ranks := make(map[string]int)

	var f rankedFile
	if err := s.Read(name, &f); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no previous snapshot", "file", name)
			return ranks, nil
		}
		return ranks, err
	}

	rows := f.Rankings
	if rows == nil {
		rows = f.Records
	}
	for _, r := range rows {
		if r.ID != "" && r.Rank > 0 {
			ranks[r.ID] = r.Rank
		}
	}
	return ranks, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}
