package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"indent-mcp/internal/engine"

	"github.com/rs/zerolog/log"
)

// Store provides thread-safe, append-only storage for calculation runs.
// Runs are immutable: re-appending a known ID is a no-op and nothing is ever updated in place.
type Store struct {
	mu   sync.RWMutex
	runs []engine.Run // ordered by CreatedAt, then ID
	byID map[string]int

	saveMu sync.Mutex // one writer of the temp file at a time
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{
		byID: make(map[string]int),
	}
}

// Append adds runs that are not yet stored and returns how many were new.
func (s *Store) Append(runs ...engine.Run) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range runs {
		if r.ID == "" {
			continue
		}
		if _, ok := s.byID[r.ID]; ok {
			continue
		}
		s.runs = append(s.runs, r.Clone())
		s.byID[r.ID] = -1
		added++
	}
	if added == 0 {
		return 0
	}

	sort.SliceStable(s.runs, func(i, j int) bool {
		if !s.runs[i].CreatedAt.Equal(s.runs[j].CreatedAt) {
			return s.runs[i].CreatedAt.Before(s.runs[j].CreatedAt)
		}
		return s.runs[i].ID < s.runs[j].ID
	})
	for i, r := range s.runs {
		s.byID[r.ID] = i
	}
	return added
}

// Get returns a copy of the run with the given ID.
func (s *Store) Get(id string) (engine.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return engine.Run{}, false
	}
	return s.runs[i].Clone(), true
}

// Latest returns the most recently created run.
func (s *Store) Latest() (engine.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return engine.Run{}, false
	}
	return s.runs[len(s.runs)-1].Clone(), true
}

// List returns up to limit runs, newest first. limit <= 0 returns all of them.
func (s *Store) List(limit int) []engine.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]engine.Run, 0, n)
	for i := len(s.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.runs[i].Clone())
	}
	return out
}

// Lineage walks BaseRunID links from id back to the original baseline.
// The first element is the run itself.
func (s *Store) Lineage(id string) []engine.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chain []engine.Run
	seen := make(map[string]bool)
	for id != "" && !seen[id] {
		i, ok := s.byID[id]
		if !ok {
			break
		}
		seen[id] = true
		chain = append(chain, s.runs[i].Clone())
		id = s.runs[i].BaseRunID
	}
	return chain
}

// Count returns the number of stored runs.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Load reads runs from a JSONL file. A missing file is not an error.
func (s *Store) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer file.Close()

	var runs []engine.Run
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var r engine.Run
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping invalid JSON line in history")
			continue
		}
		runs = append(runs, r)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading history: %w", err)
	}

	added := s.Append(runs...)
	log.Info().Str("path", path).Int("count", added).Msg("Loaded runs from history")
	return nil
}

// Save persists every run to a JSONL file via a temp file and atomic rename.
// Concurrent calls are serialized.
func (s *Store) Save(path string) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	runs := make([]engine.Run, len(s.runs))
	copy(runs, s.runs)
	s.mu.RUnlock()

	if len(runs) == 0 {
		return nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, r := range runs {
		if err := encoder.Encode(r); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode run %s: %w", r.ID, err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename history file: %w", err)
	}

	log.Info().Str("path", path).Int("count", len(runs)).Msg("Run history saved")
	return nil
}
