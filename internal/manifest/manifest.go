// Package manifest maintains the append-only JSON log of recorded fixtures.
//
// The manifest is the index automated tests consult to pair audio files with
// reference transcripts. Entries are only ever appended; the store refuses to
// touch a file it cannot parse rather than risk prior recordings.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"recbooth/internal/logging"
)

// ErrMalformed indicates an existing manifest file could not be parsed.
// This is deliberately fatal: operator data integrity matters more than
// availability, so the store never guesses or overwrites.
var ErrMalformed = errors.New("manifest malformed")

// Entry describes one recorded fixture. Field names match the on-disk JSON
// consumed by the test suite; paths are relative to the project root.
type Entry struct {
	ID              string  `json:"id"`
	ScriptID        string  `json:"script_id"`
	Title           string  `json:"title"`
	AudioPath       string  `json:"audio_path"`
	TranscriptPath  string  `json:"transcript_path"`
	SampleRate      int     `json:"samplerate"`
	DurationSeconds float64 `json:"duration_seconds"`
	RecordedAt      string  `json:"recorded_at"`
}

// Document is the full manifest file contents.
type Document struct {
	Samples []Entry `json:"samples"`
}

// Store owns the on-disk manifest document and is its only writer.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStore creates a store for the manifest at path. The file is created
// lazily on the first Append.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "manifest"),
	}
}

// Load returns the current manifest document. A missing file yields an empty
// document; an unparseable file yields ErrMalformed.
func (s *Store) Load() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{Samples: []Entry{}}, nil
		}
		return Document{}, fmt.Errorf("read manifest %s: %w", s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrMalformed, s.path, err)
	}
	if doc.Samples == nil {
		doc.Samples = []Entry{}
	}
	return doc, nil
}

// Append adds entry to the end of the samples sequence and rewrites the whole
// file. Prior entries and their order are preserved unchanged. A full rewrite
// per call is acceptable at one call per completed recording.
func (s *Store) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Samples = append(doc.Samples, entry)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", s.path, err)
	}

	s.logger.Debug("appended manifest entry",
		slog.String("id", entry.ID),
		slog.String("script_id", entry.ScriptID),
		slog.Int("entries", len(doc.Samples)))
	return nil
}
