// Package catalog loads the ordered list of scripts available for recording.
//
// The catalog is a JSON array of {id, title, text} objects maintained by hand
// alongside the fixtures it describes. It is read-only: the recorder never
// rewrites it.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrMissing indicates the catalog file does not exist at the expected path.
	ErrMissing = errors.New("script catalog missing")
	// ErrMalformed indicates the catalog file exists but could not be parsed.
	ErrMalformed = errors.New("script catalog malformed")
)

// Script is one passage an operator can read aloud.
type Script struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

var titleCaser = cases.Title(language.English)

// DisplayTitle returns the script title, falling back to a title-cased form
// of the ID when the catalog entry has no title.
func (s Script) DisplayTitle() string {
	if title := strings.TrimSpace(s.Title); title != "" {
		return title
	}
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(s.ID)
	return titleCaser.String(cleaned)
}

// Load reads the catalog at path and returns its scripts in file order.
// A missing file returns ErrMissing with a remediation hint; a parse failure
// returns ErrMalformed. Loading the same file twice yields identical lists.
func Load(path string) ([]Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: expected %s (run `recbooth --check` to verify setup)", ErrMissing, path)
		}
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var scripts []Script
	if err := json.Unmarshal(data, &scripts); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return scripts, nil
}
