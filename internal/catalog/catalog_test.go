package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"recbooth/internal/catalog"
)

func writeCatalog(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scripts.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoadReturnsScriptsInFileOrder(t *testing.T) {
	path := writeCatalog(t, `[
  {"id": "s2", "title": "Second", "text": "Two."},
  {"id": "s1", "title": "First", "text": "One."}
]`)

	scripts, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(scripts) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(scripts))
	}
	if scripts[0].ID != "s2" || scripts[1].ID != "s1" {
		t.Fatalf("file order not preserved: %+v", scripts)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	path := writeCatalog(t, `[{"id": "s1", "title": "Intro", "text": "Hello world."}]`)

	first, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	second, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("loads differ: %+v vs %+v", first, second)
	}
}

func TestLoadMissingFileCarriesHint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scripts.json")
	_, err := catalog.Load(path)
	if !errors.Is(err, catalog.ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error should name the expected path: %v", err)
	}
	if !strings.Contains(err.Error(), "--check") {
		t.Fatalf("error should hint at --check: %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeCatalog(t, `{"not": "an array"`)
	_, err := catalog.Load(path)
	if !errors.Is(err, catalog.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDisplayTitleFallsBackToID(t *testing.T) {
	s := catalog.Script{ID: "quick_brown-fox"}
	if got := s.DisplayTitle(); got != "Quick Brown Fox" {
		t.Fatalf("unexpected display title: %q", got)
	}
	titled := catalog.Script{ID: "s1", Title: "Intro"}
	if got := titled.DisplayTitle(); got != "Intro" {
		t.Fatalf("expected explicit title, got %q", got)
	}
}
