// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"recbooth/internal/catalog"
	"recbooth/internal/config"
)

// NewConfig produces a config rooted in a unique temp directory per test,
// with output directories already created.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.ProjectRoot = base
	cfg.FixturesDir = filepath.Join(base, "tests", "fixtures")
	cfg.ScriptsPath = filepath.Join(cfg.FixturesDir, "scripts.json")
	cfg.AudioDir = filepath.Join(cfg.FixturesDir, "audio")
	cfg.TranscriptDir = filepath.Join(cfg.FixturesDir, "transcripts")
	cfg.ManifestPath = filepath.Join(cfg.FixturesDir, "manifest.json")
	cfg.TakeLogPath = filepath.Join(cfg.FixturesDir, "takes.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WriteScripts serializes scripts into the config's catalog location.
func WriteScripts(t testing.TB, cfg *config.Config, scripts []catalog.Script) {
	t.Helper()

	data, err := json.MarshalIndent(scripts, "", "  ")
	if err != nil {
		t.Fatalf("marshal scripts: %v", err)
	}
	if err := os.WriteFile(cfg.ScriptsPath, data, 0o644); err != nil {
		t.Fatalf("write scripts: %v", err)
	}
}
