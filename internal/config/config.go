package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every setting the recorder needs. Paths are absolute or
// relative to the process working directory; relative paths keep recorded
// fixtures portable within the project tree.
type Config struct {
	// ProjectRoot anchors the relative paths stored in manifest entries.
	ProjectRoot string `toml:"project_root"`
	// FixturesDir is the base directory for all recorder artifacts.
	FixturesDir string `toml:"fixtures_dir"`

	ScriptsPath   string `toml:"scripts_path"`
	AudioDir      string `toml:"audio_dir"`
	TranscriptDir string `toml:"transcript_dir"`
	ManifestPath  string `toml:"manifest_path"`
	TakeLogPath   string `toml:"take_log_path"`

	SampleRate       int `toml:"sample_rate"`
	CountdownSeconds int `toml:"countdown_seconds"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// DefaultConfigPath returns the standard location for the config file.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "recbooth", "config.toml"), nil
}

// Load reads configuration from the given path, or the default location when
// path is empty. A missing file is not an error; defaults apply. Load returns
// the config, the resolved path, and whether a file was found there.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			return nil, resolved, true, fmt.Errorf("read config %s: %w", resolved, readErr)
		}
		if unmarshalErr := toml.Unmarshal(data, &cfg); unmarshalErr != nil {
			return nil, resolved, true, fmt.Errorf("parse config %s: %w", resolved, unmarshalErr)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, resolved, exists, err
	}
	if err := cfg.validate(); err != nil {
		return nil, resolved, exists, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	path = strings.TrimSpace(path)
	explicit := path != ""
	if !explicit {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}

	if _, statErr := os.Stat(expanded); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			if explicit {
				return expanded, false, fmt.Errorf("config file not found: %s", expanded)
			}
			return expanded, false, nil
		}
		return expanded, false, fmt.Errorf("stat config %s: %w", expanded, statErr)
	}
	return expanded, true, nil
}

// normalize expands tildes and derives any unset paths from FixturesDir.
func (c *Config) normalize() error {
	if strings.TrimSpace(c.ProjectRoot) == "" {
		c.ProjectRoot = defaultProjectRoot
	}
	if strings.TrimSpace(c.FixturesDir) == "" {
		c.FixturesDir = filepath.Join(c.ProjectRoot, "tests", "fixtures")
	}

	for _, field := range []*string{&c.ProjectRoot, &c.FixturesDir} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	derived := []struct {
		field *string
		name  string
	}{
		{&c.ScriptsPath, "scripts.json"},
		{&c.AudioDir, "audio"},
		{&c.TranscriptDir, "transcripts"},
		{&c.ManifestPath, "manifest.json"},
		{&c.TakeLogPath, "takes.db"},
	}
	for _, d := range derived {
		if strings.TrimSpace(*d.field) == "" {
			*d.field = filepath.Join(c.FixturesDir, d.name)
			continue
		}
		expanded, err := expandPath(*d.field)
		if err != nil {
			return err
		}
		*d.field = expanded
	}
	return nil
}

func (c *Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.CountdownSeconds < 0 {
		return fmt.Errorf("countdown_seconds must not be negative, got %d", c.CountdownSeconds)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format: unsupported value %q", c.LogFormat)
	}
	return nil
}

// EnsureDirectories creates the fixture output directories. Pre-existing
// directories are not an error; this must run before any capture or write.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.FixturesDir, c.AudioDir, c.TranscriptDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath is the flock file guarding against concurrent recorder sessions.
func (c *Config) LockPath() string {
	return filepath.Join(c.FixturesDir, "recbooth.lock")
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", pathValue, err)
		}
		if pathValue == "~" {
			return home, nil
		}
		return filepath.Join(home, pathValue[2:]), nil
	}
	return filepath.Clean(pathValue), nil
}
