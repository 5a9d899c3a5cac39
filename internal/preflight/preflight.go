package preflight

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"recbooth/internal/catalog"
	"recbooth/internal/config"
)

// minFreeBytes is the disk space below which recording sessions get warned:
// a minute of 16 kHz mono PCM is ~2 MiB, so 100 MiB covers a long session.
const minFreeBytes = 100 << 20

// Result is one named check outcome.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Run executes every environment check. The returned ok reports whether the
// catalog check passed; per the tool's contract that alone decides the exit
// code.
func Run(cfg *config.Config) (results []Result, ok bool) {
	catalogResult := CheckCatalog(cfg.ScriptsPath)
	results = append(results, catalogResult)
	results = append(results,
		CheckDirectory("Audio directory", cfg.AudioDir),
		CheckDirectory("Transcript directory", cfg.TranscriptDir),
		CheckDiskSpace(cfg.FixturesDir),
	)
	return results, catalogResult.Passed
}

// CheckCatalog verifies the script catalog exists, parses, and is non-empty.
func CheckCatalog(path string) Result {
	const name = "Script catalog"

	scripts, err := catalog.Load(path)
	switch {
	case errors.Is(err, catalog.ErrMissing):
		return Result{Name: name, Detail: fmt.Sprintf("missing at %s", path)}
	case errors.Is(err, catalog.ErrMalformed):
		return Result{Name: name, Detail: fmt.Sprintf("unparseable at %s", path)}
	case err != nil:
		return Result{Name: name, Detail: err.Error()}
	case len(scripts) == 0:
		return Result{Name: name, Detail: "no scripts defined; add entries to scripts.json"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d scripts", len(scripts))}
}

// CheckDirectory verifies path exists, is a directory, and is writable.
func CheckDirectory(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("missing: %s", path)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("not a directory: %s", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("not writable: %s (%v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDiskSpace reports free space on the filesystem holding the fixtures.
func CheckDiskSpace(path string) Result {
	const name = "Disk space"

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("statfs %s: %v", path, err)}
	}

	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%d MiB free", free>>20)
	if free < minFreeBytes {
		return Result{Name: name, Detail: detail + " (low)"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}
