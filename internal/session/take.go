package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"recbooth/internal/audio"
	"recbooth/internal/catalog"
	"recbooth/internal/manifest"
	"recbooth/internal/takelog"
	"recbooth/internal/wavio"
)

// runTake performs one recording attempt end to end. Errors returned here are
// caught at the loop boundary in Run; an empty capture is a valid non-error
// outcome that saves nothing.
func (c *Controller) runTake(ctx context.Context, script catalog.Script) error {
	fmt.Fprintln(c.out, "\n--- Recording Script ---")
	fmt.Fprintf(c.out, "Title: %s\n", script.DisplayTitle())
	fmt.Fprintln(c.out, "Please read the following text aloud during the recording:")
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, script.Text)
	fmt.Fprint(c.out, "\nPress Enter when you're ready. You'll get a short countdown.")
	if _, err := c.readLine(); err != nil {
		return fmt.Errorf("input closed before recording: %w", err)
	}

	c.runCountdown()

	samples, err := c.capture()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Recording complete.")

	if len(samples) == 0 {
		fmt.Fprintln(c.out, "No audio captured. Skipping save.")
		c.recordTake(ctx, takelog.Take{
			ScriptID:   script.ID,
			Outcome:    takelog.OutcomeEmpty,
			SampleRate: c.sampleRate,
		})
		return nil
	}

	return c.persist(ctx, script, samples)
}

// runCountdown is purely presentational; capture timing is controlled by the
// audio stream itself.
func (c *Controller) runCountdown() {
	for remaining := c.countdown; remaining > 0; remaining-- {
		fmt.Fprintf(c.out, "  Recording starts in %d…\r", remaining)
		c.sleep(time.Second)
	}
}

// capture opens the input stream, blocks until the operator presses Enter,
// and returns whatever arrived. Open failures surface before the block so a
// dead device never eats the stop keypress.
func (c *Controller) capture() ([]float32, error) {
	rec, err := c.capturer.Start(audio.Params{SampleRate: c.sampleRate, Device: c.device})
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(c.out, "  Recording… Press Enter to stop.")
	if _, readErr := c.readLine(); readErr != nil {
		// Input closed mid-capture; stop the stream and report the capture
		// as aborted so nothing half-heard is saved.
		_, _ = rec.Stop()
		return nil, fmt.Errorf("input closed during recording: %w", readErr)
	}

	return rec.Stop()
}

// persist writes the WAV and transcript files and appends the manifest entry.
// Files share a slug of timestamp plus script id so the artifacts of one take
// stay linked.
func (c *Controller) persist(ctx context.Context, script catalog.Script, samples []float32) error {
	timestamp := c.now().Format("20060102-150405")
	slug := timestamp + "_" + script.ID
	audioPath := filepath.Join(c.cfg.AudioDir, slug+".wav")
	transcriptPath := filepath.Join(c.cfg.TranscriptDir, slug+".txt")

	if err := wavio.Encode(audioPath, samples, c.sampleRate); err != nil {
		return err
	}
	if err := os.WriteFile(transcriptPath, []byte(script.Text), 0o644); err != nil {
		return fmt.Errorf("write transcript %s: %w", transcriptPath, err)
	}

	duration := math.Round(float64(len(samples))/float64(c.sampleRate)*100) / 100
	entry := manifest.Entry{
		ID:              slug,
		ScriptID:        script.ID,
		Title:           script.Title,
		AudioPath:       c.relToRoot(audioPath),
		TranscriptPath:  c.relToRoot(transcriptPath),
		SampleRate:      c.sampleRate,
		DurationSeconds: duration,
		RecordedAt:      timestamp,
	}
	if err := c.manifest.Append(entry); err != nil {
		return err
	}

	c.recordTake(ctx, takelog.Take{
		ScriptID:        script.ID,
		Outcome:         takelog.OutcomeSaved,
		Samples:         len(samples),
		DurationSeconds: duration,
		SampleRate:      c.sampleRate,
	})

	fmt.Fprintf(c.out, "Saved audio to %s\n", audioPath)
	fmt.Fprintf(c.out, "Saved transcript to %s\n", transcriptPath)
	c.logger.Info("saved sample",
		slog.String("slug", slug),
		slog.String("script_id", script.ID),
		slog.Int("samples", len(samples)),
		slog.Float64("duration_seconds", duration))
	return nil
}

// relToRoot renders a path relative to the project root for manifest storage,
// falling back to the path itself when no relative form exists.
func (c *Controller) relToRoot(path string) string {
	rel, err := filepath.Rel(c.cfg.ProjectRoot, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
