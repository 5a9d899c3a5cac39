package session_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"recbooth/internal/audio"
	"recbooth/internal/catalog"
	"recbooth/internal/config"
	"recbooth/internal/manifest"
	"recbooth/internal/session"
	"recbooth/internal/takelog"
	"recbooth/internal/testsupport"
	"recbooth/internal/wavio"
)

type fakeCapture struct {
	samples []float32
	stopErr error
}

func (f *fakeCapture) Stop() ([]float32, error) { return f.samples, f.stopErr }

type fakeCapturer struct {
	samples  []float32
	startErr error
	starts   int
}

func (f *fakeCapturer) Start(p audio.Params) (audio.Capture, error) {
	f.starts++
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &fakeCapture{samples: f.samples}, nil
}

func (f *fakeCapturer) Devices() ([]audio.Device, error) { return nil, nil }

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
}

func testScripts() []catalog.Script {
	return []catalog.Script{
		{ID: "s1", Title: "Intro", Text: "Hello world."},
		{ID: "s2", Title: "Numbers", Text: "One two three."},
		{ID: "s3", Title: "Weather", Text: "It is sunny."},
	}
}

type harness struct {
	cfg      *config.Config
	store    *manifest.Store
	capturer *fakeCapturer
	out      *bytes.Buffer
	sleeps   int
}

func newController(t *testing.T, h *harness, input string, opts func(*session.Options)) *session.Controller {
	t.Helper()

	if h.cfg == nil {
		h.cfg = testsupport.NewConfig(t)
	}
	if h.store == nil {
		h.store = manifest.NewStore(h.cfg.ManifestPath, nil)
	}
	if h.capturer == nil {
		h.capturer = &fakeCapturer{}
	}
	h.out = &bytes.Buffer{}

	options := session.Options{
		Config:           h.cfg,
		Scripts:          testScripts(),
		Capturer:         h.capturer,
		Manifest:         h.store,
		In:               strings.NewReader(input),
		Out:              h.out,
		SampleRate:       16000,
		CountdownSeconds: 3,
		Now:              fixedNow,
		Sleep:            func(time.Duration) { h.sleeps++ },
	}
	if opts != nil {
		opts(&options)
	}

	ctrl, err := session.New(options)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return ctrl
}

func constantSamples(value float32, n int) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = value
	}
	return samples
}

func TestFullTakePersistsAllArtifacts(t *testing.T) {
	h := &harness{capturer: &fakeCapturer{samples: constantSamples(0.5, 32000)}}
	// Select script 1, ack the reading gate, stop capture, then decline repeat.
	ctrl := newController(t, h, "1\n\n\nn\n", nil)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	slug := "20240601-120000_s1"
	audioPath := filepath.Join(h.cfg.AudioDir, slug+".wav")
	samples, rate, err := wavio.Decode(audioPath)
	if err != nil {
		t.Fatalf("decode recorded wav: %v", err)
	}
	if rate != 16000 || len(samples) != 32000 {
		t.Fatalf("unexpected wav shape: rate=%d frames=%d", rate, len(samples))
	}

	transcript, err := os.ReadFile(filepath.Join(h.cfg.TranscriptDir, slug+".txt"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if string(transcript) != "Hello world." {
		t.Fatalf("unexpected transcript: %q", transcript)
	}

	doc, err := h.store.Load()
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if len(doc.Samples) != 1 {
		t.Fatalf("expected 1 manifest entry, got %d", len(doc.Samples))
	}
	entry := doc.Samples[0]
	if entry.ID != slug || entry.ScriptID != "s1" || entry.Title != "Intro" {
		t.Fatalf("unexpected entry identity: %+v", entry)
	}
	if entry.SampleRate != 16000 {
		t.Fatalf("unexpected samplerate: %d", entry.SampleRate)
	}
	if entry.DurationSeconds != 2.0 {
		t.Fatalf("unexpected duration: %g", entry.DurationSeconds)
	}
	if entry.RecordedAt != "20240601-120000" {
		t.Fatalf("unexpected recorded_at: %q", entry.RecordedAt)
	}
	if entry.AudioPath != "tests/fixtures/audio/"+slug+".wav" {
		t.Fatalf("unexpected audio path: %q", entry.AudioPath)
	}
	if entry.TranscriptPath != "tests/fixtures/transcripts/"+slug+".txt" {
		t.Fatalf("unexpected transcript path: %q", entry.TranscriptPath)
	}

	if !strings.Contains(h.out.String(), "Saved audio to") {
		t.Fatalf("missing save notice: %q", h.out.String())
	}
	if !strings.Contains(h.out.String(), "Done. Happy testing!") {
		t.Fatalf("missing farewell: %q", h.out.String())
	}
}

func TestEmptyCaptureSkipsPersistence(t *testing.T) {
	h := &harness{capturer: &fakeCapturer{samples: nil}}
	ctrl := newController(t, h, "1\n\n\nn\n", nil)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if !strings.Contains(h.out.String(), "No audio captured. Skipping save.") {
		t.Fatalf("missing skip notice: %q", h.out.String())
	}

	entries, err := os.ReadDir(h.cfg.AudioDir)
	if err != nil {
		t.Fatalf("read audio dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no audio files, found %d", len(entries))
	}
	if _, err := os.Stat(h.cfg.ManifestPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("manifest should not exist, stat err=%v", err)
	}
	transcripts, err := os.ReadDir(h.cfg.TranscriptDir)
	if err != nil {
		t.Fatalf("read transcript dir: %v", err)
	}
	if len(transcripts) != 0 {
		t.Fatalf("expected no transcripts, found %d", len(transcripts))
	}
}

func TestInvalidSelectionsReprompt(t *testing.T) {
	h := &harness{}
	// Junk, out-of-range, then quit.
	ctrl := newController(t, h, "abc\n99\n0\nq\n", nil)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	out := h.out.String()
	if !strings.Contains(out, "Please enter a valid number.") {
		t.Fatalf("missing invalid-number reprompt: %q", out)
	}
	if strings.Count(out, "Selection out of range. Try again.") != 2 {
		t.Fatalf("expected two out-of-range reprompts: %q", out)
	}
	if h.capturer.starts != 0 {
		t.Fatalf("capture should never have started, got %d starts", h.capturer.starts)
	}
	if !strings.Contains(out, "Exiting.") {
		t.Fatalf("missing exit notice: %q", out)
	}
}

func TestQuitTokensAreCaseInsensitive(t *testing.T) {
	for _, token := range []string{"q", "Quit", "EXIT"} {
		h := &harness{}
		ctrl := newController(t, h, token+"\n", nil)
		if err := ctrl.Run(context.Background()); err != nil {
			t.Fatalf("Run with token %q returned error: %v", token, err)
		}
		if !strings.Contains(h.out.String(), "Exiting.") {
			t.Fatalf("token %q should quit: %q", token, h.out.String())
		}
	}
}

func TestDeviceErrorIsRecoverable(t *testing.T) {
	h := &harness{capturer: &fakeCapturer{startErr: audio.ErrDevice}}
	// First take fails at capture; operator declines a retry.
	ctrl := newController(t, h, "1\n\nn\n", nil)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run should not propagate device errors, got %v", err)
	}

	out := h.out.String()
	if !strings.Contains(out, "Error: ") {
		t.Fatalf("missing error report: %q", out)
	}
	if !strings.Contains(out, "Record another sample?") {
		t.Fatalf("session should reach the repeat prompt: %q", out)
	}
}

func TestMalformedManifestIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.WriteFile(cfg.ManifestPath, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write corrupt manifest: %v", err)
	}

	h := &harness{
		cfg:      cfg,
		store:    manifest.NewStore(cfg.ManifestPath, nil),
		capturer: &fakeCapturer{samples: constantSamples(0.1, 1600)},
	}
	ctrl := newController(t, h, "1\n\n\nn\n", nil)

	err := ctrl.Run(context.Background())
	if !errors.Is(err, manifest.ErrMalformed) {
		t.Fatalf("expected ErrMalformed to abort the session, got %v", err)
	}
}

func TestCountdownTicksOncePerSecond(t *testing.T) {
	h := &harness{capturer: &fakeCapturer{samples: nil}}
	ctrl := newController(t, h, "1\n\n\nn\n", nil)

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if h.sleeps != 3 {
		t.Fatalf("expected 3 countdown sleeps, got %d", h.sleeps)
	}
	if !strings.Contains(h.out.String(), "Recording starts in 3") {
		t.Fatalf("missing countdown output: %q", h.out.String())
	}
}

func TestTakeLogRecordsAllOutcomes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	takes, err := takelog.Open(cfg.TakeLogPath)
	if err != nil {
		t.Fatalf("open take log: %v", err)
	}
	defer takes.Close()

	// A saved take for s1, then a second saved take for s2.
	h := &harness{cfg: cfg, capturer: &fakeCapturer{samples: constantSamples(0.2, 1600)}}
	ctrl := newController(t, h, "1\n\n\n\n2\n\n\nn\n", func(o *session.Options) {
		o.Takes = takes
		o.Now = time.Now
	})

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	recorded, err := takes.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(recorded) != 2 {
		t.Fatalf("expected 2 takes, got %d", len(recorded))
	}
	for _, take := range recorded {
		if take.Outcome != takelog.OutcomeSaved {
			t.Fatalf("expected saved outcome, got %+v", take)
		}
	}
}

func TestSecondSessionIsRejectedWhileLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("prepare held lock: locked=%v err=%v", locked, err)
	}
	defer func() { _ = lock.Unlock() }()

	h := &harness{cfg: cfg}
	ctrl := newController(t, h, "q\n", nil)
	if err := ctrl.Run(context.Background()); err == nil {
		t.Fatal("expected second session to be rejected while lock is held")
	}
}
