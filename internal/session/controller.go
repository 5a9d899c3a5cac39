package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"recbooth/internal/audio"
	"recbooth/internal/catalog"
	"recbooth/internal/config"
	"recbooth/internal/logging"
	"recbooth/internal/manifest"
	"recbooth/internal/takelog"
)

// Options configures a Controller. Config, Scripts, Capturer, and Manifest
// are required; the take log is optional.
type Options struct {
	Config   *config.Config
	Scripts  []catalog.Script
	Capturer audio.Capturer
	Manifest *manifest.Store
	Takes    *takelog.Store
	Logger   *slog.Logger

	In  io.Reader
	Out io.Writer

	SampleRate       int
	Device           *int
	CountdownSeconds int

	// Now and Sleep are injected by tests; nil means real time.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Controller owns one operator session and the transient state of each take.
type Controller struct {
	cfg      *config.Config
	scripts  []catalog.Script
	capturer audio.Capturer
	manifest *manifest.Store
	takes    *takelog.Store
	logger   *slog.Logger

	in  *bufio.Reader
	out io.Writer

	sampleRate int
	device     *int
	countdown  int

	now   func() time.Time
	sleep func(time.Duration)
}

// New validates options and builds a Controller.
func New(opts Options) (*Controller, error) {
	if opts.Config == nil || opts.Capturer == nil || opts.Manifest == nil {
		return nil, errors.New("session requires config, capturer, and manifest store")
	}
	if len(opts.Scripts) == 0 {
		return nil, errors.New("session requires at least one script")
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", opts.SampleRate)
	}

	in := opts.In
	if in == nil {
		return nil, errors.New("session requires an input reader")
	}
	out := opts.Out
	if out == nil {
		return nil, errors.New("session requires an output writer")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	return &Controller{
		cfg:        opts.Config,
		scripts:    opts.Scripts,
		capturer:   opts.Capturer,
		manifest:   opts.Manifest,
		takes:      opts.Takes,
		logger:     logging.NewComponentLogger(opts.Logger, "session"),
		in:         bufio.NewReader(in),
		out:        out,
		sampleRate: opts.SampleRate,
		device:     opts.Device,
		countdown:  opts.CountdownSeconds,
		now:        now,
		sleep:      sleep,
	}, nil
}

// Run executes the interactive loop until the operator quits. A second
// concurrent session is rejected through the fixtures lock.
func (c *Controller) Run(ctx context.Context) error {
	lock := flock.New(c.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return errors.New("another recbooth session is already running")
	}
	defer func() { _ = lock.Unlock() }()

	for {
		script, quit := c.promptChoice()
		if quit {
			fmt.Fprintln(c.out, "Exiting.")
			return nil
		}

		if err := c.runTake(ctx, script); err != nil {
			if errors.Is(err, manifest.ErrMalformed) {
				return err
			}
			fmt.Fprintf(c.out, "Error: %v\n", err)
			c.logger.Warn("take failed", slog.String("script_id", script.ID), logging.Error(err))
			c.recordTake(ctx, takelog.Take{
				ScriptID:   script.ID,
				Outcome:    takelog.OutcomeFailed,
				SampleRate: c.sampleRate,
				Message:    err.Error(),
			})
		}

		if !c.promptRepeat() {
			fmt.Fprintln(c.out, "Done. Happy testing!")
			return nil
		}
	}
}

// promptChoice lists the catalog and reads a selection. It re-prompts on
// invalid input and reports quit on a quit token or closed input.
func (c *Controller) promptChoice() (catalog.Script, bool) {
	fmt.Fprintln(c.out, "\nAvailable test scripts:")
	for i, script := range c.scripts {
		fmt.Fprintf(c.out, "  %d. %s (%s)\n", i+1, script.DisplayTitle(), script.ID)
	}

	for {
		fmt.Fprint(c.out, "\nSelect a script number to record (or 'q' to quit): ")
		line, err := c.readLine()
		if err != nil {
			return catalog.Script{}, true
		}
		raw := strings.TrimSpace(line)
		switch strings.ToLower(raw) {
		case "q", "quit", "exit":
			return catalog.Script{}, true
		}

		index, convErr := strconv.Atoi(raw)
		if convErr != nil {
			fmt.Fprintln(c.out, "Please enter a valid number.")
			continue
		}
		if index < 1 || index > len(c.scripts) {
			fmt.Fprintln(c.out, "Selection out of range. Try again.")
			continue
		}
		return c.scripts[index-1], false
	}
}

// promptRepeat asks whether to record another sample. Only an explicit
// no-family answer ends the session; anything else, including empty input,
// keeps the default of yes. Closed stdin cannot continue the loop and ends
// the session too.
func (c *Controller) promptRepeat() bool {
	fmt.Fprint(c.out, "\nRecord another sample? [Y/n]: ")
	line, err := c.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "n", "no":
		return false
	}
	return true
}

func (c *Controller) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

func (c *Controller) recordTake(ctx context.Context, take takelog.Take) {
	if c.takes == nil {
		return
	}
	if take.CreatedAt.IsZero() {
		take.CreatedAt = c.now().UTC()
	}
	if _, err := c.takes.Record(ctx, take); err != nil {
		// The take log is advisory; never let it interrupt a session.
		c.logger.Warn("record take", logging.Error(err))
	}
}
