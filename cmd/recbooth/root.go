package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"recbooth/internal/audio"
	"recbooth/internal/catalog"
	"recbooth/internal/config"
	"recbooth/internal/logging"
	"recbooth/internal/manifest"
	"recbooth/internal/session"
	"recbooth/internal/takelog"
)

type rootOptions struct {
	configPath  string
	sampleRate  int
	device      int
	countdown   int
	listDevices bool
	check       bool
	history     int
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "recbooth",
		Short:         "Record paired audio/transcript fixtures for speech-to-text testing",
		Long: `recbooth records paired audio/transcript fixtures for testing a
speech-to-text system. It lists the scripts from the catalog, prompts you to
read one aloud, captures microphone audio until you press Enter, and persists
the WAV file, the reference transcript, and manifest metadata under the
fixtures directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	flags.IntVar(&opts.sampleRate, "samplerate", config.Default().SampleRate, "Sample rate for recordings (Hz)")
	flags.IntVar(&opts.device, "device", 0, "Input device index; use --list-devices to inspect (default: system default)")
	flags.IntVar(&opts.countdown, "countdown", config.Default().CountdownSeconds, "Countdown seconds before recording starts")
	flags.BoolVar(&opts.listDevices, "list-devices", false, "List available audio devices and exit")
	flags.BoolVar(&opts.check, "check", false, "Verify directories and the script catalog exist, then exit")
	flags.IntVar(&opts.history, "history", 0, "Print the most recent N capture attempts and exit")

	return cmd
}

func run(cmd *cobra.Command, opts *rootOptions) error {
	cfg, _, _, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg, opts)

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	recorder := audio.NewRecorder(logger)
	if opts.listDevices {
		return printDevices(cmd.OutOrStdout(), recorder)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	if opts.check {
		return renderCheck(cmd.OutOrStdout(), cfg)
	}
	if opts.history > 0 {
		return printHistory(cmd.OutOrStdout(), cfg, opts.history)
	}

	scripts, err := catalog.Load(cfg.ScriptsPath)
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		return errors.New("no scripts available; add entries to scripts.json first")
	}

	takes, err := takelog.Open(cfg.TakeLogPath)
	if err != nil {
		// The take log is advisory; a broken database must not block recording.
		logger.Warn("take log unavailable", logging.Error(err))
		takes = nil
	} else {
		defer takes.Close()
	}

	ctrl, err := session.New(session.Options{
		Config:           cfg,
		Scripts:          scripts,
		Capturer:         recorder,
		Manifest:         manifest.NewStore(cfg.ManifestPath, logger),
		Takes:            takes,
		Logger:           logger,
		In:               cmd.InOrStdin(),
		Out:              cmd.OutOrStdout(),
		SampleRate:       cfg.SampleRate,
		Device:           deviceFlag(cmd, opts),
		CountdownSeconds: cfg.CountdownSeconds,
	})
	if err != nil {
		return err
	}

	logger.Info("session starting",
		slog.Int("scripts", len(scripts)),
		slog.Int("sample_rate", cfg.SampleRate))
	return ctrl.Run(cmd.Context())
}

// applyFlagOverrides lets explicit flags win over config file values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, opts *rootOptions) {
	if cmd.Flags().Changed("samplerate") {
		cfg.SampleRate = opts.sampleRate
	}
	if cmd.Flags().Changed("countdown") {
		cfg.CountdownSeconds = opts.countdown
	}
}

// deviceFlag returns the selected input device index, or nil for the system
// default when --device was not given.
func deviceFlag(cmd *cobra.Command, opts *rootOptions) *int {
	if !cmd.Flags().Changed("device") {
		return nil
	}
	device := opts.device
	return &device
}
