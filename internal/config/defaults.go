package config

const (
	defaultProjectRoot      = "."
	defaultSampleRate       = 16000
	defaultCountdownSeconds = 3
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
)

// Default returns a Config populated with repository defaults. Derived paths
// are left empty and filled in by normalize so overrides of FixturesDir
// propagate.
func Default() Config {
	return Config{
		ProjectRoot:      defaultProjectRoot,
		SampleRate:       defaultSampleRate,
		CountdownSeconds: defaultCountdownSeconds,
		LogLevel:         defaultLogLevel,
		LogFormat:        defaultLogFormat,
	}
}
