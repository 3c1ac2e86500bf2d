package config

const (
	defaultHost             = "http://localhost:3000"
	defaultOutputDir        = "dist"
	defaultReadyTimeoutSecs = 30
	defaultJobTimeoutSecs   = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Host:      defaultHost,
		OutputDir: defaultOutputDir,
		Preview: Preview{
			ReadyTimeout: defaultReadyTimeoutSecs,
		},
		Browser: Browser{
			JobTimeout: defaultJobTimeoutSecs,
		},
		Capture: Capture{
			Enabled: true,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
