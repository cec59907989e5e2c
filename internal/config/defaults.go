package config

const (
	defaultConfigPath          = "~/.config/uploadcheck/config.toml"
	defaultDataDir             = "~/.local/share/uploadcheck"
	defaultLogDir              = "~/.local/share/uploadcheck/logs"
	defaultOutputDir           = "~/.local/share/uploadcheck/output"
	defaultDatabaseName        = "uploadcheck.db"
	defaultLockName            = "uploadcheck.lock"
	defaultTMDBLanguage        = "en-US"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultTMDBRequestTimeout  = 15
	defaultMinFileSizeMB       = 800
	defaultScanWorkers         = 4
	defaultFuzzyThreshold      = 75
	defaultMinVoteCount        = 5
	defaultRuntimeDeltaMinutes = 5
	defaultCooldownSeconds     = 5
	defaultSearchTimeout       = 30
	defaultMaxPages            = 10
	defaultPython              = "python3"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultNtfyTimeout         = 10
)

func defaultExtensions() []string {
	return []string{".mkv"}
}

func defaultIgnoredQualities() []string {
	return []string{"dvdrip", "bdrip", "cam", "ts", "telesync", "hdtv", "webrip"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			Language:       defaultTMDBLanguage,
			RequestTimeout: defaultTMDBRequestTimeout,
		},
		Scan: Scan{
			Extensions:       defaultExtensions(),
			MinFileSizeMB:    defaultMinFileSizeMB,
			IgnoredQualities: defaultIgnoredQualities(),
			Workers:          defaultScanWorkers,
		},
		Identification: Identification{
			FuzzyThreshold:      defaultFuzzyThreshold,
			MinVoteCount:        defaultMinVoteCount,
			RuntimeDeltaMinutes: defaultRuntimeDeltaMinutes,
		},
		Search: Search{
			CooldownSeconds: defaultCooldownSeconds,
			RequestTimeout:  defaultSearchTimeout,
			MaxPages:        defaultMaxPages,
		},
		Export: Export{
			Python: defaultPython,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
	}
}
