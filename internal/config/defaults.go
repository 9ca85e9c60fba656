package config

const (
	defaultConfigPath         = "~/.config/airwaves/config.toml"
	defaultStorageDir         = "~/.local/share/airwaves/storage"
	defaultDataDir            = "~/.local/share/airwaves"
	defaultLogDir             = "~/.local/share/airwaves/logs"
	defaultAPIBind            = "127.0.0.1:7488"
	defaultBaseURL            = "https://wfmu.org"
	defaultIndexPath          = "/playlists/ND"
	defaultUserAgent          = "airwaves/dev (+https://github.com/airwaves)"
	defaultRequestTimeout     = 30
	defaultShowDelayMillis    = 2000
	defaultRequestsPerSecond  = 2
	defaultFFmpegBinary       = "ffmpeg"
	defaultCodec              = "libvorbis"
	defaultQuality            = 6
	defaultFormat             = "ogg"
	defaultScrapeConcurrency  = 1
	defaultProcessConcurrency = 2
	defaultMaxAttempts        = 3
	defaultPollInterval       = 2
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
	defaultShutdownTimeout    = 30
	defaultKeepFailed         = 50
	defaultNtfyTimeout        = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults. Fields with an
// environment fallback (storage dir, ffmpeg binary, worker concurrency) are left
// empty here and resolved during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Source: Source{
			BaseURL:           defaultBaseURL,
			IndexPath:         defaultIndexPath,
			UserAgent:         defaultUserAgent,
			RequestTimeout:    defaultRequestTimeout,
			ShowDelayMillis:   defaultShowDelayMillis,
			RequestsPerSecond: defaultRequestsPerSecond,
		},
		Transcode: Transcode{
			Codec:   defaultCodec,
			Quality: defaultQuality,
			Format:  defaultFormat,
		},
		Queue: Queue{
			MaxAttempts:        defaultMaxAttempts,
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			ShutdownTimeout:    defaultShutdownTimeout,
			KeepFailed:         defaultKeepFailed,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
