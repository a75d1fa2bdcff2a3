package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool `mapstructure:"enabled"`
	UseConsoleWriter bool `mapstructure:"use_console_writer"`
}

// LogFile implements a file based logger.
// Each invocation of the poster appends to the same rolling files, so the
// history of timer runs survives between invocations.
type LogFile struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`

	ErrorLog        string `mapstructure:"error"`
	ErrorMaxSize    int    `mapstructure:"error_max_size"`
	ErrorMaxBackups int    `mapstructure:"error_max_backups"`
	ErrorMaxAge     int    `mapstructure:"error_max_age"`

	InfoLog        string `mapstructure:"info"`
	InfoMaxSize    int    `mapstructure:"info_max_size"`
	InfoMaxBackups int    `mapstructure:"info_max_backups"`
	InfoMaxAge     int    `mapstructure:"info_max_age"`

	WarnLog        string `mapstructure:"warn"`
	WarnMaxSize    int    `mapstructure:"warn_max_size"`
	WarnMaxBackups int    `mapstructure:"warn_max_backups"`
	WarnMaxAge     int    `mapstructure:"warn_max_age"`
}

// Log implements the logger config.
type Log struct {
	LogLevel     string `mapstructure:"log_level"` // trace, debug, info, warn, error.
	ReportCaller bool   `mapstructure:"report_caller"`

	AppName     string `mapstructure:"app_name"`
	ServiceName string `mapstructure:"service_name"`

	// Console used mainly for interactive and timer unit output.
	Console Console `mapstructure:"console"`

	// File logging for hosts where the timer discards process output.
	File LogFile `mapstructure:"file"`
}
