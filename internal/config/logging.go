package config

import (
	"github.com/rshade/beacondash/internal/logging"
)

// ToLoggingConfig converts config.LoggingConfig to logging.Config.
//
// The conversion applies these rules:
//   - Level, Format are copied directly
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}

	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}

// ForTUI returns the logging config used while the dashboard owns the
// terminal: a configured file, else the default log file. Console and text
// formats become JSON since nobody reads the file interactively.
func (lc *LoggingConfig) ForTUI() logging.Config {
	cfg := lc.ToLoggingConfig()
	if cfg.File == "" {
		path, err := DefaultLogFile()
		if err != nil {
			cfg.Output = logging.OutputDiscard
			return cfg
		}
		cfg.File = path
	}
	cfg.Output = logging.OutputFile
	cfg.Format = logging.FormatJSON
	return cfg
}

// GetLoggingConfig returns the Logging section of the global configuration.
// Overrides such as --debug are applied by the caller.
func GetLoggingConfig() LoggingConfig {
	cfg := GetGlobalConfig()
	return cfg.Logging
}
