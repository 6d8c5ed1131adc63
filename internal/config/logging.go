package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rshade/carbonledger/internal/logging"
)

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the zerolog level name.
	Level string `yaml:"level" json:"level"`

	// Format is "console" or "json".
	Format string `yaml:"format" json:"format"`

	// File, when set, sends logs to this file instead of stderr.
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// ToLoggingConfig converts the config section into a logging.Config.
//
//   - Level and Format are copied directly
//   - If File is set, Output becomes "file"
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

// EnsureLogDir creates the parent directory of the configured log file.
func (lc *LoggingConfig) EnsureLogDir() error {
	if lc.File == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(lc.File), 0750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	return nil
}

// GetLoggingConfig returns a copy of the global Logging section.
func GetLoggingConfig() LoggingConfig {
	return GetGlobalConfig().Logging
}
