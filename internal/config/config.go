package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Nas4146/brief/internal/branding"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Known configuration keys.
const (
	KeyThreshold       = "threshold"
	KeyLogLevel        = "log_level"
	KeyFallbackSection = "fallback_section"
)

const defaultLogLevel = "warn"

var checks = map[string]func(string) error{
	KeyThreshold: func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 1 {
			return fmt.Errorf("threshold must be a number in (0, 1], got %q", v)
		}
		return nil
	},
	KeyLogLevel: func(v string) error {
		if _, err := zapcore.ParseLevel(v); err != nil {
			return fmt.Errorf("invalid log level %q", v)
		}
		return nil
	},
	KeyFallbackSection: func(v string) error {
		if v == "" {
			return errors.New("fallback_section must not be empty")
		}
		return nil
	},
}

// Keys returns the recognized configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(checks))
	for k := range checks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Known reports whether key is a recognized configuration key.
func Known(key string) bool {
	_, ok := checks[key]
	return ok
}

// Check reports whether value is acceptable for key. Unknown keys are an
// error.
func Check(key, value string) error {
	check, ok := checks[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	return check(value)
}

// Dir returns the user config directory (~/.brief/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the user config file (~/.brief/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load points viper at the config file and the BRIEF_* environment. A
// missing file is not an error; a malformed one is returned so the caller
// can report it, and defaults stay in effect.
func Load() error {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	viper.SetDefault(KeyLogLevel, defaultLogLevel)

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("reading %s: %w", FilePath(), err)
}

// Get returns the raw value for key, or "" when unset.
func Get(key string) string {
	return viper.GetString(key)
}

// Threshold returns the configured duplicate threshold, or 0 when unset or
// invalid.
func Threshold() float64 {
	v := Get(KeyThreshold)
	if v == "" || Check(KeyThreshold, v) != nil {
		return 0
	}
	return viper.GetFloat64(KeyThreshold)
}

// LogLevel returns the configured level, falling back to warn.
func LogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(Get(KeyLogLevel))
	if err != nil {
		return zapcore.WarnLevel
	}
	return level
}

// FallbackSection returns the configured fallback section title, or "".
func FallbackSection() string {
	return Get(KeyFallbackSection)
}

// Set validates value, stores it and rewrites the config file.
func Set(key, value string) error {
	if err := Check(key, value); err != nil {
		return err
	}
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", Dir(), err)
	}

	viper.Set(key, value)
	if err := viper.WriteConfigAs(FilePath()); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
