// Package config manages user-level settings stored at ~/.brief/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the duplicate threshold and log level, with BRIEF_* environment overrides.
package config
