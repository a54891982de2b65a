package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/Nas4146/brief/internal/branding"
	"github.com/Nas4146/brief/internal/projectctx"
	"go.yaml.in/yaml/v3"
)

// CurrentVersion is the settings version written by Save.
const CurrentVersion = "1.0.0"

// supportedVersions is the range of settings versions this build reads.
const supportedVersions = ">= 1.0.0, < 2.0.0"

// ErrInvalid marks a settings document that failed schema validation.
var ErrInvalid = errors.New("schema validation failed")

// Settings is the .brief.yaml document.
type Settings struct {
	Version         string     `yaml:"version"`
	Files           []string   `yaml:"files,omitempty"`
	Project         Project    `yaml:"project,omitempty"`
	Duplicates      Duplicates `yaml:"duplicates,omitempty"`
	FallbackSection string     `yaml:"fallback_section,omitempty"`
}

// Project declares metadata that replaces detection.
type Project struct {
	Languages      []string `yaml:"languages,omitempty"`
	Frameworks     []string `yaml:"frameworks,omitempty"`
	TestFrameworks []string `yaml:"test_frameworks,omitempty"`
}

// Duplicates tunes duplicate detection.
type Duplicates struct {
	Threshold float64 `yaml:"threshold,omitempty"`
}

// ConfigError reports a settings document that exists but cannot be used.
type ConfigError struct {
	Path   string
	Err    error
	Issues []ValidationIssue
}

func (e *ConfigError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("invalid settings %s: %v", e.Path, e.Err)
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("invalid settings %s: %s", e.Path, strings.Join(msgs, "; "))
}

func (e *ConfigError) Unwrap() error { return e.Err }

// New returns settings at CurrentVersion listing files and declaring ctx.
func New(files []string, ctx projectctx.Context) *Settings {
	return &Settings{
		Version: CurrentVersion,
		Files:   files,
		Project: Project{
			Languages:      ctx.Languages,
			Frameworks:     ctx.Frameworks,
			TestFrameworks: ctx.TestFrameworks,
		},
	}
}

// Path returns the settings document path for a project root.
func Path(root string) string {
	return filepath.Join(root, branding.SettingsFile())
}

// Exists reports whether root has a settings document.
func Exists(root string) bool {
	info, err := os.Stat(Path(root))
	return err == nil && info.Mode().IsRegular()
}

// Load reads, validates and decodes the settings document of root. A
// missing document yields an error matching fs.ErrNotExist; any other
// problem is a *ConfigError.
func Load(root string) (*Settings, error) {
	path := Path(root)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return Parse(path, data)
}

// Parse validates and decodes a settings document read from path.
func Parse(path string, data []byte) (*Settings, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	if !result.Valid {
		return nil, &ConfigError{Path: path, Err: ErrInvalid, Issues: result.Issues}
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("decoding settings: %w", err)}
	}
	if err := CheckVersion(s.Version); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	return &s, nil
}

// CheckVersion reports whether version is one this build can read.
func CheckVersion(version string) error {
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return fmt.Errorf("parsing settings version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return fmt.Errorf("parsing version constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("settings version %s is not supported (want %s)", version, supportedVersions)
	}
	return nil
}

// Save writes s to the settings document of root.
func Save(root string, s *Settings) error {
	if s.Version == "" {
		s.Version = CurrentVersion
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	if err := os.WriteFile(Path(root), data, 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}

	return nil
}

// Declared returns the declared project metadata. ok is false when the
// document declares nothing, in which case callers detect instead.
func (s *Settings) Declared() (ctx projectctx.Context, ok bool) {
	p := s.Project
	if len(p.Languages) == 0 && len(p.Frameworks) == 0 && len(p.TestFrameworks) == 0 {
		return projectctx.Context{}, false
	}
	return projectctx.Declared(p.Languages, p.Frameworks, p.TestFrameworks), true
}
