package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Nas4146/brief/internal/branding"
	"github.com/Nas4146/brief/internal/config"
	"github.com/Nas4146/brief/internal/engine"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	rootDir string
	verbose bool

	logger *zap.Logger
	eng    *engine.Engine
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` keeps the instruction files read by AI coding assistants
(AGENTS.md, CLAUDE.md, .cursorrules, Copilot instructions, Cursor rules) in sync.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgErr := config.Load()

		l, err := newLogger()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		logger = l
		if cfgErr != nil {
			logger.Warn("ignoring user config", zap.Error(cfgErr))
		}

		eng = engine.New(
			engine.WithLogger(logger),
			engine.WithThreshold(config.Threshold()),
			engine.WithFallbackTitle(config.FallbackSection()),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "C", ".", "Project root directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
	}
	return err
}

// newLogger builds the console logger. The level comes from the user
// config and is raised to debug by --verbose.
func newLogger() (*zap.Logger, error) {
	level := config.LogLevel()
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// projectRoot returns the absolute project root selected by --dir.
func projectRoot() (string, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return "", fmt.Errorf("resolving project root: %w", err)
	}
	return abs, nil
}

// relTo returns path relative to root for display.
func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
