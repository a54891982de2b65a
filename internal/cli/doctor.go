package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/Nas4146/brief/internal/branding"
	"github.com/Nas4146/brief/internal/config"
	"github.com/Nas4146/brief/internal/settings"
	"github.com/spf13/cobra"
)

var (
	checkConfig   bool
	checkSettings bool
	checkFiles    bool
)

func init() {
	doctorCmd.Flags().BoolVar(&checkConfig, "check-config", false, "Verify the user config file")
	doctorCmd.Flags().BoolVar(&checkSettings, "check-settings", false, "Validate the project settings document")
	doctorCmd.Flags().BoolVar(&checkFiles, "check-files", false, "Check instruction files for structural problems")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the project setup",
	Long:  `Run diagnostic checks on the user config, the project settings and the instruction files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		all := !checkConfig && !checkSettings && !checkFiles
		failed := false
		if all || checkConfig {
			runConfigCheck(out)
		}
		if all || checkSettings {
			failed = !runSettingsCheck(out, root) || failed
		}
		if all || checkFiles {
			failed = !runFilesCheck(out, root) || failed
		}

		if failed {
			return errors.New("doctor found problems")
		}
		return nil
	},
}

func runConfigCheck(out io.Writer) {
	fmt.Fprintln(out, "Config check:")
	path := config.FilePath()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "  [INFO] %s not found, using defaults\n", path)
	} else {
		fmt.Fprintf(out, "  [ OK ] %s\n", path)
	}
	for _, key := range config.Keys() {
		if env := branding.EnvVar(key); os.Getenv(env) != "" {
			fmt.Fprintf(out, "  [INFO] %s overridden by %s\n", key, env)
		}
		v := config.Get(key)
		if v == "" {
			continue
		}
		if err := config.Check(key, v); err != nil {
			fmt.Fprintf(out, "  [WARN] %v; the default is used\n", err)
		}
	}
}

func runSettingsCheck(out io.Writer, root string) bool {
	fmt.Fprintln(out, "Settings check:")

	s, err := settings.Load(root)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(out, "  [INFO] No %s; run '%s init' to create one\n", branding.SettingsFile(), rootCmd.Name())
		return true
	}

	var cfgErr *settings.ConfigError
	if errors.As(err, &cfgErr) {
		fmt.Fprintf(out, "  [FAIL] %s is invalid\n", branding.SettingsFile())
		if len(cfgErr.Issues) == 0 {
			fmt.Fprintf(out, "         %v\n", cfgErr.Err)
		}
		for _, issue := range cfgErr.Issues {
			fmt.Fprintf(out, "         %s\n", issue)
		}
		return false
	}
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}

	fmt.Fprintf(out, "  [ OK ] %s is valid (version %s)\n", branding.SettingsFile(), s.Version)
	return true
}

func runFilesCheck(out io.Writer, root string) bool {
	fmt.Fprintln(out, "Instruction files check:")

	report, err := eng.Validate(root)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}
	if len(report.Files) == 0 {
		fmt.Fprintln(out, "  [WARN] No instruction files found")
		return true
	}

	ok := true
	for _, path := range report.Files {
		issues := report.Issues[path]
		if len(issues) == 0 {
			fmt.Fprintf(out, "  [ OK ] %s\n", relTo(root, path))
			continue
		}
		ok = false
		fmt.Fprintf(out, "  [FAIL] %s\n", relTo(root, path))
		for _, issue := range issues {
			fmt.Fprintf(out, "         %s\n", issue)
		}
	}
	return ok
}
