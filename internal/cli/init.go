package cli

import (
	"fmt"
	"path/filepath"

	"github.com/Nas4146/brief/internal/branding"
	"github.com/Nas4146/brief/internal/discovery"
	"github.com/Nas4146/brief/internal/engine"
	"github.com/Nas4146/brief/internal/scaffold"
	"github.com/Nas4146/brief/internal/settings"
	"github.com/spf13/cobra"
)

var (
	initCreate string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up brief for a project",
	Long: `Discover the project's instruction files, detect its context and write
` + branding.SettingsFile() + `. Use --create to start a new instruction file from a template.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initCreate, "create", "", "Create a starter instruction file (e.g. AGENTS.md, .cursorrules)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing project settings")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	ctx := eng.AnalyzeContext(root)

	if initCreate != "" {
		rel := filepath.ToSlash(filepath.Clean(initCreate))
		if !discovery.IsInstructionFile(rel, eng.Patterns(root)) {
			fmt.Fprintf(out, "%s %s does not match the discovery patterns and will not be synchronized.\n",
				warningStyle.Render("!"), rel)
		}

		result, err := scaffold.Generate(root, rel, scaffold.NewData(root, rel, ctx))
		if err != nil {
			return fmt.Errorf("creating %s: %w", rel, err)
		}
		fmt.Fprintf(out, "%s Created %s\n", successStyle.Render("✓"), rel)
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "    %s %s\n", warningStyle.Render("!"), w)
		}
	}

	files := eng.Discover(root, nil)
	fmt.Fprintf(out, "Found %s.\n", plural(len(files), "instruction file"))
	for _, f := range files {
		fmt.Fprintf(out, "  %s\n", relTo(root, f))
	}
	printContext(out, ctx)

	if len(files) == 0 {
		fmt.Fprintf(out, "Run '%s init --create AGENTS.md' to start one.\n", rootCmd.Name())
		return engine.ErrNoInstructionFiles
	}

	if settings.Exists(root) && !initForce {
		fmt.Fprintf(out, "%s already exists; use --force to overwrite it.\n", branding.SettingsFile())
		return nil
	}

	if err := settings.Save(root, settings.New(eng.Patterns(root), ctx)); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Wrote %s\n", successStyle.Render("✓"), branding.SettingsFile())
	return nil
}
