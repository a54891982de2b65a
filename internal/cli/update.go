package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/Nas4146/brief/internal/engine"
	"github.com/Nas4146/brief/internal/inserter"
	"github.com/spf13/cobra"
)

var (
	updateYes       bool
	updatePreview   bool
	updateAffinity  string
	updateRationale string
)

var updateCmd = &cobra.Command{
	Use:   "update <instruction>",
	Short: "Add an instruction to every instruction file",
	Long: `Add an instruction to every discovered instruction file. Files that already
contain the instruction, or a close variant of it, are left alone. The
instruction goes under the section it belongs to, or under a fallback section
when none fits. A diff of each change is shown before anything is written.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "Skip confirmation prompt")
	updateCmd.Flags().BoolVar(&updatePreview, "preview", false, "Show the planned changes without writing")
	updateCmd.Flags().StringVar(&updateAffinity, "affinity", "", "Section kind the instruction belongs to ("+affinityNames()+")")
	updateCmd.Flags().StringVar(&updateRationale, "rationale", "", "Why the instruction is being added, recorded in the audit log")
	rootCmd.AddCommand(updateCmd)
}

// affinityNames lists the built-in affinities for help text.
func affinityNames() string {
	affs := inserter.Affinities()
	names := make([]string, len(affs))
	for i, a := range affs {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	plans, err := eng.PlanUpdate(root, strings.Join(args, " "),
		engine.WithAffinity(updateAffinity),
		engine.WithRationale(updateRationale),
	)
	if err != nil {
		return fmt.Errorf("planning update: %w", err)
	}
	if len(plans) == 0 {
		return engine.ErrNoInstructionFiles
	}

	inserted := 0
	for _, p := range plans {
		switch p.Outcome {
		case engine.OutcomeInserted:
			inserted++
			target := p.Section
			if p.Created {
				target += " (new section)"
			}
			fmt.Fprintf(out, "%s %s -> %s\n", successStyle.Render("+"), p.RelPath, target)
			fmt.Fprint(out, renderDiff(p.Diff))
		case engine.OutcomeSkippedDuplicate:
			fmt.Fprintf(out, "%s %s: already present", mutedStyle.Render("="), p.RelPath)
			if p.Match != nil {
				fmt.Fprintf(out, " as %q (%s)", p.Match.Instruction.Text, printer.Sprintf("%.0f%%", p.Match.Score*100))
			}
			fmt.Fprintln(out)
		case engine.OutcomeSkippedError:
			fmt.Fprintf(out, "%s %s: %v\n", errorStyle.Render("x"), p.RelPath, p.Err)
		}
	}

	if inserted == 0 {
		fmt.Fprintln(out, "Nothing to update.")
		return nil
	}
	if updatePreview {
		fmt.Fprintf(out, "%s would be updated.\n", plural(inserted, "file"))
		return nil
	}

	if !updateYes {
		fmt.Fprintf(out, "? Apply changes to %s? (Y/n) ", plural(inserted, "file"))
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if scanner.Scan() {
			answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
			if answer != "" && answer != "y" && answer != "yes" {
				fmt.Fprintln(out, "Update cancelled.")
				return nil
			}
		}
	}

	written, failed := 0, 0
	for _, r := range eng.ApplyUpdate(plans) {
		switch {
		case r.Written:
			written++
			fmt.Fprintf(out, "  ✓ %s\n", relTo(root, r.Path))
		case r.Err != nil:
			failed++
			fmt.Fprintf(out, "  ✗ %s: %v\n", relTo(root, r.Path), r.Err)
		}
	}

	fmt.Fprintf(out, "Updated %s.\n", plural(written, "file"))
	if failed > 0 {
		return fmt.Errorf("%s could not be updated", plural(failed, "file"))
	}
	return nil
}
