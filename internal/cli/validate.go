package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/Nas4146/brief/internal/validator"
	"github.com/Nas4146/brief/internal/watch"
	"github.com/spf13/cobra"
)

// errInconsistent is returned when validation finds problems, so the
// process exits non-zero.
var errInconsistent = errors.New("instruction files are not consistent")

var (
	validateWatch bool
	validateJSON  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that all instruction files carry the same instructions",
	Long: `Compare the instructions of every discovered file. Instructions match when
their normalized text is identical. Files missing instructions found elsewhere,
and structural problems such as empty sections, are reported.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVarP(&validateWatch, "watch", "w", false, "Re-validate whenever an instruction file changes")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output the report as JSON")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	ok, err := validateOnce(out, root)
	if err != nil {
		return err
	}
	if !validateWatch {
		if !ok {
			return errInconsistent
		}
		return nil
	}

	w, err := watch.New(root, eng.Patterns(root), watch.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("starting watch: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Fprintln(out, mutedStyle.Render("Watching for changes. Press Ctrl+C to stop."))
	return w.Run(ctx, func(changed []string) {
		fmt.Fprintf(out, "\n%s %s changed\n", mutedStyle.Render(time.Now().Format("15:04:05")), plural(len(changed), "file"))
		if _, err := validateOnce(out, root); err != nil {
			fmt.Fprintf(out, "%s %v\n", errorStyle.Render("Error:"), err)
		}
	})
}

// validateOnce prints one report and reports whether it is clean.
func validateOnce(out io.Writer, root string) (bool, error) {
	report, err := eng.Validate(root)
	if err != nil {
		return false, fmt.Errorf("validating: %w", err)
	}

	if validateJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return false, fmt.Errorf("marshaling report: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		printReport(out, root, report)
	}

	return report.Consistent() && !report.HasIssues(), nil
}

func printReport(out io.Writer, root string, r *validator.Report) {
	if len(r.Files) == 0 {
		fmt.Fprintln(out, "No instruction files found.")
		return
	}

	fmt.Fprintf(out, "Checked %s with %s.\n",
		plural(len(r.Files), "file"), plural(len(r.Texts), "distinct instruction"))

	for _, path := range r.Files {
		missing := r.Missing[path]
		issues := r.Issues[path]
		rel := relTo(root, path)

		if len(missing) == 0 && len(issues) == 0 {
			fmt.Fprintf(out, "  %s %s\n", successStyle.Render("✓"), rel)
			continue
		}

		fmt.Fprintf(out, "  %s %s\n", errorStyle.Render("✗"), rel)
		for _, norm := range missing {
			fmt.Fprintf(out, "      missing: %s\n", r.Texts[norm])
		}
		for _, issue := range issues {
			fmt.Fprintf(out, "      %s %s\n", warningStyle.Render("!"), issue)
		}
	}

	if r.Consistent() {
		fmt.Fprintln(out, successStyle.Render("All files carry the same instructions."))
	} else {
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("%s missing instructions. Run '%s update' to add them.",
			plural(len(r.Missing), "file"), rootCmd.Name())))
	}
}
