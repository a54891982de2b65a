package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Nas4146/brief/internal/projectctx"
	"github.com/spf13/cobra"
)

var contextJSON bool

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show the detected project context",
	Long: `Show the languages, frameworks and test tools of the project. Metadata declared
in the project settings is shown instead of detection when present.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}

		ctx := eng.AnalyzeContext(root)
		if contextJSON {
			data, err := json.MarshalIndent(ctx, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling context: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		printContext(cmd.OutOrStdout(), ctx)
		return nil
	},
}

func init() {
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(contextCmd)
}

func printContext(out io.Writer, ctx projectctx.Context) {
	fmt.Fprintf(out, "%s %s\n", headerStyle.Render("Project context"), mutedStyle.Render("("+ctx.Source+")"))
	rows := []struct {
		label string
		names []string
	}{
		{"Languages", ctx.Languages},
		{"Frameworks", ctx.Frameworks},
		{"Test frameworks", ctx.TestFrameworks},
		{"Package managers", ctx.PackageManagers},
	}
	for _, row := range rows {
		value := mutedStyle.Render("none")
		if len(row.names) > 0 {
			value = strings.Join(row.names, ", ")
		}
		fmt.Fprintf(out, "  %-17s %s\n", row.label+":", value)
	}
}
