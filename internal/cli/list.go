package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/Nas4146/brief/internal/engine"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered instruction files",
	Long:  `List the instruction files found in the project, in priority order.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	entries, err := eng.ListFiles(root)
	if err != nil {
		return fmt.Errorf("listing instruction files: %w", err)
	}

	if listJSON {
		return printListJSON(cmd, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No instruction files found. Run '%s init --create AGENTS.md' to start one.\n", rootCmd.Name())
		return nil
	}
	return printListTable(cmd, entries)
}

func printListTable(cmd *cobra.Command, entries []engine.FileEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FILE\tTOOL\tFORMAT\tSIZE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.RelPath, e.Tool, e.Format, printer.Sprintf("%d B", e.Size))
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []engine.FileEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
