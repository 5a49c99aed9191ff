package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/drillz/internal/topics"
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Manage topics and their question sets",
}

var topicImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import topics from YAML or JSON files",
	Long:  "Import replaces each topic's question set. Workouts that reference removed questions skip them the next time they are opened.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		for _, path := range args {
			t, err := topics.ParseFile(path)
			if err != nil {
				return err
			}
			if err := a.Importer.Import(cmd.Context(), t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%d questions)\n", t.ID, len(t.Questions))
		}
		return nil
	},
}

var topicListCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		list, err := a.Catalog.Topics(cmd.Context())
		if err != nil {
			return fmt.Errorf("list topics: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No topics imported.")
			return nil
		}
		fmt.Fprintf(out, "%-24s  %s\n", "ID", "Title")
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for _, t := range list {
			fmt.Fprintf(out, "%-24s  %s\n", t.ID, t.Title)
		}
		return nil
	},
}

func init() {
	topicCmd.AddCommand(topicImportCmd)
	topicCmd.AddCommand(topicListCmd)
}
