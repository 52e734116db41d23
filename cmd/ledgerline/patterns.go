package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ledgerline/ledgerline/internal/cli"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/spf13/cobra"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Inspect and maintain the learned pattern store",
	}

	cmd.AddCommand(listPatternsCmd())
	cmd.AddCommand(exportPatternsCmd())
	cmd.AddCommand(importPatternsCmd())
	cmd.AddCommand(deletePatternCmd())

	return cmd
}

func listPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all learned patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.AllPatterns(ctx)
			if err != nil {
				return fmt.Errorf("failed to list patterns: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No patterns learned yet. Use 'ledgerline learn' to add some."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Key"),
				cli.TableHeaderStyle.Render("Category"),
				cli.TableHeaderStyle.Render("Last Updated"))
			for _, entry := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n",
					entry.Key, entry.Category, entry.LastUpdated.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func exportPatternsCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all patterns as JSON",
		Long:  `Write the full pattern set as JSON for backup, inspection, or migration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.AllPatterns(ctx)
			if err != nil {
				return fmt.Errorf("failed to export patterns: %w", err)
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			encoder := json.NewEncoder(w)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(patternExport{Patterns: entries}); err != nil {
				return fmt.Errorf("failed to encode patterns: %w", err)
			}

			if out != "" {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d patterns to %s", len(entries), out)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output file (default: stdout)")

	return cmd
}

func importPatternsCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import patterns from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			var export patternExport
			if err := json.NewDecoder(f).Decode(&export); err != nil {
				return fmt.Errorf("failed to decode %s: %w", args[0], err)
			}
			if len(export.Patterns) == 0 {
				return fmt.Errorf("%s contains no patterns", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if replace {
				if err := store.ReplacePatterns(ctx, export.Patterns); err != nil {
					return fmt.Errorf("failed to reload patterns: %w", err)
				}
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Replaced pattern store with %d patterns", len(export.Patterns))))
				return nil
			}

			written, err := store.SavePatterns(ctx, export.Patterns)
			if err != nil {
				return fmt.Errorf("failed to import patterns: %w", err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d patterns", written)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace the whole store instead of merging")

	return cmd
}

func deletePatternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a learned pattern by its normalized key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeletePattern(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete pattern %q: %w", args[0], err)
			}

			fmt.Println(cli.FormatSuccess("Deleted " + args[0]))
			return nil
		},
	}
}

// patternExport is the JSON shape of a pattern store backup.
type patternExport struct {
	Patterns []model.PatternEntry `json:"patterns"`
}
