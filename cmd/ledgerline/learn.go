package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledgerline/ledgerline/internal/cli"
	"github.com/ledgerline/ledgerline/internal/ingest"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/spf13/cobra"
)

func learnCmd() *cobra.Command {
	var (
		fromCSV string
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "learn [<description> <category>]",
		Short: "Record confirmed description-to-category corrections",
		Long: `Feed human-confirmed categorizations back into the pattern store.
Each correction immediately becomes authoritative for its normalized
merchant key; the next categorize run returns it with confidence 1.0.

Corrections come either as a single description/category argument pair or
in bulk from a CSV file of description,category records.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			corrections, err := collectCorrections(args, fromCSV)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if strict {
				if err := checkAgainstRegistry(cmd, store, corrections); err != nil {
					return err
				}
			}

			eng, err := initEngine(store, false, nil)
			if err != nil {
				return err
			}

			written, err := eng.Learn(ctx, corrections)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Learned %d patterns", written)))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromCSV, "from-csv", "", "CSV file of description,category pairs")
	cmd.Flags().BoolVar(&strict, "strict-categories", false, "reject categories missing from the registry")

	return cmd
}

// collectCorrections merges argument and CSV input into one correction
// list.
func collectCorrections(args []string, fromCSV string) ([]model.Correction, error) {
	var corrections []model.Correction

	if len(args) == 2 {
		corrections = append(corrections, model.Correction{
			Description: args[0],
			Category:    args[1],
		})
	} else if len(args) == 1 {
		return nil, fmt.Errorf("learn needs both a description and a category")
	}

	if fromCSV != "" {
		f, err := os.Open(fromCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fromCSV, err)
		}
		defer func() { _ = f.Close() }()

		fromFile, err := ingest.ReadCorrectionsCSV(f)
		if err != nil {
			return nil, err
		}
		corrections = append(corrections, fromFile...)
	}

	if len(corrections) == 0 {
		return nil, fmt.Errorf("no corrections given: pass a description and category, or --from-csv")
	}

	return corrections, nil
}

// checkAgainstRegistry rejects corrections whose category is not in the
// registry. Without --strict-categories any non-empty category string is
// accepted, so the category set can evolve ahead of the registry.
func checkAgainstRegistry(cmd *cobra.Command, store categoryLister, corrections []model.Correction) error {
	categories, err := store.GetCategories(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load category registry: %w", err)
	}

	known := make(map[string]bool, len(categories))
	for _, category := range categories {
		known[strings.ToLower(category.Name)] = true
	}

	for _, correction := range corrections {
		if !known[strings.ToLower(strings.TrimSpace(correction.Category))] {
			return fmt.Errorf("category %q is not in the registry (drop --strict-categories to allow it)", correction.Category)
		}
	}
	return nil
}
