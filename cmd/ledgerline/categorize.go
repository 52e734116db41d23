package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/ledgerline/ledgerline/internal/cli"
	"github.com/ledgerline/ledgerline/internal/engine"
	"github.com/ledgerline/ledgerline/internal/export"
	"github.com/ledgerline/ledgerline/internal/ingest"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// progressBarThreshold is the batch size above which categorize shows a
// progress bar.
const progressBarThreshold = 25

func categorizeCmd() *cobra.Command {
	var (
		format    string
		sourceTag string
		groupBy   string
		csvOut    string
		seedRules bool
	)

	cmd := &cobra.Command{
		Use:   "categorize <file>",
		Short: "Categorize transactions from a statement file",
		Long: `Parse a statement file (plain statement text, CSV, or OFX/QFX),
categorize every transaction against the learned pattern store, and report
the high-confidence and needs-review partitions with per-category totals.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			txns, ingestSkips, err := ingestFile(args[0], format, sourceTag)
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				return fmt.Errorf("no transactions found in %s", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var progress func(done, total int)
			if len(txns) >= progressBarThreshold {
				bar := progressbar.Default(int64(len(txns)), "categorizing")
				progress = func(_, _ int) { _ = bar.Add(1) }
			}

			eng, err := initEngine(store, seedRules, progress)
			if err != nil {
				return err
			}

			if groupBy != "" {
				keyFn, err := groupKeyFunc(groupBy)
				if err != nil {
					return err
				}
				results, err := eng.ProcessGrouped(ctx, txns, keyFn)
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(results))
				for key := range results {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					fmt.Println(cli.FormatTitle(fmt.Sprintf("%s %s", groupBy, key)))
					printResult(results[key], nil)
				}
				printSkips(ingestSkips, nil)
				return nil
			}

			result, err := eng.Process(ctx, txns)
			if err != nil {
				return err
			}
			printResult(result, ingestSkips)

			if csvOut != "" {
				if err := writeResultCSV(csvOut, result); err != nil {
					return err
				}
				fmt.Println(cli.FormatSuccess("Wrote " + csvOut))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "input format: text, csv, or ofx (default: by file extension)")
	cmd.Flags().StringVar(&sourceTag, "source", "", "origin label attached to every transaction")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "partition results by a key (month)")
	cmd.Flags().StringVar(&csvOut, "csv", "", "write classified transactions to a CSV file")
	cmd.Flags().BoolVar(&seedRules, "seed-rules", false, "fall back to built-in keyword rules for unknown merchants")

	return cmd
}

// ingestFile parses a statement file by explicit format or extension.
func ingestFile(path, format, sourceTag string) ([]model.Transaction, []model.SkippedRecord, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			format = "csv"
		case ".ofx", ".qfx":
			format = "ofx"
		default:
			format = "text"
		}
	}
	if sourceTag == "" {
		sourceTag = filepath.Base(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch format {
	case "csv":
		return ingest.ReadTransactionsCSV(f, sourceTag)
	case "ofx":
		txns, err := ingest.ParseOFX(f, sourceTag)
		return txns, nil, err
	case "text":
		txns, err := ingest.ParseStatementText(f, sourceTag)
		return txns, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown input format %q", format)
	}
}

// groupKeyFunc resolves a --group-by value to a partition key function.
func groupKeyFunc(groupBy string) (engine.GroupKeyFunc, error) {
	switch groupBy {
	case "month":
		return engine.MonthKey, nil
	default:
		return nil, fmt.Errorf("unknown group-by key %q (supported: month)", groupBy)
	}
}

// printResult renders one batch result to the terminal.
func printResult(result *model.BatchResult, ingestSkips []model.SkippedRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	if len(result.HighConfidence) > 0 {
		fmt.Println(cli.FormatTitle("Categorized"))
		printTransactions(w, result.HighConfidence)
	}

	if len(result.NeedsReview) > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d transactions need review", len(result.NeedsReview))))
		printTransactions(w, result.NeedsReview)
	}

	if len(result.Summary) > 0 {
		fmt.Println(cli.FormatTitle("Summary"))
		fmt.Fprintf(w, "%s\t%s\n",
			cli.TableHeaderStyle.Render("Category"),
			cli.TableHeaderStyle.Render("Total"))
		for _, row := range result.Summary.Sorted() {
			fmt.Fprintf(w, "%s\t$%s\n", row.Category, row.Total.StringFixed(2))
		}
		_ = w.Flush()
	}

	printSkips(ingestSkips, result.Skipped)
}

func printSkips(ingestSkips, processSkips []model.SkippedRecord) {
	if total := len(ingestSkips) + len(processSkips); total > 0 {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d malformed records skipped", total)))
	}
}

func printTransactions(w *tabwriter.Writer, txns []model.ClassifiedTransaction) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("Date"),
		cli.TableHeaderStyle.Render("Description"),
		cli.TableHeaderStyle.Render("Amount"),
		cli.TableHeaderStyle.Render("Category"),
		cli.TableHeaderStyle.Render("Confidence"))
	for _, txn := range txns {
		category := txn.Category
		if category == "" {
			category = cli.SubtleStyle.Render("(uncategorized)")
		}
		fmt.Fprintf(w, "%s\t%s\t$%s\t%s\t%.2f\n",
			txn.Date, txn.Description, txn.Amount.StringFixed(2), category, txn.Confidence)
	}
	_ = w.Flush()
}

// writeResultCSV exports a batch result to a CSV file.
func writeResultCSV(path string, result *model.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return export.WriteResultCSV(f, result)
}
