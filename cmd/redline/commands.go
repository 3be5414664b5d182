package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/redline/redline/pkg/ingest"
	"github.com/redline/redline/pkg/store"
)

// Styles (Swiss minimal, red accent)
var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66")).Bold(true)
)

var describeDatabase string

var describeCmd = &cobra.Command{
	Use:   "describe [table]",
	Short: "Show schema and row count of a persisted table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if describeDatabase != "" {
			cfg.Storage.Database = describeDatabase
		}
		table := cfg.Storage.Table
		if len(args) == 1 {
			table = args[0]
		}

		st, err := store.Open(cfg.Storage.Database)
		if err != nil {
			return err
		}
		defer st.Close()

		info, err := st.Describe(context.Background(), table)
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render(table))
		for _, col := range info.Columns {
			fmt.Printf("  %-12s %s\n", col.Name, mutedStyle.Render(col.Type))
		}
		fmt.Printf("\n  %s %d\n", mutedStyle.Render("rows:"), info.RowCount)
		return nil
	},
}

var queryDatabase string

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a read query against the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if queryDatabase != "" {
			cfg.Storage.Database = queryDatabase
		}

		st, err := store.Open(cfg.Storage.Database)
		if err != nil {
			return err
		}
		defer st.Close()

		columns, rows, err := st.Query(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Println(mutedStyle.Render(strings.Join(columns, "\t")))
		for _, row := range rows {
			fmt.Println(strings.Join(row, "\t"))
		}
		fmt.Println(mutedStyle.Render(fmt.Sprintf("(%d rows)", len(rows))))
		return nil
	},
}

func init() {
	describeCmd.Flags().StringVar(&describeDatabase, "db", "", "DuckDB database file (default from config)")
	queryCmd.Flags().StringVar(&queryDatabase, "db", "", "DuckDB database file (default from config)")
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(queryCmd)
}

// printReport renders the run summary.
func printReport(report *ingest.Report, database string) {
	status := okStyle.Render("✓ Completed")
	if report.Canceled {
		status = accentStyle.Render("✗ Canceled")
	}

	fmt.Println(mutedStyle.Render("  ─────────────────────────────────────"))
	fmt.Printf("  %s %s\n", status, mutedStyle.Render("run "+report.RunID))
	fmt.Printf("  %s %d   %s %d   %s %d   %s %d\n",
		mutedStyle.Render("files:"), report.TotalFiles,
		mutedStyle.Render("ok:"), report.Succeeded,
		mutedStyle.Render("failed:"), report.Failed,
		mutedStyle.Render("excluded:"), len(report.Excluded))
	fmt.Printf("  %s %d %s %s\n",
		mutedStyle.Render("rows written:"), report.RowsWritten,
		mutedStyle.Render("to"), database)

	if errs := report.FileErrors(); len(errs) > 0 {
		fmt.Println(mutedStyle.Render("  ─────────────────────────────────────"))
		limit := len(errs)
		if limit > 10 {
			limit = 10
		}
		for _, fe := range errs[:limit] {
			fmt.Printf("  %s %s: %v\n", accentStyle.Render("!"), fe.Path, fe.Err)
		}
		if len(errs) > limit {
			fmt.Println(mutedStyle.Render(fmt.Sprintf("  … and %d more", len(errs)-limit)))
		}
	}
	fmt.Println(mutedStyle.Render("  ─────────────────────────────────────"))
}
