// REDLINE - batched ingestion of market-data files into DuckDB.
// Normalizes Stooq TXT, CSV, JSON, Parquet and Feather exports into one
// canonical table.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "redline",
	Short: "REDLINE - load market-data files into a DuckDB table",
	Long: `REDLINE ingests large collections of tabular market-data files
(Stooq TXT exports, CSV, JSON, Parquet, Feather, DuckDB) into the canonical
tickers_data table of an embedded DuckDB database.

Files are processed in fixed-size batches to bound memory, with per-file
error isolation and progress reporting.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}
