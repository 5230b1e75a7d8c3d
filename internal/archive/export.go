package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/internal/parquet"
	"github.com/cecompare/cecompare/schema"
)

// ErrEmptyArchive is returned when exporting an archive without runs.
var ErrEmptyArchive = errors.New("no archived runs found to export")

// ExportPaths returns the two Parquet files written for an export prefix.
func ExportPaths(outputFile string) (runsFile, deltasFile string) {
	return outputFile + ".runs.parquet", outputFile + ".endpoint_deltas.parquet"
}

// Export writes all archived runs and endpoint deltas to Parquet files.
func Export(ctx context.Context, store contract.ArchiveStore, outputFile string, out io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get archive status: %w", err)
	}
	if status.TotalRuns == 0 {
		return ErrEmptyArchive
	}

	_, _ = fmt.Fprintf(out, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(out, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(out, "Total endpoint records: %d\n", status.TableSizes[endpointDeltasTable])

	runs, err := store.GetAllRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	deltas, err := store.GetAllEndpointDeltas(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve endpoint deltas: %w", err)
	}

	runsFile, deltasFile := ExportPaths(outputFile)
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d runs to: %s\n", len(runs), runsFile)

	if err := parquet.WriteEndpointDeltasParquet(parquet.ConvertEndpointDeltaRecords(deltas), deltasFile); err != nil {
		return fmt.Errorf("failed to write endpoint deltas: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d endpoint records to: %s\n", len(deltas), deltasFile)
	return nil
}

// PrintStatus prints archive status information.
func PrintStatus(out io.Writer, status schema.ArchiveStatus) {
	_, _ = fmt.Fprintf(out, "Archive Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(out, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(out, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(out, "Skipped Runs: %d\n", status.SkippedRuns)
		_, _ = fmt.Fprintf(out, "Last Run ID: %d\n", status.LastRunID)
		_, _ = fmt.Fprintf(out, "Last Run: %s\n", status.LastRunTime.Format(contract.DateTimeFormat))
		_, _ = fmt.Fprintf(out, "Oldest Run: %s\n", status.OldestRunTime.Format(contract.DateTimeFormat))
	}
	_, _ = fmt.Fprintln(out, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(out, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
