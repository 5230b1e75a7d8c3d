// Package parquet provides data structures and functions for exporting comparison
// reports and archived runs to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cecompare/cecompare/schema"
	"github.com/parquet-go/parquet-go"
)

// EndpointRow is one compared endpoint of a report.
type EndpointRow struct {
	Tenant   string   `parquet:"tenant,snappy"`
	Date     string   `parquet:"date,snappy"`
	Endpoint string   `parquet:"endpoint,snappy"`
	AProd    *float64 `parquet:"a_prod,optional,snappy"`
	ADevel   *float64 `parquet:"a_devel,optional,snappy"`
	RProd    *float64 `parquet:"r_prod,optional,snappy"`
	RDevel   *float64 `parquet:"r_devel,optional,snappy"`
	DA       *float64 `parquet:"d_a,optional,snappy"`
	DR       *float64 `parquet:"d_r,optional,snappy"`
}

// Run represents a single archived date outcome.
// This struct maps to the cecompare_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	Tenant string `parquet:"tenant,snappy"`
	Date   string `parquet:"date,snappy"`

	// Status is compared or skipped
	Status string `parquet:"status,snappy"`

	// Reason explains a skipped date (nullable)
	Reason *string `parquet:"reason,optional,snappy"`

	Threshold    float64 `parquet:"threshold,snappy"`
	TotalError   float64 `parquet:"total_error,snappy"`
	Comparisons  int32   `parquet:"comparisons,snappy"`
	MissingCount int32   `parquet:"missing_count,snappy"`

	// AverageError is null when nothing could be compared
	AverageError *float64 `parquet:"average_error,optional,snappy"`

	// CreatedAt is when the outcome was archived (stored as TIMESTAMP with nanosecond precision)
	CreatedAt time.Time `parquet:"created_at,snappy"`
}

// EndpointDelta represents one compared endpoint of an archived run.
// This struct maps to the cecompare_endpoint_deltas database table.
type EndpointDelta struct {
	RunID    int64    `parquet:"run_id,snappy"`
	Endpoint string   `parquet:"endpoint,snappy"`
	AProd    *float64 `parquet:"a_prod,optional,snappy"`
	ADevel   *float64 `parquet:"a_devel,optional,snappy"`
	RProd    *float64 `parquet:"r_prod,optional,snappy"`
	RDevel   *float64 `parquet:"r_devel,optional,snappy"`
	DA       *float64 `parquet:"d_a,optional,snappy"`
	DR       *float64 `parquet:"d_r,optional,snappy"`
}

// writeRows writes rows with a schema inferred from the struct tags of T.
func writeRows[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet data: %w", err)
	}
	return nil
}

// writeFile creates outputPath and writes rows to it.
func writeFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeRows(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteEndpointRows writes the endpoint rows of a report to w.
func WriteEndpointRows(w io.Writer, rows []EndpointRow) error {
	return writeRows(w, rows)
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteEndpointDeltasParquet writes a slice of EndpointDelta structs to a Parquet file.
func WriteEndpointDeltasParquet(data []EndpointDelta, outputPath string) error {
	return writeFile(data, outputPath)
}

// ReportRows flattens a report into endpoint rows ordered by key.
func ReportRows(report schema.Report) []EndpointRow {
	keys := report.SortedKeys()
	rows := make([]EndpointRow, 0, len(keys))
	for _, key := range keys {
		rec := report.Endpoints[key]
		rows = append(rows, EndpointRow{
			Tenant:   report.Tenant,
			Date:     report.Date,
			Endpoint: string(key),
			AProd:    rec.AProd.Ptr(),
			ADevel:   rec.ADevel.Ptr(),
			RProd:    rec.RProd.Ptr(),
			RDevel:   rec.RDevel.Ptr(),
			DA:       rec.DA.Ptr(),
			DR:       rec.DR.Ptr(),
		})
	}
	return rows
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:        record.RunID,
			Tenant:       record.Tenant,
			Date:         record.Date,
			Status:       record.Status,
			Reason:       record.Reason,
			Threshold:    record.Threshold,
			TotalError:   record.TotalError,
			Comparisons:  record.Comparisons,
			MissingCount: record.MissingCount,
			AverageError: record.AverageError,
			CreatedAt:    record.CreatedAt,
		}
	}
	return result
}

// ConvertEndpointDeltaRecords converts schema.EndpointDeltaRecord to EndpointDelta for Parquet export.
func ConvertEndpointDeltaRecords(records []schema.EndpointDeltaRecord) []EndpointDelta {
	result := make([]EndpointDelta, len(records))
	for i, record := range records {
		result[i] = EndpointDelta{
			RunID:    record.RunID,
			Endpoint: record.Endpoint,
			AProd:    record.AProd,
			ADevel:   record.ADevel,
			RProd:    record.RProd,
			RDevel:   record.RDevel,
			DA:       record.DA,
			DR:       record.DR,
		}
	}
	return result
}
