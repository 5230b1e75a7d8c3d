package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	if file == os.Stdout {
		return writer(file)
	}

	if err := writer(file); err != nil {
		_ = file.Close()
		_ = os.Remove(outputFile)
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", outputFile, err)
	}
	logSaved(successMsg, outputFile)
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatter creates the float formatter shared across output types.
func createFormatter(precision int) func(float64) string {
	return func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
}

// keysByAvailabilityDelta orders endpoints by D_a ascending; unavailable deltas go last.
func keysByAvailabilityDelta(report schema.Report) []schema.EndpointKey {
	keys := report.SortedKeys()
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := report.Endpoints[keys[i]].DA, report.Endpoints[keys[j]].DA
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Valid && a.Value < b.Value
	})
	return keys
}

// averageErrorText renders the summary average or explains its absence.
func averageErrorText(summary schema.Summary, fmtFloat func(float64) string) string {
	if summary.AverageError == nil {
		return "no comparable endpoints"
	}
	return fmtFloat(*summary.AverageError)
}

// colorFuncs returns sprint functions that color only when enabled.
func colorFuncs(cfg *contract.Config) (availability, reliability, missing, skipped, header func(...any) string) {
	if !cfg.UseColors {
		return fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint
	}
	return contract.AvailabilityColor.SprintFunc(),
		contract.ReliabilityColor.SprintFunc(),
		contract.MissingColor.SprintFunc(),
		contract.SkippedColor.SprintFunc(),
		contract.HeaderColor.SprintFunc()
}
