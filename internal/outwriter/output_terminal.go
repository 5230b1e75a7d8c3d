package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
)

// PrintSummary prints the terminal summary of a compared date: missing endpoints,
// the error row and the endpoints whose deltas reached the threshold.
func PrintSummary(w io.Writer, report schema.Report, cfg *contract.Config) error {
	availability, reliability, missing, _, header := colorFuncs(cfg)

	if _, err := fmt.Fprintf(w, "\n########################################\n\t\t\tDate: %s\n\n", header(report.Date)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, missing("Endpoints that were not found in both engines")); err != nil {
		return err
	}
	if err := writeMissingTable(w, report, cfg); err != nil {
		return err
	}
	if err := writeErrorTable(w, report, cfg); err != nil {
		return err
	}

	threshold := strconv.FormatFloat(report.Threshold, 'f', -1, 64)
	if _, err := fmt.Fprintf(w, "\nEndpoints with a/r higher than the threshold (%s).\n", threshold); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "---------------------------------------------"); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\nAvailability Difference"); err != nil {
		return err
	}
	for _, e := range report.Exceedances.Availability {
		if _, err := fmt.Fprintln(w, availability(formatEntry(e))); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "\nReliability Difference"); err != nil {
		return err
	}
	for _, e := range report.Exceedances.Reliability {
		if _, err := fmt.Fprintln(w, reliability(formatEntry(e))); err != nil {
			return err
		}
	}
	return nil
}

// PrintSkipped prints the notice for a date that could not be compared.
func PrintSkipped(w io.Writer, outcome schema.DateOutcome, cfg *contract.Config) error {
	_, _, _, skipped, _ := colorFuncs(cfg)
	_, err := fmt.Fprintln(w, skipped(fmt.Sprintf("Comparison could not run for date: %s: %s", outcome.Date, outcome.Reason)))
	return err
}

func formatEntry(e schema.ThresholdEntry) string {
	return fmt.Sprintf("%s - %s", e.Key, strconv.FormatFloat(e.Delta, 'f', -1, 64))
}
