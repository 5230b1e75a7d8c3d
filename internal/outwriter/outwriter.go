// Package outwriter has output and writer logic.
package outwriter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
	"go.uber.org/zap"
)

// OutWriter writes report files and the terminal summary for every date outcome.
// It implements contract.OutcomeSink.
type OutWriter struct {
	cfg     *contract.Config
	stdout  io.Writer
	written []string
}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter(cfg *contract.Config) *OutWriter {
	return &OutWriter{cfg: cfg, stdout: os.Stdout}
}

// WithStdout redirects the terminal summary, mainly for tests.
func (ow *OutWriter) WithStdout(w io.Writer) *OutWriter {
	ow.stdout = w
	return ow
}

// Written returns every file written so far.
func (ow *OutWriter) Written() []string {
	return ow.written
}

// Consume writes the report files of a compared date and prints its summary.
// Skipped dates only print a notice.
func (ow *OutWriter) Consume(_ context.Context, _ string, outcome schema.DateOutcome) error {
	if !outcome.Compared() {
		return PrintSkipped(ow.stdout, outcome, ow.cfg)
	}
	paths, err := WriteReportFiles(*outcome.Report, ow.cfg)
	ow.written = append(ow.written, paths...)
	if err != nil {
		return err
	}
	return PrintSummary(ow.stdout, *outcome.Report, ow.cfg)
}

// ReportPath returns <save-path>/<tenant>@<date>_report.<ext>.
func ReportPath(savePath, tenant, date string, mode schema.OutputMode) string {
	return filepath.Join(savePath, fmt.Sprintf("%s@%s_report.%s", tenant, date, mode.Extension()))
}

// SupplementaryPath returns <save-path>/<tenant>@<date>_supplementary_report.txt.
func SupplementaryPath(savePath, tenant, date string) string {
	return filepath.Join(savePath, fmt.Sprintf("%s@%s_supplementary_report.txt", tenant, date))
}

// WriteReportFiles writes the report in the configured encoding and, except for html
// which embeds them, the supplementary missing-endpoint and error tables.
func WriteReportFiles(report schema.Report, cfg *contract.Config) ([]string, error) {
	if err := os.MkdirAll(cfg.SavePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save path %s: %w", cfg.SavePath, err)
	}

	var written []string
	reportPath := ReportPath(cfg.SavePath, report.Tenant, report.Date, cfg.Output)
	if err := writeWithFile(reportPath, func(w io.Writer) error {
		return WriteReport(w, report, cfg)
	}, "report saved"); err != nil {
		return written, err
	}
	written = append(written, reportPath)

	if cfg.Output == schema.HTMLOut {
		return written, nil
	}

	suppPath := SupplementaryPath(cfg.SavePath, report.Tenant, report.Date)
	if err := writeWithFile(suppPath, func(w io.Writer) error {
		return WriteSupplementary(w, report, cfg)
	}, "supplementary report saved"); err != nil {
		return written, err
	}
	return append(written, suppPath), nil
}

// WriteReport encodes the report, dispatching based on the output format configured.
func WriteReport(w io.Writer, report schema.Report, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, report); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVReport(w, report); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.HTMLOut:
		if err := writeHTMLReport(w, report, fmtFloat); err != nil {
			return fmt.Errorf("error writing HTML output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeParquetReport(w, report); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	case schema.PromOut:
		if err := writePromReport(w, report); err != nil {
			return fmt.Errorf("error writing Prometheus output: %w", err)
		}
	default:
		return writeEndpointTable(w, report, cfg)
	}
	return nil
}

// logSaved reports a written file.
func logSaved(msg, path string) {
	zap.L().Info(msg, zap.String("path", path))
}
