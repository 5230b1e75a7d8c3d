package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// reportHeader is the column layout shared by csv, html and text reports.
var reportHeader = []string{"Endpoint", "A_prod", "A_devel", "R_prod", "R_devel", "D_a", "D_r"}

// writeCSVReport writes one row per compared endpoint, ordered by D_a.
func writeCSVReport(w io.Writer, report schema.Report) error {
	return writeCSVWithHeader(w, reportHeader, func(cw *csv.Writer) error {
		for _, key := range keysByAvailabilityDelta(report) {
			rec := report.Endpoints[key]
			row := []string{
				string(key),
				rec.AProd.String(),
				rec.ADevel.String(),
				rec.RProd.String(),
				rec.RDevel.String(),
				rec.DA.String(),
				rec.DR.String(),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeEndpointTable writes the compared endpoints as a text table.
func writeEndpointTable(w io.Writer, report schema.Report, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header(reportHeader)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	maxWidth := GetMaxTablePathWidth(cfg)
	var data [][]string
	for _, key := range keysByAvailabilityDelta(report) {
		rec := report.Endpoints[key]
		data = append(data, []string{
			contract.TruncatePath(string(key), maxWidth),
			rec.AProd.Format(cfg.Precision),
			rec.ADevel.Format(cfg.Precision),
			rec.RProd.Format(cfg.Precision),
			rec.RDevel.Format(cfg.Precision),
			rec.DA.Format(cfg.Precision),
			rec.DR.Format(cfg.Precision),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Tenant: %s, Date: %s, Compared endpoints: %d\n", report.Tenant, report.Date, len(report.Endpoints))
	return err
}

// writeMissingTable lists endpoints reported by one engine only.
func writeMissingTable(w io.Writer, report schema.Report, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Name", "Found in prod", "Found in devel"})

	maxWidth := GetMaxTablePathWidth(cfg)
	var data [][]string
	for _, m := range report.Missing {
		data = append(data, []string{
			contract.TruncatePath(string(m.Key), maxWidth),
			yesNo(m.InProd),
			yesNo(m.InDevel),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeErrorTable writes the combined error row.
func writeErrorTable(w io.Writer, report schema.Report, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Error", "Comparisons", "Avg Error"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	row := []string{
		fmtFloat(report.Summary.TotalError),
		strconv.Itoa(report.Summary.Comparisons),
		averageErrorText(report.Summary, fmtFloat),
	}
	if err := table.Bulk([][]string{row}); err != nil {
		return err
	}
	return table.Render()
}

// WriteSupplementary writes the missing-endpoint and error tables.
func WriteSupplementary(w io.Writer, report schema.Report, cfg *contract.Config) error {
	if _, err := fmt.Fprintln(w, "Endpoints that were not found in both engines"); err != nil {
		return err
	}
	if err := writeMissingTable(w, report, cfg); err != nil {
		return err
	}
	return writeErrorTable(w, report, cfg)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
