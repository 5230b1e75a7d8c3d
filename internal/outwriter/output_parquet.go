package outwriter

import (
	"io"

	"github.com/cecompare/cecompare/internal/parquet"
	"github.com/cecompare/cecompare/schema"
)

// writeParquetReport writes one Parquet row per compared endpoint.
func writeParquetReport(w io.Writer, report schema.Report) error {
	return parquet.WriteEndpointRows(w, parquet.ReportRows(report))
}
