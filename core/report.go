package core

import (
	"github.com/cecompare/cecompare/schema"
)

// ReportMeta identifies the comparison a report belongs to.
type ReportMeta struct {
	Tenant    string
	Date      string
	Threshold float64
}

// AssembleReport combines the pipeline results into the report handed to writers.
func AssembleReport(meta ReportMeta, recon schema.Reconciliation, records map[schema.EndpointKey]schema.ComparisonRecord, stats schema.ErrorStats, exc schema.Exceedances) schema.Report {
	summary := schema.Summary{
		TotalError:  stats.TotalError,
		Comparisons: stats.Comparisons,
	}
	if avg, ok := stats.Average(); ok {
		summary.AverageError = &avg
	}

	missing := recon.Missing
	if missing == nil {
		missing = []schema.MissingEndpoint{}
	}
	if records == nil {
		records = map[schema.EndpointKey]schema.ComparisonRecord{}
	}

	return schema.Report{
		Tenant:      meta.Tenant,
		Date:        meta.Date,
		Threshold:   meta.Threshold,
		Endpoints:   records,
		Missing:     missing,
		Summary:     summary,
		Exceedances: exc,
	}
}

// BuildReport runs extraction, reconciliation, delta calculation and classification
// over both engines' datasets for one date.
func BuildReport(meta ReportMeta, prodDS, develDS schema.Dataset, sel ResultSelector) (schema.Report, error) {
	prod, err := Extract(prodDS, meta.Date, sel)
	if err != nil {
		return schema.Report{}, withSide(err, schema.ProdSide)
	}
	devel, err := Extract(develDS, meta.Date, sel)
	if err != nil {
		return schema.Report{}, withSide(err, schema.DevelSide)
	}

	recon := Reconcile(prod, devel)
	records, stats, err := ComputeDeltas(prod, devel, recon.Common)
	if err != nil {
		return schema.Report{}, err
	}
	exc := Classify(records, meta.Threshold)

	return AssembleReport(meta, recon, records, stats, exc), nil
}
