package outwriter

import (
	"io"

	"github.com/cecompare/cecompare/schema"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metric family names of the Prometheus exposition.
const (
	promEngineValue = "cecompare_engine_value"
	promDelta       = "cecompare_endpoint_delta"
	promMissing     = "cecompare_missing_endpoints"
	promTotalError  = "cecompare_total_error"
	promComparisons = "cecompare_comparisons"
	promAvgError    = "cecompare_average_error"
	promExceeded    = "cecompare_threshold_exceedances"
)

func ptr[T any](v T) *T { return &v }

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: ptr(name), Value: ptr(value)}
}

func gauge(value float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: ptr(value)}}
}

func gaugeFamily(name, help string, metrics []*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

// buildMetricFamilies converts a report into gauges; unavailable values are omitted.
func buildMetricFamilies(report schema.Report) []*dto.MetricFamily {
	base := func(extra ...*dto.LabelPair) []*dto.LabelPair {
		return append([]*dto.LabelPair{label("tenant", report.Tenant), label("date", report.Date)}, extra...)
	}

	var values, deltas []*dto.Metric
	for _, key := range report.SortedKeys() {
		rec := report.Endpoints[key]
		ep := label("endpoint", string(key))
		for _, v := range []struct {
			val    schema.Value
			engine schema.Side
			metric schema.Metric
		}{
			{rec.AProd, schema.ProdSide, schema.AvailabilityMetric},
			{rec.ADevel, schema.DevelSide, schema.AvailabilityMetric},
			{rec.RProd, schema.ProdSide, schema.ReliabilityMetric},
			{rec.RDevel, schema.DevelSide, schema.ReliabilityMetric},
		} {
			if v.val.Valid {
				values = append(values, gauge(v.val.Value, base(ep, label("engine", string(v.engine)), label("metric", string(v.metric)))...))
			}
		}
		if rec.DA.Valid {
			deltas = append(deltas, gauge(rec.DA.Value, base(ep, label("metric", string(schema.AvailabilityMetric)))...))
		}
		if rec.DR.Valid {
			deltas = append(deltas, gauge(rec.DR.Value, base(ep, label("metric", string(schema.ReliabilityMetric)))...))
		}
	}

	var inProd, inDevel float64
	for _, m := range report.Missing {
		if m.InProd {
			inProd++
		} else {
			inDevel++
		}
	}

	families := []*dto.MetricFamily{
		gaugeFamily(promEngineValue, "Metric value reported by an engine.", values),
		gaugeFamily(promDelta, "Absolute difference between engines, rounded to two decimals.", deltas),
		gaugeFamily(promMissing, "Endpoints reported by one engine only.", []*dto.Metric{
			gauge(inProd, base(label("present_in", string(schema.ProdSide)))...),
			gauge(inDevel, base(label("present_in", string(schema.DevelSide)))...),
		}),
		gaugeFamily(promTotalError, "Sum of absolute differences over all comparisons.", []*dto.Metric{
			gauge(report.Summary.TotalError, base()...),
		}),
		gaugeFamily(promComparisons, "Number of metric comparisons performed.", []*dto.Metric{
			gauge(float64(report.Summary.Comparisons), base()...),
		}),
		gaugeFamily(promExceeded, "Endpoints whose delta reached the threshold.", []*dto.Metric{
			gauge(float64(len(report.Exceedances.Availability)), base(label("metric", string(schema.AvailabilityMetric)))...),
			gauge(float64(len(report.Exceedances.Reliability)), base(label("metric", string(schema.ReliabilityMetric)))...),
		}),
	}
	if report.Summary.AverageError != nil {
		families = append(families, gaugeFamily(promAvgError, "Mean absolute difference per comparison.", []*dto.Metric{
			gauge(*report.Summary.AverageError, base()...),
		}))
	}
	return families
}

// writePromReport writes the report in the Prometheus text exposition format.
func writePromReport(w io.Writer, report schema.Report) error {
	for _, mf := range buildMetricFamilies(report) {
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
