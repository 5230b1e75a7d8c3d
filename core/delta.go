package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/cecompare/cecompare/schema"
)

// deltaPrecision is the number of decimals kept in displayed deltas.
const deltaPrecision = 2

// NewComparisonRecord parses both engines' samples into a record with unset deltas.
func NewComparisonRecord(prod, devel schema.MetricSample) (schema.ComparisonRecord, error) {
	var rec schema.ComparisonRecord
	fields := []struct {
		dst  *schema.Value
		raw  string
		side schema.Side
		name schema.Metric
	}{
		{&rec.AProd, prod.Availability, schema.ProdSide, schema.AvailabilityMetric},
		{&rec.ADevel, devel.Availability, schema.DevelSide, schema.AvailabilityMetric},
		{&rec.RProd, prod.Reliability, schema.ProdSide, schema.ReliabilityMetric},
		{&rec.RDevel, devel.Reliability, schema.DevelSide, schema.ReliabilityMetric},
	}
	for _, f := range fields {
		v, err := schema.ParseValue(f.raw)
		if err != nil {
			return schema.ComparisonRecord{}, &MalformedDatasetError{Side: f.side, Reason: fmt.Sprintf("%s: %v", f.name, err)}
		}
		*f.dst = v
	}
	rec.DA = schema.Unavailable()
	rec.DR = schema.Unavailable()
	return rec, nil
}

// CompareEndpoint fills the deltas of rec and returns the updated accumulator.
// Each metric is compared only when both engines computed it; the accumulator
// receives the raw absolute difference while the record keeps it rounded.
func CompareEndpoint(rec schema.ComparisonRecord, acc schema.ErrorStats) (schema.ComparisonRecord, schema.ErrorStats) {
	var d float64
	var ok bool

	if rec.DA, d, ok = metricDelta(rec.AProd, rec.ADevel); ok {
		acc.TotalError += d
		acc.Comparisons++
	}
	if rec.DR, d, ok = metricDelta(rec.RProd, rec.RDevel); ok {
		acc.TotalError += d
		acc.Comparisons++
	}
	return rec, acc
}

// metricDelta returns the rounded delta, the raw delta and whether both values exist.
func metricDelta(prod, devel schema.Value) (schema.Value, float64, bool) {
	if !prod.Valid || !devel.Valid {
		return schema.Unavailable(), 0, false
	}
	d := math.Abs(prod.Value - devel.Value)
	return schema.Available(roundTo(d, deltaPrecision)), d, true
}

// ComputeDeltas builds a record for every common key and accumulates the error stats.
func ComputeDeltas(prod, devel map[schema.EndpointKey]schema.MetricSample, common []schema.EndpointKey) (map[schema.EndpointKey]schema.ComparisonRecord, schema.ErrorStats, error) {
	records := make(map[schema.EndpointKey]schema.ComparisonRecord, len(common))
	var acc schema.ErrorStats

	for _, key := range common {
		rec, err := NewComparisonRecord(prod[key], devel[key])
		if err != nil {
			if mde, ok := err.(*MalformedDatasetError); ok {
				group, endpoint := splitKey(key)
				mde.Group, mde.Endpoint = group, endpoint
			}
			return nil, schema.ErrorStats{}, err
		}
		rec, acc = CompareEndpoint(rec, acc)
		records[key] = rec
	}
	return records, acc, nil
}

// roundTo rounds half away from zero to the given number of decimals.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// splitKey separates an endpoint key into group and endpoint names.
func splitKey(key schema.EndpointKey) (group, endpoint string) {
	s := string(key)
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		return s[i+1:], s[:i]
	}
	return "", s
}
