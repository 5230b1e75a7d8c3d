package core

import (
	"sort"

	"github.com/cecompare/cecompare/schema"
)

// Classify collects, per metric, the endpoints whose displayed delta is at least threshold.
// Unavailable deltas never qualify.
func Classify(records map[schema.EndpointKey]schema.ComparisonRecord, threshold float64) schema.Exceedances {
	var exc schema.Exceedances
	for key, rec := range records {
		if rec.DA.Valid && rec.DA.Value >= threshold {
			exc.Availability = append(exc.Availability, schema.ThresholdEntry{Key: key, Delta: rec.DA.Value})
		}
		if rec.DR.Valid && rec.DR.Value >= threshold {
			exc.Reliability = append(exc.Reliability, schema.ThresholdEntry{Key: key, Delta: rec.DR.Value})
		}
	}
	sortThresholdEntries(exc.Availability)
	sortThresholdEntries(exc.Reliability)
	return exc
}

// sortThresholdEntries sorts by delta (descending), then key (ascending).
func sortThresholdEntries(entries []schema.ThresholdEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Delta != b.Delta {
			return a.Delta > b.Delta
		}
		return a.Key < b.Key
	})
}
