package schema

import "time"

// RunRecord represents a row from the cecompare_runs table.
type RunRecord struct {
	RunID        int64
	Tenant       string
	Date         string
	Status       string
	Reason       *string
	Threshold    float64
	TotalError   float64
	Comparisons  int32
	AverageError *float64
	MissingCount int32
	CreatedAt    time.Time
}

// EndpointDeltaRecord represents a row from the cecompare_endpoint_deltas table.
type EndpointDeltaRecord struct {
	RunID    int64
	Endpoint string
	AProd    *float64
	ADevel   *float64
	RProd    *float64
	RDevel   *float64
	DA       *float64
	DR       *float64
}

// ArchiveStatus represents the status of the report archive.
type ArchiveStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	SkippedRuns   int              `json:"skipped_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
