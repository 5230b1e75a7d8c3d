package schema

import "sort"

// EndpointKey identifies an endpoint within its group as "endpoint@group".
type EndpointKey string

// NewEndpointKey joins an endpoint and its group into a key.
func NewEndpointKey(endpoint, group string) EndpointKey {
	return EndpointKey(endpoint + "@" + group)
}

// MetricSample holds the verbatim metric strings of one endpoint from one engine.
type MetricSample struct {
	Availability string `json:"availability"`
	Reliability  string `json:"reliability"`
}

// ComparisonRecord holds both engines' values for an endpoint and their deltas.
type ComparisonRecord struct {
	AProd  Value `json:"a_prod"`
	ADevel Value `json:"a_devel"`
	RProd  Value `json:"r_prod"`
	RDevel Value `json:"r_devel"`
	DA     Value `json:"d_a"` // Rounded |AProd - ADevel|, unavailable when either side is
	DR     Value `json:"d_r"` // Rounded |RProd - RDevel|, unavailable when either side is
}

// MissingEndpoint is an endpoint reported by only one engine.
type MissingEndpoint struct {
	Key     EndpointKey `json:"key"`
	InProd  bool        `json:"in_prod"`
	InDevel bool        `json:"in_devel"`
}

// Reconciliation splits the endpoint keys of both engines.
type Reconciliation struct {
	Missing []MissingEndpoint `json:"missing"` // Symmetric difference, sorted by key
	Common  []EndpointKey     `json:"-"`       // Intersection, sorted
}

// MissingInDevel returns keys found in prod only.
func (r Reconciliation) MissingInDevel() []EndpointKey {
	var keys []EndpointKey
	for _, m := range r.Missing {
		if m.InProd {
			keys = append(keys, m.Key)
		}
	}
	return keys
}

// MissingInProd returns keys found in devel only.
func (r Reconciliation) MissingInProd() []EndpointKey {
	var keys []EndpointKey
	for _, m := range r.Missing {
		if m.InDevel {
			keys = append(keys, m.Key)
		}
	}
	return keys
}

// ErrorStats accumulates absolute differences over all metric comparisons of a date.
type ErrorStats struct {
	TotalError  float64 `json:"total_error"`
	Comparisons int     `json:"comparisons"`
}

// Average returns the mean error; ok is false when nothing was compared.
func (s ErrorStats) Average() (avg float64, ok bool) {
	if s.Comparisons == 0 {
		return 0, false
	}
	return s.TotalError / float64(s.Comparisons), true
}

// ThresholdEntry is an endpoint whose delta reached the threshold.
type ThresholdEntry struct {
	Key   EndpointKey `json:"key"`
	Delta float64     `json:"delta"`
}

// Exceedances holds per-metric threshold entries, sorted by delta descending.
type Exceedances struct {
	Availability []ThresholdEntry `json:"availability"`
	Reliability  []ThresholdEntry `json:"reliability"`
}

// Summary is the combined error row of a report.
type Summary struct {
	TotalError   float64  `json:"total_error"`
	Comparisons  int      `json:"comparisons"`
	AverageError *float64 `json:"average_error"` // nil when no comparison was possible
}

// Report is the assembled comparison of one tenant for one date.
type Report struct {
	Tenant      string                           `json:"tenant"`
	Date        string                           `json:"date"`
	Threshold   float64                          `json:"threshold"`
	Endpoints   map[EndpointKey]ComparisonRecord `json:"endpoints"`
	Missing     []MissingEndpoint                `json:"missing"`
	Summary     Summary                          `json:"summary"`
	Exceedances Exceedances                      `json:"exceedances"`
}

// SortedKeys returns the compared endpoint keys in ascending order.
func (r Report) SortedKeys() []EndpointKey {
	keys := make([]EndpointKey, 0, len(r.Endpoints))
	for k := range r.Endpoints {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// DateOutcome is the result of processing one date.
type DateOutcome struct {
	Date        string  `json:"date"`
	Status      Status  `json:"status"`
	Reason      string  `json:"reason,omitempty"`
	ProdFailed  bool    `json:"prod_failed,omitempty"`
	DevelFailed bool    `json:"devel_failed,omitempty"`
	Report      *Report `json:"report,omitempty"`
}

// Compared reports whether a report was produced for the date.
func (o DateOutcome) Compared() bool {
	return o.Status == ComparedStatus && o.Report != nil
}

// RunSummary collects the outcomes of all dates of a run.
type RunSummary struct {
	Tenant   string        `json:"tenant"`
	Outcomes []DateOutcome `json:"outcomes"`
}

// Failed is true when any date could not be compared.
func (s RunSummary) Failed() bool {
	for _, o := range s.Outcomes {
		if !o.Compared() {
			return true
		}
	}
	return false
}

// SkippedDates returns the dates that could not be compared.
func (s RunSummary) SkippedDates() []string {
	var dates []string
	for _, o := range s.Outcomes {
		if !o.Compared() {
			dates = append(dates, o.Date)
		}
	}
	return dates
}
