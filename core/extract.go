package core

import (
	"fmt"

	"github.com/cecompare/cecompare/schema"
)

// ResultSelector picks the result entry that represents an endpoint for the requested date.
// It returns false when no entry qualifies.
type ResultSelector func(results []schema.Result, date string) (schema.Result, bool)

// NewResultSelector returns the selector for the given strategy.
// Unknown strategies fall back to the first entry.
func NewResultSelector(mode schema.ResultSelect) ResultSelector {
	switch mode {
	case schema.SelectLast:
		return selectLast
	case schema.SelectDate:
		return selectByDate
	default:
		return selectFirst
	}
}

func selectFirst(results []schema.Result, _ string) (schema.Result, bool) {
	if len(results) == 0 {
		return schema.Result{}, false
	}
	return results[0], true
}

func selectLast(results []schema.Result, _ string) (schema.Result, bool) {
	if len(results) == 0 {
		return schema.Result{}, false
	}
	return results[len(results)-1], true
}

func selectByDate(results []schema.Result, date string) (schema.Result, bool) {
	for _, r := range results {
		if r.Timestamp == date {
			return r, true
		}
	}
	return schema.Result{}, false
}

// Extract flattens an engine dataset into endpoint keys and their metric strings.
// The values are copied verbatim from the entry chosen by sel.
func Extract(ds schema.Dataset, date string, sel ResultSelector) (map[schema.EndpointKey]schema.MetricSample, error) {
	if !ds.HasResults {
		return nil, &MalformedDatasetError{Reason: reasonNoResults}
	}
	if sel == nil {
		sel = selectFirst
	}

	endpoints := make(map[schema.EndpointKey]schema.MetricSample)
	for _, group := range ds.Results {
		for _, ep := range group.Endpoints {
			if len(ep.Results) == 0 {
				return nil, &MalformedDatasetError{Group: group.Name, Endpoint: ep.Name, Reason: "endpoint has no result entries"}
			}
			result, ok := sel(ep.Results, date)
			if !ok {
				return nil, &MalformedDatasetError{Group: group.Name, Endpoint: ep.Name, Reason: fmt.Sprintf("no result entry for %s", date)}
			}

			key := schema.NewEndpointKey(ep.Name, group.Name)
			if _, dup := endpoints[key]; dup {
				return nil, &MalformedDatasetError{Group: group.Name, Endpoint: ep.Name, Reason: "duplicate endpoint key"}
			}
			endpoints[key] = schema.MetricSample{
				Availability: result.Availability,
				Reliability:  result.Reliability,
			}
		}
	}
	return endpoints, nil
}
