// Package schema has configs, models and constants for all parts of cecompare.
package schema

import "encoding/json"

// Dataset is the raw response of one compute engine for one date.
// It mirrors the engine API shape: groups that contain endpoints that contain dated results.
type Dataset struct {
	Results    []Group `json:"results"`
	HasResults bool    `json:"-"` // Whether the "results" key was present at all
}

// Group is a named collection of endpoints (e.g. an NGI).
type Group struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Endpoints []Endpoint `json:"endpoints"`
}

// Endpoint is a named service endpoint inside a group (e.g. a site).
type Endpoint struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Results []Result `json:"results"`
}

// Result is one dated availability/reliability entry for an endpoint.
// Numeric fields are kept as the strings the engines send.
type Result struct {
	Timestamp    string `json:"timestamp"`
	Availability string `json:"availability"`
	Reliability  string `json:"reliability"`
	Unknown      string `json:"unknown,omitempty"`
	Uptime       string `json:"uptime,omitempty"`
	Downtime     string `json:"downtime,omitempty"`
}

// UnmarshalJSON records whether the results key exists, since an engine that
// produced nothing omits it instead of sending an empty list.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var raw struct {
		Results *[]Group `json:"results"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.HasResults = raw.Results != nil
	d.Results = nil
	if raw.Results != nil {
		d.Results = *raw.Results
	}
	return nil
}
