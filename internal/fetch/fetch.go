// Package fetch retrieves engine datasets over HTTP or from a local directory.
package fetch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
)

// ErrNoResults is returned when an engine did not deliver a usable dataset.
var ErrNoResults = errors.New("engine produced no results")

// maxBodyBytes caps how much of an engine response is read.
const maxBodyBytes = 256 << 20

// decodeDataset parses an engine response body.
func decodeDataset(side schema.Side, data []byte) (schema.Dataset, error) {
	var ds schema.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return schema.Dataset{}, fmt.Errorf("%w: %s response is not valid JSON: %v", ErrNoResults, side, err)
	}
	if !ds.HasResults {
		return schema.Dataset{}, fmt.Errorf("%w: %s response has no results", ErrNoResults, side)
	}
	return ds, nil
}

// NewSource picks the dataset source for a config: saved responses when a
// directory is configured, the engine APIs otherwise.
func NewSource(cfg *contract.Config) contract.DatasetSource {
	if cfg.FromDir != "" {
		return NewFileSource(cfg.FromDir)
	}
	return NewHTTPSource(cfg.Tenant, HTTPOptionsFromConfig(cfg))
}
