package core

import (
	"sort"

	"github.com/cecompare/cecompare/schema"
)

// Reconcile splits the keys of both engines into the symmetric difference,
// tagged by origin, and the intersection that can be compared.
func Reconcile(prod, devel map[schema.EndpointKey]schema.MetricSample) schema.Reconciliation {
	allKeys := make(map[schema.EndpointKey]struct{}, len(prod)+len(devel))
	for k := range prod {
		allKeys[k] = struct{}{}
	}
	for k := range devel {
		allKeys[k] = struct{}{}
	}

	var result schema.Reconciliation
	for k := range allKeys {
		_, inProd := prod[k]
		_, inDevel := devel[k]
		if inProd && inDevel {
			result.Common = append(result.Common, k)
			continue
		}
		result.Missing = append(result.Missing, schema.MissingEndpoint{Key: k, InProd: inProd, InDevel: inDevel})
	}

	sort.Slice(result.Common, func(i, j int) bool { return result.Common[i] < result.Common[j] })
	sort.Slice(result.Missing, func(i, j int) bool { return result.Missing[i].Key < result.Missing[j].Key })
	return result
}
