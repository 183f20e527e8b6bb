// Package covariate provides implementations of ports.CovariateProvider:
// sources of pre-experiment user covariates consumed by CUPED adjustment.
package covariate

import (
	"abx/domain/core"
)

// LookupProvider serves covariates from an in-memory table keyed by user id.
// Unknown users are an error rather than a silent zero: a zero-filled
// covariate biases the adjustment.
type LookupProvider struct {
	values map[string]float64
}

// NewLookupProvider copies the table so later caller mutation cannot leak in.
func NewLookupProvider(values map[string]float64) *LookupProvider {
	copied := make(map[string]float64, len(values))
	for id, v := range values {
		copied[id] = v
	}
	return &LookupProvider{values: copied}
}

// GetCovariate returns the covariate for every requested user.
func (p *LookupProvider) GetCovariate(userIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(userIDs))
	for _, id := range userIDs {
		v, ok := p.values[id]
		if !ok {
			return nil, core.Validationf("no covariate available for user %q", id)
		}
		out[id] = v
	}
	return out, nil
}

// ConstantProvider returns the same value for every user. Useful as a
// degenerate baseline in tests; CUPED against a constant covariate fails
// with a zero-variance error downstream, which is the point.
type ConstantProvider struct {
	Value float64
}

// GetCovariate returns the constant for each requested user.
func (p ConstantProvider) GetCovariate(userIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(userIDs))
	for _, id := range userIDs {
		out[id] = p.Value
	}
	return out, nil
}
