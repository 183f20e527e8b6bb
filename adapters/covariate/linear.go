package covariate

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"abx/domain/core"
)

// LinearProvider predicts a covariate from a single per-user numeric feature
// with ordinary least squares. Fit once on historical (feature, outcome)
// pairs, then serve predictions as the CUPED covariate for users whose
// feature is known. This is the simplest member of the model-backed
// (CUPAC-style) provider family.
type LinearProvider struct {
	alpha    float64
	beta     float64
	features map[string]float64
}

// FitLinearProvider fits outcome ~ alpha + beta*feature on the training
// users and retains the serving features. Training pairs are taken from the
// intersection of the two maps; at least two distinct feature values are
// required for an identifiable slope.
func FitLinearProvider(trainFeatures, trainOutcomes map[string]float64, serveFeatures map[string]float64) (*LinearProvider, error) {
	var xs, ys []float64
	for id, x := range trainFeatures {
		y, ok := trainOutcomes[id]
		if !ok {
			continue
		}
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, core.Validationf("training data for user %q contains non-finite values", id)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return nil, core.NewValidationError("linear provider needs at least 2 training users with both feature and outcome")
	}
	if !hasSpread(xs) {
		return nil, core.NewStatError("training feature has zero variance; slope is unidentifiable")
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return nil, core.NewStatError("linear fit produced non-finite coefficients")
	}

	copied := make(map[string]float64, len(serveFeatures))
	for id, v := range serveFeatures {
		copied[id] = v
	}
	return &LinearProvider{alpha: alpha, beta: beta, features: copied}, nil
}

// Coefficients exposes the fitted intercept and slope.
func (p *LinearProvider) Coefficients() (alpha, beta float64) {
	return p.alpha, p.beta
}

// GetCovariate predicts for each requested user from its serving feature.
func (p *LinearProvider) GetCovariate(userIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(userIDs))
	for _, id := range userIDs {
		x, ok := p.features[id]
		if !ok {
			return nil, core.Validationf("no feature available for user %q", id)
		}
		out[id] = p.alpha + p.beta*x
	}
	return out, nil
}

func hasSpread(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return true
		}
	}
	return false
}
