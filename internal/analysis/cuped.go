package analysis

import (
	"math"

	"abx/domain/ab"
	"abx/domain/core"
	"abx/ports"
)

// thetaHat estimates theta = Cov(Y, X) / Var(X) for CUPED.
func thetaHat(y, x []float64) (float64, error) {
	if len(y) != len(x) {
		return 0, core.NewValidationError("metric and covariate must have the same length")
	}
	if err := core.AssertSample(y, "metric"); err != nil {
		return 0, err
	}
	if err := core.AssertSample(x, "covariate"); err != nil {
		return 0, err
	}
	vx := sampleVariance(x)
	if vx <= 0 {
		return 0, core.NewValidationError("variance of covariate X must be positive")
	}
	return sampleCovariance(y, x) / vx, nil
}

// CUPEDAdjust applies the variance-reducing adjustment Y* = Y - theta*X and
// attaches it as the metric_cuped column. The covariate must align with the
// frame row-for-row and contain no missing values.
func CUPEDAdjust(f *ab.Frame, covariate []float64) (*ab.Frame, float64, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	if len(covariate) != f.Len() {
		return nil, 0, core.NewValidationError("covariate length must match input data length")
	}
	if err := core.AssertNumeric(covariate, "covariate"); err != nil {
		return nil, 0, err
	}

	metric := f.Metric()
	theta, err := thetaHat(metric, covariate)
	if err != nil {
		return nil, 0, err
	}

	adjusted := make([]float64, len(metric))
	for i, y := range metric {
		adjusted[i] = y - theta*covariate[i]
	}
	out, err := f.WithNumeric(ab.CUPEDColumn, adjusted)
	if err != nil {
		return nil, 0, err
	}
	return out, theta, nil
}

// CUPEDAdjustWithProvider derives the covariate from a provider keyed by
// user identifier. Every user in the frame must resolve to a finite value.
func CUPEDAdjustWithProvider(f *ab.Frame, provider ports.CovariateProvider) (*ab.Frame, float64, error) {
	if provider == nil {
		return nil, 0, core.NewValidationError("provide either a covariate or a covariate provider")
	}
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}

	values, err := provider.GetCovariate(f.UserIDs())
	if err != nil {
		return nil, 0, err
	}
	covariate := make([]float64, f.Len())
	for i, id := range f.UserIDs() {
		v, ok := values[id]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, 0, core.Validationf("covariate missing for user %q; fill or drop before CUPED", id)
		}
		covariate[i] = v
	}
	return CUPEDAdjust(f, covariate)
}
