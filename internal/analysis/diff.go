package analysis

import (
	"math"

	"abx/domain/ab"
	"abx/domain/core"
)

// WelchDiffCI computes a two-sided confidence interval for the difference in
// means (treatment - control) under unequal variances, using the
// Welch-Satterthwaite degrees of freedom for the t critical value.
func WelchDiffCI(control, treatment []float64, alpha float64) (ab.ConfidenceInterval, error) {
	if err := core.AssertSample(control, "control"); err != nil {
		return ab.ConfidenceInterval{}, err
	}
	if err := core.AssertSample(treatment, "treatment"); err != nil {
		return ab.ConfidenceInterval{}, err
	}
	if err := core.EnsureProbability(alpha, "alpha", false); err != nil {
		return ab.ConfidenceInterval{}, err
	}

	nC, nT := len(control), len(treatment)
	vC := sampleVariance(control) / float64(nC)
	vT := sampleVariance(treatment) / float64(nT)

	se := math.Sqrt(vC + vT)
	if se <= 0 {
		return ab.ConfidenceInterval{}, core.NewStatError("standard error is zero; check inputs")
	}
	df := welchDF(vC, vT, nC, nT)
	q := tQuantile(1-alpha/2, df)
	diff := mean(treatment) - mean(control)

	return ab.ConfidenceInterval{
		Estimate: diff,
		SE:       se,
		CILow:    diff - q*se,
		CIHigh:   diff + q*se,
		DF:       &df,
	}, nil
}
