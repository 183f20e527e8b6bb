// Package analysis implements the statistical-inference engine for two-arm
// online controlled experiments: covariate-adjusted estimation (CUPED),
// Welch and delta-method confidence intervals, anytime-valid sequential
// intervals for Bernoulli rates, and sample-ratio-mismatch detection with
// per-covariate diagnostics.
//
// Every entry point is a pure, deterministic computation over caller-supplied
// data: inputs are validated first, nothing is cached or mutated, and each
// call returns a fresh immutable result record.
package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"abx/domain/ab"
)

// mean, sampleVariance and sampleCovariance wrap the batch reductions used
// throughout the engine. Inputs are validated by the callers, so reduction
// errors (empty input, length mismatch) cannot occur here.

func mean(values []float64) float64 {
	m, _ := stats.Mean(values)
	return m
}

// sampleVariance applies Bessel's correction (denominator n-1).
func sampleVariance(values []float64) float64 {
	v, _ := stats.SampleVariance(values)
	return v
}

// sampleCovariance applies Bessel's correction (denominator n-1).
func sampleCovariance(x, y []float64) float64 {
	c, _ := stats.Covariance(x, y)
	return c
}

// tQuantile returns the two-sided critical value source used by the Welch
// paths. Infinite degrees of freedom fall back to the standard normal.
func tQuantile(p, df float64) float64 {
	if math.IsInf(df, 1) {
		return distuv.Normal{Mu: 0, Sigma: 1}.Quantile(p)
	}
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(p)
}

func normalQuantile(p float64) float64 {
	return distuv.Normal{Mu: 0, Sigma: 1}.Quantile(p)
}

// welchDF computes the Welch-Satterthwaite degrees of freedom for two
// variance contributions that are already scaled by their sample sizes.
// A vanishing denominator yields +Inf, i.e. the normal limit.
func welchDF(varA, varB float64, nA, nB int) float64 {
	num := (varA + varB) * (varA + varB)
	den := varA*varA/float64(nA-1) + varB*varB/float64(nB-1)
	if den <= 0 {
		return math.Inf(1)
	}
	return num / den
}

// splitByArm partitions a numeric column into the control and treatment
// observation sets.
func splitByArm(groups []ab.Group, values []float64) (control, treatment []float64) {
	for i, g := range groups {
		switch g {
		case ab.Control:
			control = append(control, values[i])
		case ab.Treatment:
			treatment = append(treatment, values[i])
		}
	}
	return control, treatment
}
