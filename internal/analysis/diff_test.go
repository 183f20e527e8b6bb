package analysis

import (
	"math"
	"testing"

	"abx/domain/core"
)

func TestWelchDiffCI_KnownShift(t *testing.T) {
	control := []float64{10, 11, 9, 10.5, 9.5, 10.2, 9.8, 10.1}
	treatment := []float64{12, 13, 11, 12.5, 11.5, 12.2, 11.8, 12.1}

	ci, err := WelchDiffCI(control, treatment, 0.05)
	if err != nil {
		t.Fatalf("WelchDiffCI failed: %v", err)
	}
	if math.Abs(ci.Estimate-2.0) > 1e-9 {
		t.Errorf("Expected difference 2.0, got %f", ci.Estimate)
	}
	if ci.SE <= 0 {
		t.Errorf("Standard error should be positive, got %f", ci.SE)
	}
	if ci.DF == nil {
		t.Fatal("Welch interval should report degrees of freedom")
	}
	if *ci.DF <= 0 {
		t.Errorf("Degrees of freedom should be positive, got %f", *ci.DF)
	}
	if ci.CILow >= ci.Estimate || ci.CIHigh <= ci.Estimate {
		t.Errorf("Interval [%f, %f] should bracket the estimate", ci.CILow, ci.CIHigh)
	}
	// The shift is large relative to the noise; zero stays outside.
	if ci.CILow <= 0 {
		t.Errorf("Interval lower bound should exclude zero here, got %f", ci.CILow)
	}
}

func TestWelchDiffCI_ShrinksWithMoreData(t *testing.T) {
	base := []float64{10, 11, 9, 12, 8, 10.5, 9.5, 11.5}
	big := append(append(append([]float64{}, base...), base...), base...)

	small, err := WelchDiffCI(base, base, 0.05)
	if err != nil {
		t.Fatalf("small sample failed: %v", err)
	}
	large, err := WelchDiffCI(big, big, 0.05)
	if err != nil {
		t.Fatalf("large sample failed: %v", err)
	}
	if large.CIHigh-large.CILow >= small.CIHigh-small.CILow {
		t.Error("Interval should narrow as the sample grows")
	}
}

func TestWelchDiffCI_DegenerateVariance(t *testing.T) {
	control := []float64{5, 5, 5}
	treatment := []float64{7, 7, 7}

	_, err := WelchDiffCI(control, treatment, 0.05)
	if err == nil {
		t.Fatal("Expected an error for zero variance in both arms")
	}
	if !core.IsStatError(err) {
		t.Errorf("Expected a stat error, got %v", err)
	}
}

func TestWelchDiffCI_RejectsBadInputs(t *testing.T) {
	good := []float64{1, 2, 3}

	if _, err := WelchDiffCI([]float64{1}, good, 0.05); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for a single observation, got %v", err)
	}
	if _, err := WelchDiffCI(good, good, 1.5); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for alpha outside (0, 1), got %v", err)
	}
	if _, err := WelchDiffCI(good, []float64{1, math.Inf(1), 3}, 0.05); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for non-finite values, got %v", err)
	}
}
