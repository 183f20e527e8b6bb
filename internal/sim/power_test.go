package sim

import (
	"math"
	"testing"

	"abx/domain/core"
)

func TestPowerMeanWelch_NullEffectGivesAlpha(t *testing.T) {
	power, err := PowerMeanWelch(10, 10, 2, 2, 100, 100, 0.05, true)
	if err != nil {
		t.Fatalf("PowerMeanWelch failed: %v", err)
	}
	if math.Abs(power-0.05) > 1e-9 {
		t.Errorf("Power at zero effect should equal alpha, got %f", power)
	}
}

func TestPowerMeanWelch_GrowsWithEffectAndSample(t *testing.T) {
	small, err := PowerMeanWelch(10, 10.5, 2, 2, 50, 50, 0.05, true)
	if err != nil {
		t.Fatalf("small effect failed: %v", err)
	}
	big, err := PowerMeanWelch(10, 11.5, 2, 2, 50, 50, 0.05, true)
	if err != nil {
		t.Fatalf("big effect failed: %v", err)
	}
	if big <= small {
		t.Errorf("Power should grow with effect size: %f vs %f", big, small)
	}

	moreData, err := PowerMeanWelch(10, 10.5, 2, 2, 500, 500, 0.05, true)
	if err != nil {
		t.Fatalf("large sample failed: %v", err)
	}
	if moreData <= small {
		t.Errorf("Power should grow with sample size: %f vs %f", moreData, small)
	}
}

func TestPowerMeanMC_DeterministicAndNearClosedForm(t *testing.T) {
	first, err := PowerMeanMC(10, 11, 2, 2, 80, 80, 0.05, true, 2000, 42, nil)
	if err != nil {
		t.Fatalf("PowerMeanMC failed: %v", err)
	}
	second, err := PowerMeanMC(10, 11, 2, 2, 80, 80, 0.05, true, 2000, 42, nil)
	if err != nil {
		t.Fatalf("PowerMeanMC rerun failed: %v", err)
	}
	if first != second {
		t.Errorf("Same seed must reproduce the estimate: %f vs %f", first, second)
	}

	approx, err := PowerMeanWelch(10, 11, 2, 2, 80, 80, 0.05, true)
	if err != nil {
		t.Fatalf("PowerMeanWelch failed: %v", err)
	}
	if math.Abs(first-approx) > 0.1 {
		t.Errorf("Monte Carlo estimate %f far from closed form %f", first, approx)
	}
}

func TestPowerMeanMC_RepetitionFloor(t *testing.T) {
	_, err := PowerMeanMC(10, 11, 2, 2, 80, 80, 0.05, true, 500, 42, nil)
	if !core.IsValidationError(err) {
		t.Errorf("Expected validation error below the repetition floor, got %v", err)
	}
}

func TestPowerPropNormal(t *testing.T) {
	small, err := PowerPropNormal(0.10, 0.11, 500, 500, 0.05, true)
	if err != nil {
		t.Fatalf("PowerPropNormal failed: %v", err)
	}
	big, err := PowerPropNormal(0.10, 0.15, 500, 500, 0.05, true)
	if err != nil {
		t.Fatalf("PowerPropNormal failed: %v", err)
	}
	if big <= small {
		t.Errorf("Power should grow with the rate lift: %f vs %f", big, small)
	}
	if big <= 0 || big > 1 {
		t.Errorf("Power must lie in (0, 1], got %f", big)
	}
}

func TestPowerPropMC_Deterministic(t *testing.T) {
	first, err := PowerPropMC(0.10, 0.15, 400, 400, 0.05, true, 1500, 7, nil)
	if err != nil {
		t.Fatalf("PowerPropMC failed: %v", err)
	}
	second, err := PowerPropMC(0.10, 0.15, 400, 400, 0.05, true, 1500, 7, nil)
	if err != nil {
		t.Fatalf("PowerPropMC rerun failed: %v", err)
	}
	if first != second {
		t.Errorf("Same seed must reproduce the estimate: %f vs %f", first, second)
	}

	approx, err := PowerPropNormal(0.10, 0.15, 400, 400, 0.05, true)
	if err != nil {
		t.Fatalf("PowerPropNormal failed: %v", err)
	}
	if math.Abs(first-approx) > 0.1 {
		t.Errorf("Monte Carlo estimate %f far from normal approximation %f", first, approx)
	}
}

func TestPowerValidation(t *testing.T) {
	if _, err := PowerMeanWelch(10, 11, 0, 2, 80, 80, 0.05, true); !core.IsValidationError(err) {
		t.Errorf("Zero std should fail, got %v", err)
	}
	if _, err := PowerMeanWelch(10, 11, 2, 2, 1, 80, 0.05, true); !core.IsValidationError(err) {
		t.Errorf("Sample size of 1 should fail, got %v", err)
	}
	if _, err := PowerPropNormal(1.5, 0.1, 80, 80, 0.05, true); !core.IsValidationError(err) {
		t.Errorf("Probability above 1 should fail, got %v", err)
	}
	if _, err := PowerPropNormal(0.1, 0.2, 80, 80, 0, true); !core.IsValidationError(err) {
		t.Errorf("Alpha of 0 should fail, got %v", err)
	}
}
