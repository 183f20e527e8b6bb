package core

import (
	"math"
	"testing"
)

func TestEnsureProbability(t *testing.T) {
	cases := []struct {
		name      string
		value     float64
		inclusive bool
		wantErr   bool
	}{
		{"interior value", 0.5, false, false},
		{"zero exclusive", 0, false, true},
		{"one exclusive", 1, false, true},
		{"zero inclusive", 0, true, false},
		{"one inclusive", 1, true, false},
		{"negative", -0.1, true, true},
		{"above one", 1.1, true, true},
		{"nan", math.NaN(), false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := EnsureProbability(tc.value, "alpha", tc.inclusive)
			if (err != nil) != tc.wantErr {
				t.Errorf("EnsureProbability(%v, inclusive=%v) error = %v, wantErr %v",
					tc.value, tc.inclusive, err, tc.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("Expected a validation error, got %v", err)
			}
		})
	}
}

func TestAssertSample(t *testing.T) {
	if err := AssertSample([]float64{1, 2}, "x"); err != nil {
		t.Errorf("Two finite values should pass, got %v", err)
	}
	if err := AssertSample([]float64{1}, "x"); !IsValidationError(err) {
		t.Errorf("Single value should fail, got %v", err)
	}
	if err := AssertSample([]float64{1, math.Inf(-1)}, "x"); !IsValidationError(err) {
		t.Errorf("Non-finite value should fail, got %v", err)
	}
}

func TestNumericGuards(t *testing.T) {
	if err := EnsurePositiveInt(0, "n"); !IsValidationError(err) {
		t.Errorf("Zero should fail EnsurePositiveInt, got %v", err)
	}
	if err := EnsurePositive(0, "std"); !IsValidationError(err) {
		t.Errorf("Zero should fail EnsurePositive, got %v", err)
	}
	if err := EnsureNonNegative(-1, "count"); !IsValidationError(err) {
		t.Errorf("Negative should fail EnsureNonNegative, got %v", err)
	}
	if err := EnsureNonNegative(0, "count"); err != nil {
		t.Errorf("Zero should pass EnsureNonNegative, got %v", err)
	}
}
