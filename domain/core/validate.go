package core

import "math"

// Reusable precondition checks shared by every analysis entry point. Each
// helper names the offending field and the violated constraint in its error.

// EnsurePositiveInt validates that value is a strictly positive integer.
func EnsurePositiveInt(value int, name string) error {
	if value <= 0 {
		return Validationf("%s must be a positive integer", name)
	}
	return nil
}

// EnsureNonNegative validates that value is zero or positive.
func EnsureNonNegative(value float64, name string) error {
	if value < 0 {
		return Validationf("%s must be non-negative", name)
	}
	return nil
}

// EnsurePositive validates that value is strictly positive.
func EnsurePositive(value float64, name string) error {
	if value <= 0 {
		return Validationf("%s must be positive", name)
	}
	return nil
}

// EnsureProbability validates that value lies inside the probability
// interval: [0, 1] when inclusive, (0, 1) otherwise.
func EnsureProbability(value float64, name string, inclusive bool) error {
	if inclusive {
		if value < 0 || value > 1 || math.IsNaN(value) {
			return Validationf("%s must lie in [0, 1]", name)
		}
		return nil
	}
	if value <= 0 || value >= 1 || math.IsNaN(value) {
		return Validationf("%s must lie in (0, 1)", name)
	}
	return nil
}

// AssertNumeric validates that every observation in values is finite.
func AssertNumeric(values []float64, name string) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Validationf("%s contains non-finite values", name)
		}
	}
	return nil
}

// AssertSample validates a one-dimensional observation set: at least two
// finite values, the minimum for a sample variance.
func AssertSample(values []float64, name string) error {
	if len(values) < 2 {
		return Validationf("%s must contain at least two observations", name)
	}
	return AssertNumeric(values, name)
}
