package analysis

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"abx/domain/ab"
	"abx/domain/core"
)

func buildFrame(t *testing.T, groups []ab.Group, metric []float64) *ab.Frame {
	t.Helper()
	userIDs := make([]string, len(groups))
	exposed := make([]bool, len(groups))
	for i := range groups {
		userIDs[i] = "u" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		exposed[i] = true
	}
	f, err := ab.NewFrame(groups, metric, userIDs, exposed)
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}
	return f
}

func TestCUPEDAdjust_ExactLinearCovariate(t *testing.T) {
	// metric = 2*covariate exactly, so theta = 2 and the adjusted column
	// collapses to a constant.
	covariate := []float64{1, 2, 3, 4, 5, 6}
	metric := make([]float64, len(covariate))
	for i, x := range covariate {
		metric[i] = 2 * x
	}
	groups := []ab.Group{ab.Control, ab.Control, ab.Control, ab.Treatment, ab.Treatment, ab.Treatment}
	f := buildFrame(t, groups, metric)

	adjusted, theta, err := CUPEDAdjust(f, covariate)
	if err != nil {
		t.Fatalf("CUPEDAdjust failed: %v", err)
	}
	if math.Abs(theta-2.0) > 1e-9 {
		t.Errorf("Expected theta 2.0, got %f", theta)
	}
	column, err := adjusted.Numeric(ab.CUPEDColumn)
	if err != nil {
		t.Fatalf("adjusted frame missing %s: %v", ab.CUPEDColumn, err)
	}
	for i, v := range column {
		if math.Abs(v) > 1e-9 {
			t.Errorf("Row %d: expected fully explained metric, got residual %f", i, v)
		}
	}
	// Original frame must stay untouched.
	if _, err := f.Numeric(ab.CUPEDColumn); err == nil {
		t.Error("CUPEDAdjust should not mutate the input frame")
	}
}

func TestCUPEDAdjust_ReducesVariance(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 400
	groups := make([]ab.Group, n)
	metric := make([]float64, n)
	covariate := make([]float64, n)
	for i := 0; i < n; i++ {
		groups[i] = ab.Control
		if i%2 == 1 {
			groups[i] = ab.Treatment
		}
		covariate[i] = rng.NormFloat64()
		metric[i] = 3 + 1.5*covariate[i] + 0.3*rng.NormFloat64()
	}
	f := buildFrame(t, groups, metric)

	adjusted, theta, err := CUPEDAdjust(f, covariate)
	if err != nil {
		t.Fatalf("CUPEDAdjust failed: %v", err)
	}
	if theta < 1.0 || theta > 2.0 {
		t.Errorf("Theta estimate %f far from the true slope 1.5", theta)
	}
	column, _ := adjusted.Numeric(ab.CUPEDColumn)
	if sampleVariance(column) >= sampleVariance(metric) {
		t.Errorf("Adjustment should reduce variance: %f vs %f",
			sampleVariance(column), sampleVariance(metric))
	}
}

func TestCUPEDAdjust_RejectsDegenerateCovariate(t *testing.T) {
	groups := []ab.Group{ab.Control, ab.Control, ab.Treatment, ab.Treatment}
	f := buildFrame(t, groups, []float64{1, 2, 3, 4})

	if _, _, err := CUPEDAdjust(f, []float64{5, 5, 5, 5}); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for a constant covariate, got %v", err)
	}
	if _, _, err := CUPEDAdjust(f, []float64{1, 2, 3}); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for a length mismatch, got %v", err)
	}
	if _, _, err := CUPEDAdjust(f, []float64{1, math.NaN(), 3, 4}); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for non-finite covariate values, got %v", err)
	}
}

type mapProvider map[string]float64

func (m mapProvider) GetCovariate(userIDs []string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, id := range userIDs {
		if v, ok := m[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func TestCUPEDAdjustWithProvider(t *testing.T) {
	groups := []ab.Group{ab.Control, ab.Control, ab.Treatment, ab.Treatment}
	metric := []float64{2, 4, 6, 8}
	f, err := ab.NewFrame(groups, metric, []string{"u1", "u2", "u3", "u4"}, []bool{true, true, true, true})
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}

	provider := mapProvider{"u1": 1, "u2": 2, "u3": 3, "u4": 4}
	adjusted, theta, err := CUPEDAdjustWithProvider(f, provider)
	if err != nil {
		t.Fatalf("CUPEDAdjustWithProvider failed: %v", err)
	}
	if math.Abs(theta-2.0) > 1e-9 {
		t.Errorf("Expected theta 2.0, got %f", theta)
	}
	if _, err := adjusted.Numeric(ab.CUPEDColumn); err != nil {
		t.Errorf("Adjusted frame missing CUPED column: %v", err)
	}

	// A user the provider cannot resolve fails the whole adjustment.
	_, _, err = CUPEDAdjustWithProvider(f, mapProvider{"u1": 1, "u2": 2, "u3": 3})
	if !core.IsValidationError(err) {
		t.Fatalf("Expected validation error for a missing user, got %v", err)
	}
	if !strings.Contains(err.Error(), "u4") {
		t.Errorf("Error should name the unresolved user, got %q", err.Error())
	}

	if _, _, err := CUPEDAdjustWithProvider(f, nil); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for a nil provider, got %v", err)
	}
}
