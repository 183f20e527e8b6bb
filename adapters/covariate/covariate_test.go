package covariate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abx/domain/core"
)

func TestLookupProvider(t *testing.T) {
	table := map[string]float64{"u1": 1.5, "u2": 2.5}
	provider := NewLookupProvider(table)

	values, err := provider.GetCovariate([]string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, 1.5, values["u1"])
	assert.Equal(t, 2.5, values["u2"])

	_, err = provider.GetCovariate([]string{"u1", "u3"})
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
	assert.Contains(t, err.Error(), "u3")

	// Mutating the source table after construction must not leak in.
	table["u1"] = 99
	values, err = provider.GetCovariate([]string{"u1"})
	require.NoError(t, err)
	assert.Equal(t, 1.5, values["u1"])
}

func TestConstantProvider(t *testing.T) {
	provider := ConstantProvider{Value: 3.14}
	values, err := provider.GetCovariate([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 3.14, values["a"])
	assert.Equal(t, 3.14, values["b"])
}

func TestFitLinearProvider_RecoversExactLine(t *testing.T) {
	trainFeatures := map[string]float64{"u1": 1, "u2": 2, "u3": 3, "u4": 4}
	trainOutcomes := map[string]float64{}
	for id, x := range trainFeatures {
		trainOutcomes[id] = 3 + 2*x
	}
	serve := map[string]float64{"v1": 10}

	provider, err := FitLinearProvider(trainFeatures, trainOutcomes, serve)
	require.NoError(t, err)

	alpha, beta := provider.Coefficients()
	assert.InDelta(t, 3.0, alpha, 1e-9)
	assert.InDelta(t, 2.0, beta, 1e-9)

	values, err := provider.GetCovariate([]string{"v1"})
	require.NoError(t, err)
	assert.InDelta(t, 23.0, values["v1"], 1e-9)

	_, err = provider.GetCovariate([]string{"v2"})
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
}

func TestFitLinearProvider_Degenerate(t *testing.T) {
	_, err := FitLinearProvider(
		map[string]float64{"u1": 1},
		map[string]float64{"u1": 2},
		nil,
	)
	assert.True(t, core.IsValidationError(err), "too little training data: %v", err)

	_, err = FitLinearProvider(
		map[string]float64{"u1": 5, "u2": 5, "u3": 5},
		map[string]float64{"u1": 1, "u2": 2, "u3": 3},
		nil,
	)
	assert.True(t, core.IsStatError(err), "zero feature spread: %v", err)
}
