package analysis

import (
	"math"

	"abx/domain/ab"
	"abx/domain/core"
)

// FilterExposed returns the subset of rows where the exposure flag is true,
// i.e. the users who had a chance to be affected by the treatment.
func FilterExposed(f *ab.Frame) (*ab.Frame, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var rows []int
	for i, exposed := range f.Exposed() {
		if exposed {
			rows = append(rows, i)
		}
	}
	return f.Select(rows), nil
}

// DiffInMeans computes the difference in means of the named column between
// treatment and control with a pooled standard error and a z approximation.
// Z is +Inf when the standard error is zero.
func DiffInMeans(f *ab.Frame, column string) (ab.DiffInMeansResult, error) {
	values, err := f.Numeric(column)
	if err != nil {
		return ab.DiffInMeansResult{}, err
	}
	control, treatment := splitByArm(f.Groups(), values)
	if len(control) == 0 || len(treatment) == 0 {
		return ab.DiffInMeansResult{}, core.Validationf("both groups [%s %s] must be present", ab.Control, ab.Treatment)
	}
	if err := core.AssertSample(control, "control "+column); err != nil {
		return ab.DiffInMeansResult{}, err
	}
	if err := core.AssertSample(treatment, "treatment "+column); err != nil {
		return ab.DiffInMeansResult{}, err
	}

	nC, nT := len(control), len(treatment)
	meanC, meanT := mean(control), mean(treatment)
	varC, varT := sampleVariance(control), sampleVariance(treatment)

	se := math.Sqrt(varC/float64(nC) + varT/float64(nT))
	z := math.Inf(1)
	if se > 0 {
		z = (meanT - meanC) / se
	}

	return ab.DiffInMeansResult{
		NControl:   nC,
		NTreatment: nT,
		MeanC:      meanC,
		MeanT:      meanT,
		Diff:       meanT - meanC,
		SE:         se,
		Z:          z,
	}, nil
}
