package analysis

import (
	"gonum.org/v1/gonum/stat/distuv"

	"abx/domain/ab"
	"abx/domain/core"
)

// SRMTest runs the omnibus chi-square goodness-of-fit test of the observed
// arm counts against the expected allocation fraction (one degree of
// freedom). A small p-value signals a sample ratio mismatch: the observed
// split is unlikely under the intended allocation.
func SRMTest(nControl, nTreatment int, pExpected float64) (ab.SRMResult, error) {
	if nControl <= 0 || nTreatment <= 0 {
		return ab.SRMResult{}, core.NewValidationError("arm counts must be positive")
	}
	if err := core.EnsureProbability(pExpected, "p_expected", false); err != nil {
		return ab.SRMResult{}, err
	}

	nTotal := float64(nControl + nTreatment)
	eC := nTotal * pExpected
	eT := nTotal * (1 - pExpected)

	oC, oT := float64(nControl), float64(nTreatment)
	chi2 := (oC-eC)*(oC-eC)/eC + (oT-eT)*(oT-eT)/eT
	p := distuv.ChiSquared{K: 1}.Survival(chi2)

	return ab.SRMResult{
		Chi2:              chi2,
		PValue:            p,
		ExpectedControl:   eC,
		ExpectedTreatment: eT,
	}, nil
}

// SRMFromFrame reads the arm counts off a frame and applies SRMTest.
func SRMFromFrame(f *ab.Frame, pExpected float64) (ab.SRMResult, error) {
	if err := f.Validate(); err != nil {
		return ab.SRMResult{}, err
	}
	nC, nT := f.ArmCounts()
	if nC == 0 || nT == 0 {
		return ab.SRMResult{}, core.Validationf("both groups [%s %s] must be present", ab.Control, ab.Treatment)
	}
	return SRMTest(nC, nT, pExpected)
}
