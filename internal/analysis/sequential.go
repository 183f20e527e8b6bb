package analysis

import (
	"gonum.org/v1/gonum/stat/distuv"

	"abx/domain/ab"
	"abx/domain/core"
)

func validateBinomial(successes, trials int, alpha float64) error {
	if err := core.EnsurePositiveInt(trials, "trials"); err != nil {
		return err
	}
	if err := core.EnsureNonNegative(float64(successes), "successes"); err != nil {
		return err
	}
	if successes > trials {
		return core.NewValidationError("successes must lie within [0, trials]")
	}
	return core.EnsureProbability(alpha, "alpha", false)
}

// clopperPearson inverts the exact binomial test through the inverse
// regularized incomplete beta function.
func clopperPearson(successes, trials int, alpha float64) (lower, upper float64, err error) {
	if err := validateBinomial(successes, trials, alpha); err != nil {
		return 0, 0, err
	}

	lower, upper = 0, 1
	if successes > 0 {
		lower = distuv.Beta{
			Alpha: float64(successes),
			Beta:  float64(trials - successes + 1),
		}.Quantile(alpha / 2)
	}
	if successes < trials {
		upper = distuv.Beta{
			Alpha: float64(successes + 1),
			Beta:  float64(trials - successes),
		}.Quantile(1 - alpha/2)
	}
	return lower, upper, nil
}

// BernoulliCIAnytime returns an anytime-valid confidence sequence for a
// Bernoulli success rate.
//
// The bounds are the Clopper-Pearson (exact) binomial interval. Inverting an
// exact test at every sample size yields a nonnegative supermartingale under
// the null, so the bounds remain valid under optional stopping, albeit
// conservatively wide.
func BernoulliCIAnytime(successes, trials int, alpha float64) (lower, upper float64, err error) {
	return clopperPearson(successes, trials, alpha)
}

// DiffCIAnytimeBinomial returns an anytime-valid interval for the difference
// of two Bernoulli rates (treatment - control).
//
// Marginal Clopper-Pearson intervals are built for each arm at level alpha/2
// and composed with a union bound. The result is wider than a
// joint-probability construction would give, which is the price of
// inheriting optional-stopping validity from the marginal intervals.
func DiffCIAnytimeBinomial(scC, nC, scT, nT int, alpha float64) (ab.RateDiffInterval, error) {
	lowerC, upperC, err := clopperPearson(scC, nC, alpha/2)
	if err != nil {
		return ab.RateDiffInterval{}, err
	}
	lowerT, upperT, err := clopperPearson(scT, nT, alpha/2)
	if err != nil {
		return ab.RateDiffInterval{}, err
	}

	return ab.RateDiffInterval{
		Estimate: float64(scT)/float64(nT) - float64(scC)/float64(nC),
		CILow:    lowerT - upperC,
		CIHigh:   upperT - lowerC,
	}, nil
}
