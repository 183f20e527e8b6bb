// Package sim provides power calculations for experiment design: closed-form
// approximations and seeded Monte Carlo estimates for mean and proportion
// comparisons. All randomness flows from an explicit seed, so results are
// deterministic given the inputs.
package sim

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"abx/domain/core"
	"abx/internal/logging"
)

// minMCReps is the repetition floor below which Monte Carlo estimates are
// too unstable to be useful.
const minMCReps = 1000

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

func validateCounts(nControl, nTreatment int) error {
	if err := core.EnsurePositiveInt(nControl, "n_control"); err != nil {
		return err
	}
	if err := core.EnsurePositiveInt(nTreatment, "n_treatment"); err != nil {
		return err
	}
	if nControl <= 1 || nTreatment <= 1 {
		return core.NewValidationError("sample sizes must exceed 1 for both groups")
	}
	return nil
}

func validateReps(reps int) error {
	if err := core.EnsurePositiveInt(reps, "reps"); err != nil {
		return err
	}
	if reps < minMCReps {
		return core.NewValidationError("Monte Carlo repetitions must be at least 1000 for stability")
	}
	return nil
}

// PowerMeanWelch approximates the power of Welch's test for a mean
// difference, assuming normal sampling distributions with known standard
// deviations. Accurate for moderate-to-large samples.
func PowerMeanWelch(meanControl, meanTreatment, stdControl, stdTreatment float64, nControl, nTreatment int, alpha float64, twoSided bool) (float64, error) {
	if err := validateCounts(nControl, nTreatment); err != nil {
		return 0, err
	}
	if err := core.EnsurePositive(stdControl, "std_control"); err != nil {
		return 0, err
	}
	if err := core.EnsurePositive(stdTreatment, "std_treatment"); err != nil {
		return 0, err
	}
	if err := core.EnsureProbability(alpha, "alpha", false); err != nil {
		return 0, err
	}

	se := math.Sqrt(stdControl*stdControl/float64(nControl) + stdTreatment*stdTreatment/float64(nTreatment))
	if se == 0 {
		return 0, core.NewStatError("standard error is zero; check inputs")
	}

	delta := (meanTreatment - meanControl) / se
	if twoSided {
		crit := stdNormal.Quantile(1 - alpha/2)
		return stdNormal.Survival(crit-delta) + stdNormal.CDF(-crit-delta), nil
	}
	crit := stdNormal.Quantile(1 - alpha)
	return stdNormal.Survival(crit - delta), nil
}

// PowerMeanMC estimates the power of Welch's t-test by simulation: reps
// normal experiments are drawn with the given seed and the rejection
// fraction is returned.
func PowerMeanMC(meanControl, meanTreatment, stdControl, stdTreatment float64, nControl, nTreatment int, alpha float64, twoSided bool, reps int, seed int64, log *logging.Logger) (float64, error) {
	if err := validateCounts(nControl, nTreatment); err != nil {
		return 0, err
	}
	if err := core.EnsurePositive(stdControl, "std_control"); err != nil {
		return 0, err
	}
	if err := core.EnsurePositive(stdTreatment, "std_treatment"); err != nil {
		return 0, err
	}
	if err := core.EnsureProbability(alpha, "alpha", false); err != nil {
		return 0, err
	}
	if err := validateReps(reps); err != nil {
		return 0, err
	}

	log = log.Child("sim.power_mean")
	log.Debug("power_mean_mc starting reps=%d n_control=%d n_treatment=%d two_sided=%v alpha=%v seed=%d",
		reps, nControl, nTreatment, twoSided, alpha, seed)

	rng := rand.New(rand.NewSource(seed))
	rejected := 0
	for rep := 0; rep < reps; rep++ {
		control := drawNormal(rng, meanControl, stdControl, nControl)
		treatment := drawNormal(rng, meanTreatment, stdTreatment, nTreatment)

		meanC, varC := meanAndVariance(control)
		meanT, varT := meanAndVariance(treatment)
		vc := varC / float64(nControl)
		vt := varT / float64(nTreatment)
		se := math.Sqrt(vc + vt)
		if se <= 0 {
			// Degenerate draw; count as no-reject.
			continue
		}
		tStat := (meanT - meanC) / se
		den := vc*vc/float64(nControl-1) + vt*vt/float64(nTreatment-1)
		df := math.Inf(1)
		if den > 0 {
			df = (vc + vt) * (vc + vt) / den
		}

		if twoSided {
			if math.Abs(tStat) > tCrit(1-alpha/2, df) {
				rejected++
			}
		} else if tStat > tCrit(1-alpha, df) {
			rejected++
		}
	}

	estimate := float64(rejected) / float64(reps)
	log.Debug("power_mean_mc completed power_estimate=%.4f", estimate)
	return estimate, nil
}

// PowerPropNormal approximates the power of the z-test for a difference in
// proportions, with the alternative distribution approximated by a normal
// built from the per-arm Bernoulli variances.
func PowerPropNormal(pControl, pTreatment float64, nControl, nTreatment int, alpha float64, twoSided bool) (float64, error) {
	if err := core.EnsureProbability(pControl, "p_control", true); err != nil {
		return 0, err
	}
	if err := core.EnsureProbability(pTreatment, "p_treatment", true); err != nil {
		return 0, err
	}
	if err := validateCounts(nControl, nTreatment); err != nil {
		return 0, err
	}
	if err := core.EnsureProbability(alpha, "alpha", false); err != nil {
		return 0, err
	}

	variance := pControl*(1-pControl)/float64(nControl) + pTreatment*(1-pTreatment)/float64(nTreatment)
	if variance <= 0 {
		return 0, core.NewValidationError("variance is zero; probabilities are degenerate for given sample sizes")
	}

	delta := (pTreatment - pControl) / math.Sqrt(variance)
	if twoSided {
		crit := stdNormal.Quantile(1 - alpha/2)
		return stdNormal.Survival(crit-delta) + stdNormal.CDF(-crit-delta), nil
	}
	crit := stdNormal.Quantile(1 - alpha)
	return stdNormal.Survival(crit - delta), nil
}

// PowerPropMC estimates conversion-test power by simulating binomial
// outcomes per arm and applying the pooled z-statistic.
func PowerPropMC(pControl, pTreatment float64, nControl, nTreatment int, alpha float64, twoSided bool, reps int, seed int64, log *logging.Logger) (float64, error) {
	if err := core.EnsureProbability(pControl, "p_control", true); err != nil {
		return 0, err
	}
	if err := core.EnsureProbability(pTreatment, "p_treatment", true); err != nil {
		return 0, err
	}
	if err := validateCounts(nControl, nTreatment); err != nil {
		return 0, err
	}
	if err := core.EnsureProbability(alpha, "alpha", false); err != nil {
		return 0, err
	}
	if err := validateReps(reps); err != nil {
		return 0, err
	}

	log = log.Child("sim.power_prop")
	log.Debug("power_prop_mc starting reps=%d n_control=%d n_treatment=%d two_sided=%v alpha=%v seed=%d",
		reps, nControl, nTreatment, twoSided, alpha, seed)

	rng := rand.New(rand.NewSource(seed))
	var crit float64
	if twoSided {
		crit = stdNormal.Quantile(1 - alpha/2)
	} else {
		crit = stdNormal.Quantile(1 - alpha)
	}

	rejected := 0
	for rep := 0; rep < reps; rep++ {
		scC := drawBinomial(rng, nControl, pControl)
		scT := drawBinomial(rng, nTreatment, pTreatment)

		propC := float64(scC) / float64(nControl)
		propT := float64(scT) / float64(nTreatment)
		pooled := float64(scC+scT) / float64(nControl+nTreatment)
		se := math.Sqrt(pooled * (1 - pooled) * (1/float64(nControl) + 1/float64(nTreatment)))
		if se <= 0 {
			continue
		}
		z := (propT - propC) / se

		if twoSided {
			if math.Abs(z) > crit {
				rejected++
			}
		} else if z > crit {
			rejected++
		}
	}

	estimate := float64(rejected) / float64(reps)
	log.Debug("power_prop_mc completed power_estimate=%.4f", estimate)
	return estimate, nil
}

func drawNormal(rng *rand.Rand, mean, std float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + std*rng.NormFloat64()
	}
	return out
}

func drawBinomial(rng *rand.Rand, n int, p float64) int {
	successes := 0
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			successes++
		}
	}
	return successes
}

func meanAndVariance(values []float64) (m, v float64) {
	n := float64(len(values))
	for _, x := range values {
		m += x
	}
	m /= n
	for _, x := range values {
		v += (x - m) * (x - m)
	}
	return m, v / (n - 1)
}

func tCrit(p, df float64) float64 {
	if math.IsInf(df, 1) {
		return stdNormal.Quantile(p)
	}
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(p)
}
