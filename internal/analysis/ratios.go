package analysis

import (
	"math"

	"abx/domain/ab"
	"abx/domain/core"
)

// epsilon is the tolerance below which a denominator is treated as zero.
const epsilon = 1e-12

// groupStats computes the ratio of means and its delta-method log-scale
// variance for a single arm. The gradient of log(mean_num/mean_den) is
// [1/mean_num, -1/mean_den]; applying it to the covariance matrix of the
// two sample means yields VarLogRatio.
func groupStats(numerator, denominator []float64, label string) (ab.GroupStats, error) {
	if err := core.AssertSample(numerator, label+" numerator"); err != nil {
		return ab.GroupStats{}, err
	}
	if err := core.AssertSample(denominator, label+" denominator"); err != nil {
		return ab.GroupStats{}, err
	}
	if len(numerator) != len(denominator) {
		return ab.GroupStats{}, core.Validationf("%s numerator and denominator must have identical shapes", label)
	}
	for _, v := range denominator {
		if math.Abs(v) <= epsilon {
			return ab.GroupStats{}, core.Validationf("%s denominator contains values too close to zero for a stable ratio", label)
		}
	}

	n := len(numerator)
	meanNum := mean(numerator)
	meanDen := mean(denominator)
	if math.Abs(meanDen) <= epsilon {
		return ab.GroupStats{}, core.Validationf("%s denominator mean is too close to zero", label)
	}
	if math.Abs(meanNum) <= epsilon {
		return ab.GroupStats{}, core.Validationf("%s numerator mean is too close to zero", label)
	}

	ratio := meanNum / meanDen
	logRatio := math.Log(ratio)

	// Sample variances and covariance scaled for the mean.
	varNum := sampleVariance(numerator) / float64(n)
	varDen := sampleVariance(denominator) / float64(n)
	cov := sampleCovariance(numerator, denominator) / float64(n)

	varLogRatio := varNum/(meanNum*meanNum) + varDen/(meanDen*meanDen) - 2*cov/(meanNum*meanDen)
	if varLogRatio <= 0 {
		return ab.GroupStats{}, core.Statf("%s variance estimate is non-positive; check inputs", label)
	}

	return ab.GroupStats{
		Ratio:       ratio,
		LogRatio:    logRatio,
		VarLogRatio: varLogRatio,
		SampleSize:  n,
	}, nil
}

// RatioOfMeansCI computes a delta-method confidence interval for the
// treatment/control lift of a ratio metric. The interval is built on the log
// scale and back-transformed; the reported standard error is mapped to the
// ratio scale through the exponential transform.
//
// With welch=true the critical value is a Student-t quantile at the
// Welch-Satterthwaite degrees of freedom of the two arm log-variances (DF
// reported); with welch=false a standard-normal quantile is used and DF is
// absent.
func RatioOfMeansCI(numC, denC, numT, denT []float64, alpha float64, welch bool) (ab.ConfidenceInterval, error) {
	if err := core.EnsureProbability(alpha, "alpha", false); err != nil {
		return ab.ConfidenceInterval{}, err
	}

	control, err := groupStats(numC, denC, "control")
	if err != nil {
		return ab.ConfidenceInterval{}, err
	}
	treatment, err := groupStats(numT, denT, "treatment")
	if err != nil {
		return ab.ConfidenceInterval{}, err
	}

	logEffect := treatment.LogRatio - control.LogRatio
	variance := treatment.VarLogRatio + control.VarLogRatio
	if variance <= 0 {
		return ab.ConfidenceInterval{}, core.NewStatError("combined variance is non-positive; cannot form interval")
	}

	seLog := math.Sqrt(variance)
	estimate := math.Exp(logEffect)
	seRatio := estimate * seLog // delta method on the exp transform

	var crit float64
	var df *float64
	if welch {
		d := welchDF(treatment.VarLogRatio, control.VarLogRatio, treatment.SampleSize, control.SampleSize)
		crit = tQuantile(1-alpha/2, d)
		df = &d
	} else {
		crit = normalQuantile(1 - alpha/2)
	}

	return ab.ConfidenceInterval{
		Estimate: estimate,
		SE:       seRatio,
		CILow:    math.Exp(logEffect - crit*seLog),
		CIHigh:   math.Exp(logEffect + crit*seLog),
		DF:       df,
	}, nil
}
