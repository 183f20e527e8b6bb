package ab

// Immutable result records. Each is constructed once by an analysis routine
// and never mutated afterwards, so downstream consumers need no defensive
// copies.

// ConfidenceInterval is a two-sided interval around a point estimate.
// DF is set only when a Student-t critical value was used; nil means the
// normal approximation applied.
type ConfidenceInterval struct {
	Estimate float64  `json:"estimate"`
	SE       float64  `json:"se"`
	CILow    float64  `json:"ci_low"`
	CIHigh   float64  `json:"ci_high"`
	DF       *float64 `json:"df,omitempty"`
}

// GroupStats holds the per-arm intermediates of the delta-method ratio
// calculation. Invariant: VarLogRatio > 0.
type GroupStats struct {
	Ratio       float64 `json:"ratio"`
	LogRatio    float64 `json:"log_ratio"`
	VarLogRatio float64 `json:"var_log_ratio"`
	SampleSize  int     `json:"sample_size"`
}

// RateDiffInterval is an anytime-valid interval for a difference of
// Bernoulli rates.
type RateDiffInterval struct {
	Estimate float64 `json:"estimate"`
	CILow    float64 `json:"ci_low"`
	CIHigh   float64 `json:"ci_high"`
}

// SRMResult reports the omnibus goodness-of-fit test of the observed arm
// split against the expected allocation.
type SRMResult struct {
	Chi2              float64 `json:"chi2"`
	PValue            float64 `json:"pvalue"`
	ExpectedControl   float64 `json:"expected_control"`
	ExpectedTreatment float64 `json:"expected_treatment"`
}

// ArmValues holds one value per experiment arm.
type ArmValues struct {
	Control   float64 `json:"control"`
	Treatment float64 `json:"treatment"`
}

// SuspectRecord is one covariate category flagged as contributing to a
// sample ratio mismatch. Category is MissingCategory when the flagged
// bucket collects missing values.
type SuspectRecord struct {
	Feature  string    `json:"feature"`
	Category string    `json:"category"`
	PValue   float64   `json:"pvalue"`
	Obs      ArmValues `json:"obs"`
	Exp      ArmValues `json:"exp"`
}

// SRMDiagnosis is the outcome of the per-covariate mismatch search,
// suspects sorted ascending by p-value.
type SRMDiagnosis struct {
	SRMP     float64         `json:"srm_p"`
	Suspects []SuspectRecord `json:"suspects"`
}

// DiffInMeansResult is the pooled difference-in-means readout used after
// exposure triggering. Z is +Inf when the standard error collapses to zero.
type DiffInMeansResult struct {
	NControl   int     `json:"n_c"`
	NTreatment int     `json:"n_t"`
	MeanC      float64 `json:"mean_c"`
	MeanT      float64 `json:"mean_t"`
	Diff       float64 `json:"diff"`
	SE         float64 `json:"se"`
	Z          float64 `json:"z"`
}
