package report

import (
	"time"

	"abx/domain/ab"
)

// CUPEDSummary records the covariate adjustment applied to the primary
// metric and the interval recomputed on the adjusted column.
type CUPEDSummary struct {
	Theta    float64               `json:"theta"`
	Adjusted ab.ConfidenceInterval `json:"adjusted"`
}

// MetricReadout is the per-metric slice of a readout.
type MetricReadout struct {
	Column    string                `json:"column"`
	Welch     ab.ConfidenceInterval `json:"welch"`
	Triggered ab.DiffInMeansResult  `json:"triggered"`
}

// Readout is the complete result record of one experiment analysis pass.
// It is assembled once by the readout service and never mutated.
type Readout struct {
	ID         string           `json:"id"`
	Experiment string           `json:"experiment"`
	SRM        ab.SRMResult     `json:"srm"`
	Diagnosis  *ab.SRMDiagnosis `json:"diagnosis,omitempty"`
	CUPED      *CUPEDSummary    `json:"cuped,omitempty"`
	Metrics    []MetricReadout  `json:"metrics"`
	CreatedAt  time.Time        `json:"created_at"`
}
