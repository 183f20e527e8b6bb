package app

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"abx/domain/ab"
	"abx/domain/core"
	"abx/domain/report"
	"abx/internal/analysis"
	"abx/internal/logging"
	"abx/ports"
)

// ReadoutRequest describes one experiment analysis pass over a frame the
// caller supplies and owns.
type ReadoutRequest struct {
	Experiment string
	Frame      *ab.Frame
	// Metrics lists the numeric columns to analyze; defaults to the
	// primary metric column.
	Metrics   []string
	Alpha     float64
	PExpected float64
	// Diagnose enables the per-covariate SRM search.
	Diagnose bool
	// Covariate, when set, applies CUPED to the primary metric. Provider
	// is consulted instead when Covariate is nil.
	Covariate []float64
	Provider  ports.CovariateProvider
}

// ReadoutService orchestrates a full experiment readout: the omnibus SRM
// check, exposure-triggered difference-in-means, a Welch interval per
// metric, and optional CUPED adjustment. Metrics are analyzed concurrently;
// each computation stays pure, so no synchronization beyond the fan-out is
// needed.
type ReadoutService struct {
	diagnostics analysis.DiagnosticsConfig
	repo        ports.ReportRepository
	log         *logging.Logger
}

// NewReadoutService creates a readout service. repo and log may be nil;
// without a repository readouts are returned but not persisted.
func NewReadoutService(diagnostics analysis.DiagnosticsConfig, repo ports.ReportRepository, log *logging.Logger) *ReadoutService {
	return &ReadoutService{
		diagnostics: diagnostics,
		repo:        repo,
		log:         log.Child("app.readout"),
	}
}

// Run executes the readout and persists it when a repository is configured.
func (s *ReadoutService) Run(ctx context.Context, req ReadoutRequest) (*report.Readout, error) {
	if req.Frame == nil {
		return nil, core.NewValidationError("frame is required")
	}
	if err := req.Frame.Validate(); err != nil {
		return nil, err
	}
	alpha := req.Alpha
	if alpha == 0 {
		alpha = 0.05
	}
	pExpected := req.PExpected
	if pExpected == 0 {
		pExpected = 0.5
	}
	metrics := req.Metrics
	if len(metrics) == 0 {
		metrics = []string{ab.MetricColumn}
	}
	if err := req.Frame.RequireNumeric(metrics...); err != nil {
		return nil, err
	}
	s.log.Debug("readout starting experiment=%q rows=%d metrics=%v", req.Experiment, req.Frame.Len(), metrics)

	srm, err := analysis.SRMFromFrame(req.Frame, pExpected)
	if err != nil {
		return nil, err
	}

	readout := &report.Readout{
		ID:         uuid.NewString(),
		Experiment: req.Experiment,
		SRM:        srm,
		CreatedAt:  time.Now().UTC(),
	}

	if req.Diagnose {
		diagnoser := analysis.NewSRMDiagnoser(s.diagnostics, s.log)
		diagnosis, err := diagnoser.Diagnose(req.Frame, nil)
		if err != nil {
			return nil, err
		}
		readout.Diagnosis = &diagnosis
	}

	exposed, err := analysis.FilterExposed(req.Frame)
	if err != nil {
		return nil, err
	}

	results := make([]report.MetricReadout, len(metrics))
	group, _ := errgroup.WithContext(ctx)
	for i, column := range metrics {
		group.Go(func() error {
			values, err := req.Frame.Numeric(column)
			if err != nil {
				return err
			}
			control, treatment := splitByArm(req.Frame.Groups(), values)
			welch, err := analysis.WelchDiffCI(control, treatment, alpha)
			if err != nil {
				return err
			}
			triggered, err := analysis.DiffInMeans(exposed, column)
			if err != nil {
				return err
			}
			results[i] = report.MetricReadout{Column: column, Welch: welch, Triggered: triggered}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Column < results[j].Column })
	readout.Metrics = results

	if req.Covariate != nil || req.Provider != nil {
		cuped, err := s.applyCUPED(req, alpha)
		if err != nil {
			return nil, err
		}
		readout.CUPED = cuped
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, readout); err != nil {
			return nil, err
		}
		s.log.Debug("readout %s persisted", readout.ID)
	}
	return readout, nil
}

func (s *ReadoutService) applyCUPED(req ReadoutRequest, alpha float64) (*report.CUPEDSummary, error) {
	var (
		adjusted *ab.Frame
		theta    float64
		err      error
	)
	if req.Covariate != nil {
		adjusted, theta, err = analysis.CUPEDAdjust(req.Frame, req.Covariate)
	} else {
		adjusted, theta, err = analysis.CUPEDAdjustWithProvider(req.Frame, req.Provider)
	}
	if err != nil {
		return nil, err
	}

	values, err := adjusted.Numeric(ab.CUPEDColumn)
	if err != nil {
		return nil, err
	}
	control, treatment := splitByArm(adjusted.Groups(), values)
	interval, err := analysis.WelchDiffCI(control, treatment, alpha)
	if err != nil {
		return nil, err
	}
	s.log.Debug("CUPED applied theta=%.6f", theta)
	return &report.CUPEDSummary{Theta: theta, Adjusted: interval}, nil
}

func splitByArm(groups []ab.Group, values []float64) (control, treatment []float64) {
	for i, g := range groups {
		switch g {
		case ab.Control:
			control = append(control, values[i])
		case ab.Treatment:
			treatment = append(treatment, values[i])
		}
	}
	return control, treatment
}
