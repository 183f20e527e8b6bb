package ui

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"abx/adapters/covariate"
	"abx/app"
	"abx/domain/ab"
	"abx/domain/core"
	"abx/internal/analysis"
	"abx/internal/sim"
)

// framePayload is the wire form of an ab.Frame.
type framePayload struct {
	Groups   []string             `json:"groups"`
	Metric   []float64            `json:"metric"`
	UserIDs  []string             `json:"user_ids"`
	Exposed  []bool               `json:"exposed"`
	Numeric  map[string][]float64 `json:"numeric,omitempty"`
	Category map[string][]string  `json:"category,omitempty"`
}

func (p framePayload) frame() (*ab.Frame, error) {
	groups := make([]ab.Group, len(p.Groups))
	for i, g := range p.Groups {
		switch ab.Group(g) {
		case ab.Control, ab.Treatment:
			groups[i] = ab.Group(g)
		default:
			return nil, core.Validationf("group value %q is neither control nor treatment", g)
		}
	}
	exposed := p.Exposed
	if exposed == nil {
		exposed = make([]bool, len(groups))
		for i := range exposed {
			exposed[i] = true
		}
	}
	userIDs := p.UserIDs
	if userIDs == nil {
		userIDs = make([]string, len(groups))
	}

	frame, err := ab.NewFrame(groups, p.Metric, userIDs, exposed)
	if err != nil {
		return nil, err
	}
	for name, values := range p.Numeric {
		frame, err = frame.WithNumeric(name, values)
		if err != nil {
			return nil, err
		}
	}
	for name, values := range p.Category {
		frame, err = frame.WithCategory(name, values)
		if err != nil {
			return nil, err
		}
	}
	return frame, nil
}

func (s *Server) handleWelch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Control   []float64 `json:"control"`
		Treatment []float64 `json:"treatment"`
		Alpha     float64   `json:"alpha"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	ci, err := analysis.WelchDiffCI(req.Control, req.Treatment, req.Alpha)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ci)
}

func (s *Server) handleRatio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NumControl   []float64 `json:"num_control"`
		DenControl   []float64 `json:"den_control"`
		NumTreatment []float64 `json:"num_treatment"`
		DenTreatment []float64 `json:"den_treatment"`
		Alpha        float64   `json:"alpha"`
		Welch        bool      `json:"welch"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	ci, err := analysis.RatioOfMeansCI(req.NumControl, req.DenControl, req.NumTreatment, req.DenTreatment, req.Alpha, req.Welch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ci)
}

func (s *Server) handleCUPED(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Frame     framePayload `json:"frame"`
		Covariate []float64    `json:"covariate"`
		Alpha     float64      `json:"alpha"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	frame, err := req.Frame.frame()
	if err != nil {
		writeError(w, err)
		return
	}
	adjusted, theta, err := analysis.CUPEDAdjust(frame, req.Covariate)
	if err != nil {
		writeError(w, err)
		return
	}
	values, err := adjusted.Numeric(ab.CUPEDColumn)
	if err != nil {
		writeError(w, err)
		return
	}
	var control, treatment []float64
	for i, g := range adjusted.Groups() {
		if g == ab.Control {
			control = append(control, values[i])
		} else {
			treatment = append(treatment, values[i])
		}
	}
	alpha := req.Alpha
	if alpha == 0 {
		alpha = 0.05
	}
	ci, err := analysis.WelchDiffCI(control, treatment, alpha)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"theta": theta, "adjusted": ci})
}

func (s *Server) handleSequentialBernoulli(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Successes int     `json:"successes"`
		Trials    int     `json:"trials"`
		Alpha     float64 `json:"alpha"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	lower, upper, err := analysis.BernoulliCIAnytime(req.Successes, req.Trials, req.Alpha)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"ci_low": lower, "ci_high": upper})
}

func (s *Server) handleSequentialDiff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SuccessesControl   int     `json:"successes_control"`
		TrialsControl      int     `json:"trials_control"`
		SuccessesTreatment int     `json:"successes_treatment"`
		TrialsTreatment    int     `json:"trials_treatment"`
		Alpha              float64 `json:"alpha"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	interval, err := analysis.DiffCIAnytimeBinomial(req.SuccessesControl, req.TrialsControl, req.SuccessesTreatment, req.TrialsTreatment, req.Alpha)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, interval)
}

func (s *Server) handleSRM(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NControl   int     `json:"n_control"`
		NTreatment int     `json:"n_treatment"`
		PExpected  float64 `json:"p_expected"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PExpected == 0 {
		req.PExpected = 0.5
	}
	result, err := analysis.SRMTest(req.NControl, req.NTreatment, req.PExpected)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSRMDiagnose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Frame    framePayload `json:"frame"`
		Features []string     `json:"features"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	frame, err := req.Frame.frame()
	if err != nil {
		writeError(w, err)
		return
	}
	diagnoser := analysis.NewSRMDiagnoser(s.diagnostics, s.log)
	diagnosis, err := diagnoser.Diagnose(frame, req.Features)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diagnosis)
}

func (s *Server) handleTriggered(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Frame  framePayload `json:"frame"`
		Column string       `json:"column"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	frame, err := req.Frame.frame()
	if err != nil {
		writeError(w, err)
		return
	}
	column := req.Column
	if column == "" {
		column = ab.MetricColumn
	}
	exposed, err := analysis.FilterExposed(frame)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := analysis.DiffInMeans(exposed, column)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePowerMean(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MeanControl   float64 `json:"mean_control"`
		MeanTreatment float64 `json:"mean_treatment"`
		StdControl    float64 `json:"std_control"`
		StdTreatment  float64 `json:"std_treatment"`
		NControl      int     `json:"n_control"`
		NTreatment    int     `json:"n_treatment"`
		Alpha         float64 `json:"alpha"`
		TwoSided      bool    `json:"two_sided"`
		Reps          int     `json:"reps"`
		Seed          int64   `json:"seed"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	var power float64
	var err error
	if req.Reps > 0 {
		power, err = sim.PowerMeanMC(req.MeanControl, req.MeanTreatment, req.StdControl, req.StdTreatment,
			req.NControl, req.NTreatment, req.Alpha, req.TwoSided, req.Reps, req.Seed, s.log)
	} else {
		power, err = sim.PowerMeanWelch(req.MeanControl, req.MeanTreatment, req.StdControl, req.StdTreatment,
			req.NControl, req.NTreatment, req.Alpha, req.TwoSided)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"power": power})
}

func (s *Server) handlePowerProp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PControl   float64 `json:"p_control"`
		PTreatment float64 `json:"p_treatment"`
		NControl   int     `json:"n_control"`
		NTreatment int     `json:"n_treatment"`
		Alpha      float64 `json:"alpha"`
		TwoSided   bool    `json:"two_sided"`
		Reps       int     `json:"reps"`
		Seed       int64   `json:"seed"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	var power float64
	var err error
	if req.Reps > 0 {
		power, err = sim.PowerPropMC(req.PControl, req.PTreatment, req.NControl, req.NTreatment,
			req.Alpha, req.TwoSided, req.Reps, req.Seed, s.log)
	} else {
		power, err = sim.PowerPropNormal(req.PControl, req.PTreatment, req.NControl, req.NTreatment,
			req.Alpha, req.TwoSided)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"power": power})
}

func (s *Server) handleRunReadout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Experiment string             `json:"experiment"`
		Frame      framePayload       `json:"frame"`
		Metrics    []string           `json:"metrics"`
		Alpha      float64            `json:"alpha"`
		PExpected  float64            `json:"p_expected"`
		Diagnose   bool               `json:"diagnose"`
		Covariate  []float64          `json:"covariate"`
		Lookup     map[string]float64 `json:"covariate_by_user"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	frame, err := req.Frame.frame()
	if err != nil {
		writeError(w, err)
		return
	}
	runReq := app.ReadoutRequest{
		Experiment: req.Experiment,
		Frame:      frame,
		Metrics:    req.Metrics,
		Alpha:      req.Alpha,
		PExpected:  req.PExpected,
		Diagnose:   req.Diagnose,
		Covariate:  req.Covariate,
	}
	if req.Covariate == nil && req.Lookup != nil {
		runReq.Provider = covariate.NewLookupProvider(req.Lookup)
	}
	readout, err := s.readouts.Run(r.Context(), runReq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readout)
}

func (s *Server) handleGetReadout(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, core.NewValidationError("no report repository configured"))
		return
	}
	readout, err := s.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readout)
}

func (s *Server) handleListReadouts(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, core.NewValidationError("no report repository configured"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	readouts, err := s.repo.ListByExperiment(r.Context(), chi.URLParam(r, "experiment"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readouts)
}
