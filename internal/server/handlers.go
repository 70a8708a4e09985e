package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anthon-sd/ab-test-toolkit/internal/analytics"
	"github.com/anthon-sd/ab-test-toolkit/internal/form"
	"github.com/anthon-sd/ab-test-toolkit/internal/report"
	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

const maxBodyBytes = 1 << 20

type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

// SampleSizeRequest is a sample size form. Blank confidence and power take
// the configured defaults; FixedZ overrides the configured formula.
type SampleSizeRequest struct {
	form.SampleSizeForm
	FixedZ *bool `json:"fixedZ,omitempty"`
}

type SampleSizeResponse struct {
	SampleSize      int     `json:"sampleSize"`
	TotalSampleSize int     `json:"totalSampleSize"`
	KPIType         string  `json:"kpiType,omitempty"`
	BaselineRate    float64 `json:"baselineRate"`
	ExpectedUplift  float64 `json:"expectedUplift"`
	TargetRate      float64 `json:"targetRate"`
	ConfidenceLevel float64 `json:"confidenceLevel"`
	Power           float64 `json:"power"`
	FixedZ          bool    `json:"fixedZ"`
}

func (s *Server) handleSampleSize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	ev := analytics.NewEvent(analytics.CalculatorSampleSize, analytics.SourceHTTP)
	defer func() { s.track(r, &ev, start) }()

	var req SampleSizeRequest
	if ev.Err = decodeJSON(w, r, &req); ev.Err != nil {
		writeError(w, http.StatusBadRequest, ev.Err)
		return
	}
	defaultString(&req.ConfidenceLevel, s.cfg.SampleSize.ConfidenceLevel)
	defaultString(&req.Power, s.cfg.SampleSize.Power)
	fixed := s.cfg.SampleSize.FixedZ
	if req.FixedZ != nil {
		fixed = *req.FixedZ
	}

	params, err := req.Parse()
	if err != nil {
		ev.Err = err
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ev.Labels["kpi_type"] = string(params.KPIType)
	ev.Labels["fixed_z"] = strconv.FormatBool(fixed)
	ev.Values["baseline_rate"] = params.BaselineRate
	ev.Values["expected_uplift"] = params.ExpectedUplift

	var n int
	if fixed {
		n, err = stats.RequiredSampleSizeFixed(params)
	} else {
		n, err = stats.RequiredSampleSize(params)
	}
	if err != nil {
		ev.Err = err
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ev.Values["sample_size"] = float64(n)

	writeJSON(w, http.StatusOK, SampleSizeResponse{
		SampleSize:      n,
		TotalSampleSize: 2 * n,
		KPIType:         string(params.KPIType),
		BaselineRate:    params.BaselineRate,
		ExpectedUplift:  params.ExpectedUplift,
		TargetRate:      params.BaselineRate * (1 + params.ExpectedUplift),
		ConfidenceLevel: params.ConfidenceLevel,
		Power:           params.Power,
		FixedZ:          fixed,
	})
}

type RuntimeResponse struct {
	Days                int     `json:"days"`
	Weeks               int     `json:"weeks"`
	Months              int     `json:"months"`
	Duration            string  `json:"duration"`
	DailyVariantTraffic float64 `json:"dailyVariantTraffic"`
}

func (s *Server) handleRuntime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	ev := analytics.NewEvent(analytics.CalculatorRuntime, analytics.SourceHTTP)
	defer func() { s.track(r, &ev, start) }()

	var req form.RuntimeForm
	if ev.Err = decodeJSON(w, r, &req); ev.Err != nil {
		writeError(w, http.StatusBadRequest, ev.Err)
		return
	}
	in, err := req.Parse()
	if err != nil {
		ev.Err = err
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rt, err := stats.EstimateRuntime(in.SampleSize, in.DailyTraffic, in.SplitRatio)
	if err != nil {
		ev.Err = err
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ev.Values["sample_size"] = float64(in.SampleSize)
	ev.Values["daily_traffic"] = in.DailyTraffic
	ev.Values["split_ratio"] = in.SplitRatio
	ev.Values["days"] = float64(rt.Days)

	writeJSON(w, http.StatusOK, RuntimeResponse{
		Days:                rt.Days,
		Weeks:               rt.Weeks,
		Months:              rt.Months,
		Duration:            report.FormatDuration(rt.Days),
		DailyVariantTraffic: in.DailyTraffic * in.SplitRatio,
	})
}

// GroupSummary describes one arm with its own 95% interval: a Wilson
// interval on the rate for conversions, a normal interval on the mean
// otherwise.
type GroupSummary struct {
	Size        int        `json:"size"`
	Conversions int        `json:"conversions,omitempty"`
	Rate        float64    `json:"rate,omitempty"`
	Mean        float64    `json:"mean,omitempty"`
	StdDev      float64    `json:"stdDev,omitempty"`
	Interval    [2]float64 `json:"interval"`
}

type SignificanceResponse struct {
	MetricType         string       `json:"metricType"`
	Method             string       `json:"method"`
	PValue             float64      `json:"pValue"`
	ConfidenceInterval [2]float64   `json:"confidenceInterval"`
	RelativeUplift     float64      `json:"relativeUplift"`
	AbsoluteChange     float64      `json:"absoluteChange"`
	Significant        bool         `json:"significant"`
	EffectSize         float64      `json:"effectSize"`
	TestStatistic      *float64     `json:"testStatistic"`
	DegreesOfFreedom   float64      `json:"degreesOfFreedom,omitempty"`
	Winner             string       `json:"winner,omitempty"`
	Control            GroupSummary `json:"controlGroup"`
	Treatment          GroupSummary `json:"treatmentGroup"`
}

func summarize(metric stats.MetricType, g stats.GroupSample) GroupSummary {
	sum := GroupSummary{Size: g.Size}
	if metric == stats.MetricConversion {
		sum.Conversions = g.Conversions
		sum.Rate = g.Rate()
		sum.Interval[0], sum.Interval[1] = stats.WilsonInterval(g.Conversions, g.Size, 0.95)
		return sum
	}
	sum.Mean = g.Mean
	sum.StdDev = g.StdDev
	sum.Interval[0], sum.Interval[1] = stats.MeanInterval(g.Mean, g.StdDev, g.Size, 0.95)
	return sum
}

func (s *Server) handleSignificance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	ev := analytics.NewEvent(analytics.CalculatorSignificance, analytics.SourceHTTP)
	defer func() { s.track(r, &ev, start) }()

	var req form.SignificanceForm
	if ev.Err = decodeJSON(w, r, &req); ev.Err != nil {
		writeError(w, http.StatusBadRequest, ev.Err)
		return
	}
	results, err := req.Parse()
	if err != nil {
		ev.Err = err
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ev.Labels["metric_type"] = string(results.MetricType)

	res, err := stats.Significance(results)
	if err != nil {
		ev.Err = err
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ev.Labels["method"] = res.Method
	ev.Labels["significant"] = strconv.FormatBool(res.Significant)
	ev.Values["p_value"] = res.PValue
	ev.Values["relative_uplift"] = res.RelativeUplift

	writeJSON(w, http.StatusOK, SignificanceResponse{
		MetricType:         string(results.MetricType),
		Method:             res.Method,
		PValue:             res.PValue,
		ConfidenceInterval: res.ConfidenceInterval,
		RelativeUplift:     res.RelativeUplift,
		AbsoluteChange:     res.AbsoluteChange,
		Significant:        res.Significant,
		EffectSize:         res.EffectSize,
		TestStatistic:      finite(res.TestStatistic),
		DegreesOfFreedom:   res.DegreesOfFreedom,
		Winner:             string(report.Winner(res)),
		Control:            summarize(results.MetricType, results.Control),
		Treatment:          summarize(results.MetricType, results.Treatment),
	})
}

type Levels struct {
	Conservative float64 `json:"conservative"`
	Moderate     float64 `json:"moderate"`
	Aggressive   float64 `json:"aggressive"`
}

func levels(m stats.Multipliers) *Levels {
	return &Levels{Conservative: m.Conservative, Moderate: m.Moderate, Aggressive: m.Aggressive}
}

// VolatilityResponse always carries the KPI analysis. Uplifts and Targets
// are present only when the data had a usable dispersion; otherwise
// ErrorMessage or TargetsError says why.
type VolatilityResponse struct {
	Count                  int      `json:"count"`
	Mean                   *float64 `json:"mean"`
	StandardDeviation      *float64 `json:"standardDeviation"`
	StdDevModelUsed        string   `json:"stdDevModelUsed"`
	ErrorMessage           string   `json:"errorMessage,omitempty"`
	CoefficientOfVariation *float64 `json:"coefficientOfVariation,omitempty"`
	Uplifts                *Levels  `json:"uplifts,omitempty"`
	Targets                *Levels  `json:"targets,omitempty"`
	TargetsError           string   `json:"targetsError,omitempty"`
}

func (s *Server) handleVolatility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	ev := analytics.NewEvent(analytics.CalculatorVolatility, analytics.SourceHTTP)
	defer func() { s.track(r, &ev, start) }()

	var req form.VolatilityForm
	if ev.Err = decodeJSON(w, r, &req); ev.Err != nil {
		writeError(w, http.StatusBadRequest, ev.Err)
		return
	}
	opts, m := s.cfg.AnalyzeOptions(), s.cfg.Multipliers()
	if strings.TrimSpace(req.Model) == "" {
		req.Model = string(opts.Model)
	}
	if strings.TrimSpace(req.WindowSize) == "" {
		req.WindowSize = strconv.Itoa(opts.WindowSize)
	}
	defaultString(&req.Alpha, opts.Alpha)
	defaultString(&req.Conservative, m.Conservative)
	defaultString(&req.Moderate, m.Moderate)
	defaultString(&req.Aggressive, m.Aggressive)

	in, err := req.Parse()
	if err != nil {
		ev.Err = err
		writeError(w, http.StatusBadRequest, err)
		return
	}

	data := stats.AnalyzeKPI(in.Values, in.Options)
	ev.Labels["model"] = string(data.StdDevModelUsed)
	ev.Values["count"] = float64(len(data.Values))

	resp := VolatilityResponse{
		Count:             len(data.Values),
		Mean:              data.Mean,
		StandardDeviation: data.StandardDeviation,
		StdDevModelUsed:   string(data.StdDevModelUsed),
		ErrorMessage:      data.ErrorMessage,
	}

	if data.HasDispersion() {
		targets, err := stats.Targets(data, in.Multipliers)
		if err != nil {
			resp.TargetsError = err.Error()
		} else {
			cv := *data.StandardDeviation / *data.Mean
			resp.CoefficientOfVariation = &cv
			resp.Uplifts = levels(targets.Uplifts)
			resp.Targets = levels(targets.Targets)
			ev.Values["moderate_uplift"] = targets.Uplifts.Moderate
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) track(r *http.Request, ev *analytics.Event, start time.Time) {
	if id, ok := requestIDFrom(r.Context()); ok {
		ev.ID = id
	}
	ev.Duration = time.Since(start)
	s.observer.Observe(r.Context(), *ev)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON: " + err.Error())
	}
	return nil
}

// defaultString fills a blank form field with a configured value.
func defaultString(field *string, v float64) {
	if strings.TrimSpace(*field) == "" {
		*field = strconv.FormatFloat(v, 'f', -1, 64)
	}
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields []form.FieldError `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var fe *form.Error
	if errors.As(err, &fe) {
		resp.Fields = fe.Fields
	}
	writeJSON(w, status, resp)
}

// finite returns nil for values JSON cannot carry, such as the infinite
// statistic of two zero-variance groups with different means.
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// writeJSON marshals v before touching the response, so an encoding failure
// still yields a 500 with a body instead of a bare status line.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
