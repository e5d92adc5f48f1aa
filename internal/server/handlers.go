package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/pairwise-alpha/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/pairwise-alpha/internal/metrics"
	"github.com/rxtech-lab/pairwise-alpha/internal/report"
	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/pkg/errors"
)

// Chart names served by /api/v1/analysis/charts/{chart}.
const (
	ChartLag    = "lag"
	ChartEquity = "equity"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	result, err := s.analyze(r)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, report.ToReport(result))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	chart := mux.Vars(r)["chart"]
	if chart != ChartLag && chart != ChartEquity {
		writeError(w, errors.Newf(errors.ErrCodeInvalidParameter, "unknown chart %q, expected %s or %s", chart, ChartLag, ChartEquity))

		return
	}

	result, err := s.analyze(r)
	if err != nil {
		writeError(w, err)

		return
	}

	var png []byte
	if chart == ChartLag {
		png, err = report.RenderLagChart(result.LagTable)
	} else {
		png, err = report.RenderEquityChart(result.Target+" portfolio value", result.Portfolio)
	}

	if err != nil {
		// An empty lag table or portfolio has nothing to draw.
		writeError(w, errors.Wrap(errors.ErrCodeNoDataFound, "nothing to chart", err))

		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// analyze runs one analysis configured by the request query.
func (s *Server) analyze(r *http.Request) (types.AnalysisResult, error) {
	cfg, err := configFromQuery(s.defaults, r.URL.Query())
	if err != nil {
		return types.AnalysisResult{}, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	started := time.Now()

	eng := enginev1.NewBacktestEngineV1WithLogger(s.log)
	if err := eng.InitializeWithConfig(cfg); err != nil {
		return types.AnalysisResult{}, err
	}

	if err := eng.SetPriceSource(s.source); err != nil {
		return types.AnalysisResult{}, err
	}

	onLagSelected := engine.OnLagSelectedCallback(func(_ string, lag optional.Option[int]) error {
		s.metrics.SetSelectedLag(cfg.Anchor, cfg.Target, lag.TakeOr(-1))

		return nil
	})

	result, err := eng.Run(ctx, engine.LifecycleCallbacks{OnLagSelected: &onLagSelected})
	s.metrics.ObserveAnalysis(outcome(result, err), time.Since(started))

	if err != nil {
		s.log.Warn("Analysis failed",
			zap.String("anchor", cfg.Anchor),
			zap.String("target", cfg.Target),
			zap.Error(err),
		)

		return types.AnalysisResult{}, err
	}

	return result, nil
}

// configFromQuery applies the query parameters on top of defaults.
func configFromQuery(defaults enginev1.BacktestEngineV1Config, query url.Values) (enginev1.BacktestEngineV1Config, error) {
	cfg := defaults

	if v := query.Get("anchor"); v != "" {
		cfg.Anchor = v
	}

	if v := query.Get("target"); v != "" {
		cfg.Target = v
	}

	if v := query.Get("interval"); v != "" {
		cfg.Interval = v
	}

	for name, dst := range map[string]*optional.Option[time.Time]{"start": &cfg.StartTime, "end": &cfg.EndTime} {
		v := query.Get(name)
		if v == "" {
			continue
		}

		t, err := parseTime(v)
		if err != nil {
			return cfg, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid %s", name)
		}

		*dst = optional.Some(t)
	}

	if v := query.Get("max_lag"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid max_lag", err)
		}

		cfg.MaxLag = n
	}

	floats := map[string]*float64{
		"corr_threshold":   &cfg.CorrThreshold,
		"return_threshold": &cfg.ReturnThreshold,
		"starting_capital": &cfg.StartingCapital,
	}

	for name, dst := range floats {
		v := query.Get(name)
		if v == "" {
			continue
		}

		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid %s", name)
		}

		*dst = f
	}

	return cfg, nil
}

// parseTime accepts RFC 3339 timestamps and plain dates.
func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}

	return time.Parse(time.DateOnly, v)
}

func outcome(result types.AnalysisResult, err error) string {
	switch {
	case err == nil && result.SelectedLag.IsSome():
		return metrics.OutcomeLagFound
	case err == nil:
		return metrics.OutcomeNoLag
	case errors.IsInsufficientDataError(err):
		return metrics.OutcomeInsufficient
	case errors.IsUpstreamFetchError(err):
		return metrics.OutcomeUpstreamError
	default:
		return metrics.OutcomeError
	}
}

// statusFor maps an analysis error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.IsInsufficientDataError(err):
		return http.StatusUnprocessableEntity
	case errors.IsUpstreamFetchError(err):
		return http.StatusBadGateway
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.HasCode(err, errors.ErrCodeInvalidParameter),
		errors.HasCode(err, errors.ErrCodeInvalidConfiguration),
		errors.HasCode(err, errors.ErrCodeVersionMismatch):
		return http.StatusBadRequest
	case errors.HasCode(err, errors.ErrCodeNoDataFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError omits the code of errors that carry none.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	if code := errors.GetCode(err); code != errors.ErrCodeUnknown {
		resp.Code = int(code)
	}

	writeJSON(w, statusFor(err), resp)
}
