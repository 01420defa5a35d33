package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/wellcast/core/band"
	"github.com/kilianp07/wellcast/core/baseline"
	"github.com/kilianp07/wellcast/core/features"
	"github.com/kilianp07/wellcast/core/logger"
	coremetrics "github.com/kilianp07/wellcast/core/metrics"
	"github.com/kilianp07/wellcast/core/model"
	coremon "github.com/kilianp07/wellcast/core/monitoring"
	"github.com/kilianp07/wellcast/internal/eventbus"
)

// Upstream is the external predictor as seen by the service.
type Upstream interface {
	// Forward relays raw and returns the predictor's answer unmodified.
	Forward(ctx context.Context, raw []byte) (map[string]any, error)
	// Predict relays raw and returns a validated result.
	Predict(ctx context.Context, raw []byte) (model.PredictionResult, error)
}

// Config drives the service behaviour.
type Config struct {
	Mode Mode
	// MAE is the band width used for locally built bands.
	MAE float64
	// Strict selects Upstream.Predict over Upstream.Forward.
	Strict bool
	// Fallback answers with the baseline when the predictor is unavailable.
	Fallback bool
}

// Outcome is the answer to one request. Raw is set instead of Result when
// the predictor's answer is relayed unchanged.
type Outcome struct {
	RequestID string
	Result    model.PredictionResult
	Raw       map[string]any
	Source    model.Source
}

// Service produces forecasts. It is safe for concurrent use.
type Service struct {
	cfg      Config
	est      *baseline.Estimator
	upstream Upstream
	sink     coremetrics.MetricsSink
	bus      *eventbus.Bus[model.PredictionEvent]
	mon      coremon.Monitor
	log      logger.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

func WithMetrics(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

func WithBus(b *eventbus.Bus[model.PredictionEvent]) Option { return func(svc *Service) { svc.bus = b } }

func WithMonitor(m coremon.Monitor) Option { return func(svc *Service) { svc.mon = m } }

func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// NewService validates cfg and builds a Service. upstream may be nil only in
// baseline mode.
func NewService(cfg Config, est *baseline.Estimator, upstream Upstream, log logger.Logger, opts ...Option) (*Service, error) {
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("unknown predictor mode %q", cfg.Mode)
	}
	if err := band.Validate(cfg.MAE); err != nil {
		return nil, err
	}
	if cfg.Mode == ModeRemote && upstream == nil {
		return nil, errors.New("remote mode requires an upstream predictor")
	}
	if est == nil {
		est = baseline.Default()
	}
	s := &Service{
		cfg:      cfg,
		est:      est,
		upstream: upstream,
		sink:     coremetrics.NopSink{},
		mon:      coremon.NopMonitor{},
		log:      log,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Mode returns the configured mode.
func (s *Service) Mode() Mode { return s.cfg.Mode }

// MAE returns the band width used for local bands.
func (s *Service) MAE() float64 { return s.cfg.MAE }

// Estimator returns the baseline estimator in use.
func (s *Service) Estimator() *baseline.Estimator { return s.est }

// Predict validates raw and returns a forecast. Errors are one of the
// model error types; KindOf classifies them.
func (s *Service) Predict(ctx context.Context, raw []byte) (Outcome, error) {
	start := s.now()
	out := Outcome{RequestID: RequestIDFrom(ctx)}
	if out.RequestID == "" {
		out.RequestID = uuid.NewString()
	}

	out, err := s.predict(ctx, raw, out)
	s.emit(out, err, start)
	return out, err
}

func (s *Service) predict(ctx context.Context, raw []byte, out Outcome) (Outcome, error) {
	f, err := features.Validate(raw)
	if err != nil {
		return out, err
	}

	if s.cfg.Mode == ModeBaseline {
		out.Result = s.Baseline(f)
		out.Source = model.SourceBaseline
		return out, nil
	}

	if s.cfg.Strict {
		res, err := s.upstream.Predict(ctx, raw)
		if err == nil {
			out.Result = res
			out.Source = model.SourceUpstream
			return out, nil
		}
		return s.fallback(f, out, err)
	}

	body, err := s.upstream.Forward(ctx, raw)
	if err != nil {
		return s.fallback(f, out, err)
	}
	out.Raw = body
	out.Source = model.SourceUpstream
	return out, nil
}

// fallback answers with the baseline when allowed. Only an unavailable
// predictor qualifies; contract violations are surfaced.
func (s *Service) fallback(f model.WellFeatures, out Outcome, cause error) (Outcome, error) {
	var uerr *model.UpstreamUnavailableError
	if !s.cfg.Fallback || !errors.As(cause, &uerr) {
		return out, cause
	}
	res := s.Baseline(f)
	res.Source = model.SourceBaselineFallback
	res.Fallback = true
	res.FallbackReason = cause.Error()
	out.Result = res
	out.Source = model.SourceBaselineFallback
	s.log.Warnf("predictor unavailable, answered with baseline: %v", cause)
	return out, nil
}

// Baseline computes the local forecast for already validated features.
func (s *Service) Baseline(f model.WellFeatures) model.PredictionResult {
	p50 := s.est.Estimate(f)
	p10, p90 := band.Build(p50, s.cfg.MAE)
	return model.PredictionResult{
		P50:    p50,
		P10:    p10,
		P90:    p90,
		MAE:    s.cfg.MAE,
		Source: model.SourceBaseline,
	}
}

func (s *Service) emit(out Outcome, err error, start time.Time) {
	ev := model.PredictionEvent{
		RequestID: out.RequestID,
		Source:    out.Source,
		Latency:   s.now().Sub(start),
		Time:      start,
	}
	if err != nil {
		ev.Kind, _ = model.KindOf(err)
		ev.Error = err.Error()
		if ev.Kind == model.KindUpstreamUnavailable || ev.Kind == model.KindMalformedUpstream {
			s.mon.CaptureException(err, map[string]string{
				"module":     "prediction",
				"kind":       string(ev.Kind),
				"request_id": out.RequestID,
			})
		}
	} else if out.Raw == nil {
		r := out.Result
		ev.P10, ev.P50, ev.P90, ev.MAE = r.P10, r.P50, r.P90, r.MAE
		ev.Fallback, ev.FallbackReason = r.Fallback, r.FallbackReason
	}

	if rerr := s.sink.RecordPrediction(ev); rerr != nil {
		s.log.Warnf("record prediction %s: %v", out.RequestID, rerr)
	}
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
