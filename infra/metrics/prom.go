package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/wellcast/core/metrics"
	"github.com/kilianp07/wellcast/core/model"
)

// PromSink exposes prediction traffic as Prometheus metrics.
type PromSink struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	p50       *prometheus.HistogramVec
	upstream  *prometheus.CounterVec
	upLatency prometheus.Histogram
	fallbacks prometheus.Counter
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer defaults
// to the global one. Collectors already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellcast_predictions_total",
			Help: "Prediction requests by source and error kind",
		}, []string{"source", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wellcast_prediction_duration_seconds",
			Help:    "Time to answer a prediction request",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		p50: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wellcast_forecast_p50_barrels",
			Help:    "Distribution of median twelve-month forecasts",
			Buckets: prometheus.LinearBuckets(0, 25000, 12),
		}, []string{"source"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellcast_upstream_calls_total",
			Help: "Calls to the external predictor by HTTP status",
		}, []string{"status", "timeout"}),
		upLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellcast_upstream_duration_seconds",
			Help:    "Latency of calls to the external predictor",
			Buckets: prometheus.DefBuckets,
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellcast_fallbacks_total",
			Help: "Predictions answered by the baseline after an upstream failure",
		}),
	}

	var err error
	if s.requests, err = register(reg, s.requests); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.p50, err = register(reg, s.p50); err != nil {
		return nil, err
	}
	if s.upstream, err = register(reg, s.upstream); err != nil {
		return nil, err
	}
	if s.upLatency, err = register(reg, s.upLatency); err != nil {
		return nil, err
	}
	if s.fallbacks, err = register(reg, s.fallbacks); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPrediction counts the request and observes its latency. Failed
// requests are labelled with their error kind.
func (s *PromSink) RecordPrediction(ev model.PredictionEvent) error {
	src := string(ev.Source)
	if src == "" {
		src = "none"
	}
	s.requests.WithLabelValues(src, string(ev.Kind)).Inc()
	s.latency.WithLabelValues(src).Observe(ev.Latency.Seconds())
	if ev.OK() {
		s.p50.WithLabelValues(src).Observe(float64(ev.P50))
	}
	if ev.Fallback {
		s.fallbacks.Inc()
	}
	return nil
}

func (s *PromSink) RecordUpstreamCall(ev model.UpstreamCall) error {
	s.upstream.WithLabelValues(strconv.Itoa(ev.StatusCode), strconv.FormatBool(ev.Timeout)).Inc()
	s.upLatency.Observe(ev.Latency.Seconds())
	return nil
}

var _ coremetrics.UpstreamRecorder = (*PromSink)(nil)
