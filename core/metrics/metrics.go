package metrics

import (
	"errors"

	"github.com/kilianp07/wellcast/core/model"
)

// MetricsSink records prediction outcomes for observability purposes.
type MetricsSink interface {
	RecordPrediction(ev model.PredictionEvent) error
}

// UpstreamRecorder records outbound predictor calls.
type UpstreamRecorder interface {
	RecordUpstreamCall(ev model.UpstreamCall) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(model.PredictionEvent) error { return nil }
func (NopSink) RecordUpstreamCall(model.UpstreamCall) error  { return nil }

// MultiSink fans events out to several sinks. Every sink is called even when
// an earlier one fails; the returned error joins all failures.
type MultiSink struct {
	Sinks []MetricsSink
}

func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordPrediction(ev model.PredictionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordPrediction(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordUpstreamCall forwards to sinks implementing UpstreamRecorder.
func (m *MultiSink) RecordUpstreamCall(ev model.UpstreamCall) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(UpstreamRecorder); ok {
			if err := rec.RecordUpstreamCall(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks that hold resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
