package metrics

import (
	"fmt"

	"github.com/kilianp07/wellcast/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink types in order.
func SinkTypes() []string { return sinkRegistry.Names() }

// HasSink reports whether a sink of the given type is configured.
func (c Config) HasSink(typ string) bool {
	for _, s := range c.Sinks {
		if s.Type == typ {
			return true
		}
	}
	return false
}

// NewMetricsSink builds the configured sinks. No sinks yields a NopSink,
// one sink is returned as is and several are fanned out through a
// MultiSink. Sinks built before a failure are closed.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	var sinks []MetricsSink
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			NewMultiSink(sinks...).Close()
			return nil, fmt.Errorf("metrics.sinks[%d]: %w", i, err)
		}
		sinks = append(sinks, s)
	}
	switch len(sinks) {
	case 0:
		return NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}
