// Package metrics defines the sinks that observe prediction traffic. Sinks
// such as PromSink and InfluxSink (infra/metrics) record one PredictionEvent
// per handled request and may additionally implement UpstreamRecorder to
// observe calls to the external predictor. NewMetricsSink builds sinks from
// configuration and wraps several of them in a MultiSink.
package metrics
