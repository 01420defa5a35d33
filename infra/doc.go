// Package infra contains technical adapters such as the predictor gateway,
// the MQTT forecast publisher and the metrics sinks. These packages should
// depend only on the interfaces defined in the core packages.
package infra
