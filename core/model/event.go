package model

import "time"

// PredictionEvent describes one handled prediction request, successful or
// not. Kind is empty on success. It carries outcome fields only; well
// features are never copied into events.
type PredictionEvent struct {
	RequestID      string        `json:"request_id"`
	Source         Source        `json:"source,omitempty"`
	Kind           Kind          `json:"kind,omitempty"`
	Error          string        `json:"error,omitempty"`
	P10            int           `json:"p10"`
	P50            int           `json:"p50"`
	P90            int           `json:"p90"`
	MAE            float64       `json:"mae"`
	Fallback       bool          `json:"fallback"`
	FallbackReason string        `json:"fallback_reason,omitempty"`
	Latency        time.Duration `json:"latency_ns"`
	Time           time.Time     `json:"time"`
}

// OK reports whether the request produced a forecast.
func (e PredictionEvent) OK() bool { return e.Kind == "" && e.Error == "" }

// UpstreamCall describes one outbound exchange with the external predictor.
// StatusCode is zero when no response was received.
type UpstreamCall struct {
	StatusCode int
	Attempts   int
	Timeout    bool
	Latency    time.Duration
	Err        string
	Time       time.Time
}
