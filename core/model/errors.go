package model

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the stable machine-readable class of a prediction error.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindMalformedPayload    Kind = "malformed_payload"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindMalformedUpstream   Kind = "malformed_upstream_response"
)

// FieldViolation describes one schema constraint broken by a payload.
type FieldViolation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

// ValidationError lists every schema violation found in a payload, in schema
// order.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Constraint)
	}
	return "invalid well features: " + strings.Join(parts, "; ")
}

// Field returns the first offending field.
func (e *ValidationError) Field() string {
	if len(e.Violations) == 0 {
		return ""
	}
	return e.Violations[0].Field
}

// MalformedPayloadError is returned when the inbound body is not a JSON object.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload: %v", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// UpstreamUnavailableError covers transport failures, timeouts and non-2xx
// answers from the external predictor. StatusCode is zero when no response was
// received.
type UpstreamUnavailableError struct {
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *UpstreamUnavailableError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("predictor unavailable: status %d", e.StatusCode)
	case e.Timeout:
		return fmt.Sprintf("predictor unavailable: timeout: %v", e.Err)
	default:
		return fmt.Sprintf("predictor unavailable: %v", e.Err)
	}
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// MalformedUpstreamResponseError signals a contract mismatch with the
// predictor rather than an outage.
type MalformedUpstreamResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedUpstreamResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed predictor response: %s: %v", e.Reason, e.Err)
	}
	return "malformed predictor response: " + e.Reason
}

func (e *MalformedUpstreamResponseError) Unwrap() error { return e.Err }

// KindOf classifies err. The boolean is false for errors outside the
// prediction taxonomy.
func KindOf(err error) (Kind, bool) {
	var (
		verr *ValidationError
		perr *MalformedPayloadError
		uerr *UpstreamUnavailableError
		merr *MalformedUpstreamResponseError
	)
	switch {
	case errors.As(err, &verr):
		return KindValidation, true
	case errors.As(err, &perr):
		return KindMalformedPayload, true
	case errors.As(err, &uerr):
		return KindUpstreamUnavailable, true
	case errors.As(err, &merr):
		return KindMalformedUpstream, true
	default:
		return "", false
	}
}
