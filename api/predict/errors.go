package predict

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/wellcast/core/model"
)

// ErrorBody is the JSON envelope returned for every failed request.
type ErrorBody struct {
	Error      string                 `json:"error"`
	Kind       string                 `json:"kind"`
	Violations []model.FieldViolation `json:"violations,omitempty"`
}

// StatusFor maps a prediction error to its HTTP status code.
func StatusFor(err error) int {
	kind, ok := model.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case model.KindMalformedPayload:
		return http.StatusBadRequest
	case model.KindValidation:
		return http.StatusUnprocessableEntity
	case model.KindMalformedUpstream:
		return http.StatusBadGateway
	case model.KindUpstreamUnavailable:
		var uerr *model.UpstreamUnavailableError
		if errors.As(err, &uerr) && uerr.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) ErrorBody {
	body := ErrorBody{Error: err.Error(), Kind: "internal_error"}
	if kind, ok := model.KindOf(err); ok {
		body.Kind = string(kind)
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		body.Violations = verr.Violations
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), errorBody(err))
}
