// Package predict exposes the forecast service over HTTP.
package predict

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/kilianp07/wellcast/core/logger"
	"github.com/kilianp07/wellcast/core/model"
	"github.com/kilianp07/wellcast/core/prediction"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderSource    = "X-Prediction-Source"

	maxPayloadBytes = 1 << 20
)

// Predictor is the subset of prediction.Service used by the handler.
type Predictor interface {
	Predict(ctx context.Context, raw []byte) (prediction.Outcome, error)
}

// NewPredictHandler serves POST /predict. The request body is handed to the
// service untouched; the response is the forecast or an ErrorBody.
func NewPredictHandler(svc Predictor, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			w.Header().Set(HeaderSource, "none")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				err = fmt.Errorf("body exceeds %d bytes", tooLarge.Limit)
			}
			w.Header().Set(HeaderSource, "none")
			writeError(w, &model.MalformedPayloadError{Err: err})
			return
		}

		out, err := svc.Predict(prediction.WithRequestID(r.Context(), id), raw)
		source := string(out.Source)
		if source == "" {
			source = "none"
		}
		w.Header().Set(HeaderSource, source)
		if err != nil {
			status := StatusFor(err)
			if status >= http.StatusInternalServerError {
				log.Errorw("prediction failed", map[string]any{"request_id": id, "status": status, "error": err.Error()})
			} else {
				log.Debugw("prediction rejected", map[string]any{"request_id": id, "status": status, "error": err.Error()})
			}
			writeError(w, err)
			return
		}
		if out.Raw != nil {
			writeJSON(w, http.StatusOK, out.Raw)
			return
		}
		writeJSON(w, http.StatusOK, out.Result)
	})
}
