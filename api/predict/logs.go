package predict

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/wellcast/core/model"
	"github.com/kilianp07/wellcast/core/predictionlog"
)

const defaultLogLimit = 100

// NewLogHandler serves GET /api/v1/predictions/logs. Requests must carry
// "Authorization: Bearer <token>" when token is non-empty.
func NewLogHandler(store predictionlog.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := parseLogQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []predictionlog.LogRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	})
}

func parseLogQuery(r *http.Request) (predictionlog.LogQuery, error) {
	v := r.URL.Query()
	q := predictionlog.LogQuery{
		Source: model.Source(v.Get("source")),
		Kind:   model.Kind(v.Get("kind")),
		Limit:  defaultLogLimit,
	}
	var err error
	if s := v.Get("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			return q, fmt.Errorf("start: %w", err)
		}
	}
	if s := v.Get("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			return q, fmt.Errorf("end: %w", err)
		}
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("limit must be a non-negative integer")
		}
		q.Limit = n
	}
	return q, nil
}
