package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wellcast/core/model"
	"github.com/kilianp07/wellcast/core/predictionlog"
)

func seededStore(t *testing.T) (*predictionlog.MemoryStore, time.Time) {
	t.Helper()
	s := predictionlog.NewMemoryStore(0)
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	recs := []predictionlog.LogRecord{
		{Timestamp: base, RequestID: "a", Source: model.SourceUpstream},
		{Timestamp: base.Add(time.Hour), RequestID: "b", Source: model.SourceBaseline},
		{Timestamp: base.Add(2 * time.Hour), RequestID: "c", Kind: model.KindValidation},
	}
	for _, r := range recs {
		require.NoError(t, s.Append(context.Background(), r))
	}
	return s, base
}

func getLogs(h http.Handler, target, token string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	h.ServeHTTP(rr, req)
	return rr
}

func TestLogHandler_Filters(t *testing.T) {
	store, base := seededStore(t)
	h := NewLogHandler(store, "")

	rr := getLogs(h, "/api/v1/predictions/logs", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var out []predictionlog.LogRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Len(t, out, 3)

	rr = getLogs(h, "/api/v1/predictions/logs?source=baseline", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].RequestID)

	start := base.Add(30 * time.Minute).Format(time.RFC3339)
	rr = getLogs(h, "/api/v1/predictions/logs?start="+start+"&limit=1", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "c", out[0].RequestID)
}

func TestLogHandler_BadQuery(t *testing.T) {
	store, _ := seededStore(t)
	h := NewLogHandler(store, "")
	assert.Equal(t, http.StatusBadRequest, getLogs(h, "/api/v1/predictions/logs?start=yesterday", "").Code)
	assert.Equal(t, http.StatusBadRequest, getLogs(h, "/api/v1/predictions/logs?limit=-2", "").Code)
}

func TestLogHandler_Auth(t *testing.T) {
	store, _ := seededStore(t)
	h := NewLogHandler(store, "secret")
	assert.Equal(t, http.StatusUnauthorized, getLogs(h, "/api/v1/predictions/logs", "").Code)
	assert.Equal(t, http.StatusOK, getLogs(h, "/api/v1/predictions/logs", "secret").Code)
}

func TestLogHandler_EmptyIsArray(t *testing.T) {
	h := NewLogHandler(predictionlog.NewMemoryStore(0), "")
	rr := getLogs(h, "/api/v1/predictions/logs", "")
	assert.JSONEq(t, `[]`, rr.Body.String())
}
