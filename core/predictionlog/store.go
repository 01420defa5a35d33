// Package predictionlog keeps an append-only history of prediction outcomes
// for audit and calibration. Records hold outcome fields only, never the
// submitted well features.
package predictionlog

import (
	"context"
	"sort"
	"time"

	"github.com/kilianp07/wellcast/core/model"
)

// LogRecord captures one handled prediction request.
type LogRecord struct {
	Timestamp      time.Time    `json:"timestamp"`
	RequestID      string       `json:"request_id"`
	Source         model.Source `json:"source,omitempty"`
	Kind           model.Kind   `json:"kind,omitempty"`
	Error          string       `json:"error,omitempty"`
	P10            int          `json:"p10"`
	P50            int          `json:"p50"`
	P90            int          `json:"p90"`
	MAE            float64      `json:"mae"`
	Fallback       bool         `json:"fallback"`
	FallbackReason string       `json:"fallback_reason,omitempty"`
	LatencyMS      float64      `json:"latency_ms"`
}

// FromEvent converts a prediction event into a log record.
func FromEvent(ev model.PredictionEvent) LogRecord {
	return LogRecord{
		Timestamp:      ev.Time,
		RequestID:      ev.RequestID,
		Source:         ev.Source,
		Kind:           ev.Kind,
		Error:          ev.Error,
		P10:            ev.P10,
		P50:            ev.P50,
		P90:            ev.P90,
		MAE:            ev.MAE,
		Fallback:       ev.Fallback,
		FallbackReason: ev.FallbackReason,
		LatencyMS:      float64(ev.Latency.Microseconds()) / 1000,
	}
}

// LogQuery defines filters for retrieving records. Zero values match
// everything. Limit keeps the most recent records.
type LogQuery struct {
	Start  time.Time
	End    time.Time
	Source model.Source
	Kind   model.Kind
	Limit  int
}

func (q LogQuery) matches(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	return true
}

// finish orders records by time and applies the limit.
func (q LogQuery) finish(recs []LogRecord) []LogRecord {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
	if q.Limit > 0 && len(recs) > q.Limit {
		recs = recs[len(recs)-q.Limit:]
	}
	return recs
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// Pruner is implemented by stores that can drop old records.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}
