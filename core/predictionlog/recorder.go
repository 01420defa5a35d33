package predictionlog

import (
	"context"

	"github.com/kilianp07/wellcast/core/logger"
	"github.com/kilianp07/wellcast/core/model"
)

// Recorder appends every event received on a bus subscription to a store.
type Recorder struct {
	store LogStore
	log   logger.Logger
}

func NewRecorder(store LogStore, log logger.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Run consumes events until ctx is done or events is closed. Append
// failures are logged and do not stop the loop.
func (r *Recorder) Run(ctx context.Context, events <-chan model.PredictionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := r.store.Append(ctx, FromEvent(ev)); err != nil {
				r.log.Errorw("prediction log append failed", map[string]any{
					"request_id": ev.RequestID,
					"error":      err.Error(),
				})
			}
		}
	}
}
