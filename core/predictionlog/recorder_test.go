package predictionlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wellcast/core/model"
	"github.com/kilianp07/wellcast/infra/logger"
	"github.com/kilianp07/wellcast/internal/eventbus"
)

type failingStore struct{ MemoryStore }

func (f *failingStore) Append(context.Context, LogRecord) error { return errors.New("disk full") }

func TestRecorder_AppendsBusEvents(t *testing.T) {
	bus := eventbus.New[model.PredictionEvent]()
	store := NewMemoryStore(0)
	rec := NewRecorder(store, logger.NopLogger{})

	ch := bus.Subscribe()
	done := make(chan struct{})
	go func() {
		rec.Run(context.Background(), ch)
		close(done)
	}()

	bus.Publish(model.PredictionEvent{RequestID: "r1", Source: model.SourceBaseline, P50: 118275, Time: time.Now()})
	bus.Publish(model.PredictionEvent{RequestID: "r2", Kind: model.KindMalformedPayload, Time: time.Now()})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop after bus close")
	}
	out, err := store.Query(context.Background(), LogQuery{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, model.KindMalformedPayload, out[1].Kind)
}

func TestRecorder_StopsOnContextAndSurvivesErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan model.PredictionEvent, 1)
	rec := NewRecorder(&failingStore{}, logger.NopLogger{})

	done := make(chan struct{})
	go func() {
		rec.Run(ctx, events)
		close(done)
	}()
	events <- model.PredictionEvent{RequestID: "r1"}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop on cancel")
	}
}
