package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.Event
	err    error
	done   chan struct{}
}

func newRecordingSink(expect int) *recordingSink {
	return &recordingSink{done: make(chan struct{}, expect)}
}

func (s *recordingSink) Send(_ context.Context, event models.Event) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	s.done <- struct{}{}
	return s.err
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.events))
	for _, e := range s.events {
		names = append(names, e.Name)
	}
	return names
}

func waitDelivered(t *testing.T, sink *recordingSink, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-sink.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func TestAsyncDispatcher_DeliversInOrder(t *testing.T) {
	sink := newRecordingSink(3)
	dispatcher := NewAsyncDispatcher(sink, zap.NewNop(), 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)

	dispatcher.Notify(models.Event{Name: models.EventOrderCreated})
	dispatcher.Notify(models.Event{Name: models.EventPaymentApproved})
	dispatcher.Notify(models.Event{Name: models.EventOrderShipped})

	waitDelivered(t, sink, 3)
	assert.Equal(t, []string{
		models.EventOrderCreated,
		models.EventPaymentApproved,
		models.EventOrderShipped,
	}, sink.names())
}

func TestAsyncDispatcher_NotifyNeverBlocks(t *testing.T) {
	// no consumer running and a single-slot queue
	dispatcher := NewAsyncDispatcher(newRecordingSink(0), zap.NewNop(), 1)

	finished := make(chan struct{})
	go func() {
		dispatcher.Notify(models.Event{Name: models.EventOrderCreated})
		dispatcher.Notify(models.Event{Name: models.EventOrderShipped})
		dispatcher.Notify(models.Event{Name: models.EventOrderCompleted})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}

func TestAsyncDispatcher_SinkErrorDoesNotStopConsumption(t *testing.T) {
	sink := newRecordingSink(2)
	sink.err = errors.New("smtp down")
	dispatcher := NewAsyncDispatcher(sink, zap.NewNop(), 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)

	dispatcher.Notify(models.Event{Name: models.EventOrderCreated})
	dispatcher.Notify(models.Event{Name: models.EventOrderCompleted})

	waitDelivered(t, sink, 2)
	require.Len(t, sink.names(), 2)
}

func TestLogSink_Send(t *testing.T) {
	sink := NewLogSink(zap.NewNop())
	err := sink.Send(context.Background(), models.Event{Name: models.EventOrderCreated})
	assert.NoError(t, err)
}
