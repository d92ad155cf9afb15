package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestInMemoryEventBus_PublishAndSubscribe(t *testing.T) {
	bus := syncBus()
	defer func() { _ = bus.Close() }()

	var mu sync.Mutex
	var seen []shared.EventType

	err := bus.Subscribe(shared.EventScoreRecorded, shared.EventHandlerFunc(func(e shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.EventType())
		return nil
	}))
	require.NoError(t, err)

	event := shared.NewScoreRecordedEvent("student-1", "record-1", map[string]int{"Maths": 80}, "11")
	require.NoError(t, bus.Publish(event))

	// Unrelated event type must not reach the handler.
	require.NoError(t, bus.Publish(shared.NewGuidanceFailedEvent("student-1", "boom")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []shared.EventType{shared.EventScoreRecorded}, seen)
}

func TestInMemoryEventBus_SubscribeAll(t *testing.T) {
	bus := syncBus()
	defer func() { _ = bus.Close() }()

	var count int
	require.NoError(t, bus.SubscribeAll(shared.EventHandlerFunc(func(e shared.Event) error {
		count++
		return nil
	})))

	require.NoError(t, bus.Publish(shared.NewStudentRegisteredEvent("s1", "a@b.kz", "Asel", "11")))
	require.NoError(t, bus.Publish(shared.NewGuidanceFailedEvent("s1", "timeout")))

	assert.Equal(t, 2, count)
}

func TestInMemoryEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewGuidanceFailedEvent("s1", "late"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventScoreRecorded, shared.EventHandlerFunc(func(shared.Event) error { return nil }))
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestInMemoryEventBus_MetricsTrackFailures(t *testing.T) {
	bus := syncBus()
	defer func() { _ = bus.Close() }()

	require.NoError(t, bus.Subscribe(shared.EventGuidanceFailed, shared.EventHandlerFunc(func(shared.Event) error {
		return errors.New("handler broke")
	})))

	require.NoError(t, bus.Publish(shared.NewGuidanceFailedEvent("s1", "x")))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(1), snap.TotalHandlerExecs)
	assert.Equal(t, 0.0, snap.HandlerSuccessRate)
}

type recordingInvalidator struct {
	mu       sync.Mutex
	students []string
	err      error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students = append(r.students, studentID)
	return r.err
}

func TestRegisterListeners(t *testing.T) {
	bus := syncBus()
	defer func() { _ = bus.Close() }()

	inv := &recordingInvalidator{}
	monitor, err := RegisterListeners(bus, inv, nil)
	require.NoError(t, err)

	// A new score drops the cached guidance for that student.
	require.NoError(t, bus.Publish(shared.NewScoreRecordedEvent("s1", "r1", map[string]int{"Maths": 70}, "11")))
	assert.Equal(t, []string{"s1"}, inv.students)

	// So does a profile change.
	require.NoError(t, bus.Publish(shared.NewProfileUpdatedEvent("s1", []string{"interest"})))
	assert.Equal(t, []string{"s1", "s1"}, inv.students)

	require.NoError(t, bus.Publish(shared.NewGuidanceFailedEvent("s1", "upstream 503")))
	require.NoError(t, bus.Publish(shared.NewGuidanceFailedEvent("s2", "upstream 503")))
	assert.Equal(t, int64(2), monitor.Failures())
}

func TestGuidanceInvalidator_ToleratesCacheErrors(t *testing.T) {
	inv := &recordingInvalidator{err: errors.New("redis down")}
	listener := NewGuidanceInvalidator(inv, nil)

	err := listener.Handle(shared.NewScoreRecordedEvent("s1", "r1", nil, "11"))
	assert.NoError(t, err)
}
