package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*Event
	emitErr error
	delay   time.Duration
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *Event) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.emitErr
}

func (m *mockEventEmitter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEmitAsync_NilEmitter(t *testing.T) {
	EmitAsync(nil, context.Background(), NewEvent(EventLogin, "u1", "test", nil))
}

func TestEmitAsync_NilEvent(t *testing.T) {
	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), nil)
	time.Sleep(10 * time.Millisecond)
	if n := emitter.count(); n != 0 {
		t.Errorf("expected 0 events, got %d", n)
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), NewEvent(EventRegistered, "user-1", "identity", map[string]string{"provider": "local"}))
	waitFor(t, func() bool { return emitter.count() == 1 })

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	ev := emitter.events[0]
	if ev.UserID != "user-1" || ev.Type != EventRegistered || ev.Attributes["provider"] != "local" {
		t.Errorf("event = %+v", ev)
	}
	if ev.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestEmitAsync_UsesBackgroundContext(t *testing.T) {
	emitter := &mockEventEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	EmitAsync(emitter, ctx, NewEvent(EventLogin, "u1", "test", nil))
	waitFor(t, func() bool { return emitter.count() == 1 })
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	emitter := &mockEventEmitter{emitErr: errors.New("broker down")}
	EmitAsync(emitter, context.Background(), NewEvent(EventLogin, "u1", "test", nil))
	waitFor(t, func() bool { return emitter.count() == 1 })
}

func TestEmitAsync_ConcurrentAccess(t *testing.T) {
	emitter := &mockEventEmitter{}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), NewEvent(EventOTPRequested, "", "test", nil))
		}()
	}
	wg.Wait()
	waitFor(t, func() bool { return emitter.count() == 10 })
}

func TestMulti(t *testing.T) {
	a := &mockEventEmitter{}
	b := &mockEventEmitter{emitErr: errors.New("b failed")}
	m := Multi(a, nil, b)
	err := m.Emit(context.Background(), NewEvent(EventLogin, "u1", "test", nil))
	if err == nil {
		t.Error("Multi should surface the failing emitter's error")
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("counts = %d, %d; want 1, 1", a.count(), b.count())
	}
	if err := Multi().Emit(context.Background(), NewEvent(EventLogin, "", "test", nil)); err != nil {
		t.Errorf("empty Multi: %v", err)
	}
}
