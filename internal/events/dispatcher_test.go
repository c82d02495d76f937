package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPublishDoesNotWaitForHandlers(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), time.Second)
	release := make(chan struct{})
	var calls atomic.Int32
	d.Subscribe(EventDepartureRecorded, func(ctx context.Context, e Event) error {
		<-release
		calls.Add(1)
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- d.Publish(context.Background(), Event{Type: EventDepartureRecorded, UserID: 1}) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a slow handler")
	}

	close(release)
	d.Wait()
	if calls.Load() != 1 {
		t.Fatalf("expected handler to run once, got %d", calls.Load())
	}
}

func TestHandlerFailuresAreSwallowed(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), time.Second)
	var after atomic.Int32
	d.Subscribe(EventDepartureRecorded, func(context.Context, Event) error { return errors.New("channel down") })
	d.Subscribe(EventDepartureRecorded, func(context.Context, Event) error { panic("boom") })
	d.Subscribe(EventDepartureRecorded, func(context.Context, Event) error {
		after.Add(1)
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventDepartureRecorded}); err != nil {
		t.Fatalf("publish must not surface handler errors: %v", err)
	}
	d.Wait()
	if after.Load() != 1 {
		t.Fatalf("healthy handler did not run")
	}
}

func TestHandlersOutliveCanceledPublisherContext(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), time.Second)
	ctxErr := make(chan error, 1)
	d.Subscribe(EventUserRegistered, func(ctx context.Context, e Event) error {
		time.Sleep(10 * time.Millisecond)
		ctxErr <- ctx.Err()
		if e.ID == "" {
			t.Errorf("event id not assigned")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Publish(ctx, Event{Type: EventUserRegistered}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	cancel()
	d.Wait()
	if err := <-ctxErr; err != nil {
		t.Fatalf("handler context canceled with publisher: %v", err)
	}
}

func TestCloseRejectsNewEvents(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), time.Second)
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := d.Publish(context.Background(), Event{Type: EventUserReset}); err == nil {
		t.Fatalf("expected error after close")
	}
}
