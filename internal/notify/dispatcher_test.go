package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/seating/pkg"
)

func TestNewDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, nil)
	if cap(d.queue) != DefaultBufferSize {
		t.Errorf("buffer = %d, want %d", cap(d.queue), DefaultBufferSize)
	}
	if d.timeout != DefaultPublishTimeout {
		t.Errorf("timeout = %s, want %s", d.timeout, DefaultPublishTimeout)
	}
	if d.logger == nil {
		t.Error("logger should default to noop")
	}
}

func TestDispatcherDelivers(t *testing.T) {
	pub := &MockPublisher{}
	d := NewDispatcher(DispatcherConfig{}, nil, Sink{Name: "mock", Publisher: pub})
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	d.Notify(ctx, pkg.NewEvent(pkg.TablesChannel, pkg.EventTableCreated, map[string]any{"table_id": 1}))
	d.Notify(ctx, pkg.NewEvent(pkg.QueueChannel, pkg.EventPartyJoined, nil))

	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	msgs := pub.Messages()
	if len(msgs) != 2 {
		t.Fatalf("delivered %d messages, want 2", len(msgs))
	}
	if msgs[0].Topic != "seating.tables" || msgs[1].Topic != "seating.queue" {
		t.Errorf("topics = %s, %s", msgs[0].Topic, msgs[1].Topic)
	}

	var got pkg.Event
	if err := json.Unmarshal(msgs[0].Data, &got); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.Type != pkg.EventTableCreated || got.Payload["table_id"] != float64(1) {
		t.Errorf("event = %+v", got)
	}
}

func TestDispatcherStopWithoutStartDrains(t *testing.T) {
	pub := &MockPublisher{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 4}, nil, Sink{Name: "mock", Publisher: pub})
	ctx := context.Background()

	d.Notify(ctx, pkg.NewEvent(pkg.QueueChannel, pkg.EventPartyCalled, nil))
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if len(pub.Messages()) != 1 {
		t.Errorf("delivered %d messages, want 1", len(pub.Messages()))
	}

	// Stopped dispatchers drop silently and stop is idempotent.
	d.Notify(ctx, pkg.NewEvent(pkg.QueueChannel, pkg.EventPartyCalled, nil))
	if err := d.Stop(ctx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if len(pub.Messages()) != 1 {
		t.Errorf("delivered %d messages after stop, want 1", len(pub.Messages()))
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	pub := &MockPublisher{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 2}, nil, Sink{Name: "mock", Publisher: pub})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d.Notify(ctx, pkg.NewEvent(pkg.TablesChannel, pkg.EventTableStateChanged, nil))
	}
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := len(pub.Messages()); got != 2 {
		t.Errorf("delivered %d messages, want 2", got)
	}
}

func TestDispatcherSinkFailure(t *testing.T) {
	failing := &MockPublisher{Err: errors.New("broker down")}
	healthy := &MockPublisher{}
	d := NewDispatcher(DispatcherConfig{}, nil,
		Sink{Name: "failing", Publisher: failing},
		Sink{Name: "healthy", Publisher: healthy},
	)
	ctx := context.Background()

	d.Start(ctx)
	d.Notify(ctx, pkg.NewEvent(pkg.ReservationsChannel, pkg.EventReservationCreated, nil))
	d.Notify(ctx, pkg.NewEvent(pkg.ReservationsChannel, pkg.EventReservationDeleted, nil))
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if len(failing.Messages()) != 2 || len(healthy.Messages()) != 2 {
		t.Errorf("failing got %d, healthy got %d, want 2 each", len(failing.Messages()), len(healthy.Messages()))
	}
}

func TestDispatcherStopHonoursContext(t *testing.T) {
	pub := &MockPublisher{Block: make(chan struct{}), Entered: make(chan struct{}, 1)}
	d := NewDispatcher(DispatcherConfig{PublishTimeout: time.Second}, nil, Sink{Name: "slow", Publisher: pub})
	ctx := context.Background()

	d.Start(ctx)
	d.Notify(ctx, pkg.NewEvent(pkg.QueueChannel, pkg.EventPartyJoined, nil))
	<-pub.Entered

	stopCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := d.Stop(stopCtx); !errors.Is(err, context.Canceled) {
		t.Errorf("Stop() error = %v, want context.Canceled", err)
	}

	close(pub.Block)
	select {
	case <-d.done:
	case <-time.After(time.Second):
		t.Fatal("worker did not finish after publisher was released")
	}
}
