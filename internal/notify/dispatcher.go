package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/appetiteclub/seating/pkg"
)

const (
	DefaultBufferSize     = 256
	DefaultPublishTimeout = 2 * time.Second
)

// Sink is a named outbound publisher.
type Sink struct {
	Name      string
	Publisher events.Publisher
}

type DispatcherConfig struct {
	BufferSize     int
	PublishTimeout time.Duration
}

// Dispatcher decouples engine mutations from event delivery. Notify never
// blocks: events go into a bounded buffer drained by a single worker that
// hands each one to every sink. A full buffer drops the event.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	logger  apt.Logger

	mu     sync.RWMutex
	queue  chan pkg.Event
	closed bool
	done   chan struct{}
	start  sync.Once
}

func NewDispatcher(cfg DispatcherConfig, logger apt.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}
	return &Dispatcher{
		sinks:   sinks,
		timeout: cfg.PublishTimeout,
		logger:  logger,
		queue:   make(chan pkg.Event, cfg.BufferSize),
		done:    make(chan struct{}),
	}
}

// Notify enqueues the event for delivery. It is safe to call after Stop, in
// which case the event is dropped.
func (d *Dispatcher) Notify(ctx context.Context, event pkg.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Debug("dispatcher stopped, dropping event", "type", event.Type)
		return
	}

	select {
	case d.queue <- event:
	default:
		d.logger.Error("event buffer full, dropping event", "channel", event.Channel, "type", event.Type, "event_id", event.ID.String())
	}
}

// Start launches the delivery worker. Subsequent calls are no-ops.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.start.Do(func() {
		d.logger.Info("starting event dispatcher", "sinks", len(d.sinks))
		go d.run()
	})
	return nil
}

// Stop closes the buffer and waits for queued events to drain or for ctx to
// expire, whichever comes first.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	// Start may never have been called; drain inline so Stop does not hang.
	d.start.Do(func() { go d.run() })

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event pkg.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("cannot marshal event", "error", err, "type", event.Type)
		return
	}

	topic := event.Topic()
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := sink.Publisher.Publish(ctx, topic, msg); err != nil {
			d.logger.Error("cannot publish event", "error", err, "sink", sink.Name, "channel", event.Channel, "type", event.Type)
		}
		cancel()
	}
}
