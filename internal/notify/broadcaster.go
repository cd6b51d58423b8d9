package notify

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt"
)

const subscriberBuffer = 100

// Broadcaster fans published messages out to in-process subscribers, such as
// open SSE connections. It satisfies events.Publisher so it can sit behind
// the dispatcher like any broker sink.
type Broadcaster struct {
	logger apt.Logger

	mu          sync.RWMutex
	subscribers map[string]chan Message
}

// Message is a published payload together with its broker topic.
type Message struct {
	Topic string
	Data  []byte
}

func NewBroadcaster(logger apt.Logger) *Broadcaster {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Broadcaster{
		logger:      logger,
		subscribers: make(map[string]chan Message),
	}
}

func (b *Broadcaster) Publish(ctx context.Context, topic string, msg []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for subscriberID, ch := range b.subscribers {
		select {
		case ch <- Message{Topic: topic, Data: msg}:
		default:
			b.logger.Info("subscriber channel full, dropping event", "subscriber_id", subscriberID)
		}
	}
	return nil
}

func (b *Broadcaster) Subscribe(subscriberID string) <-chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, subscriberBuffer)
	b.subscribers[subscriberID] = ch

	b.logger.Info("new stream subscriber", "subscriber_id", subscriberID, "total_subscribers", len(b.subscribers))
	return ch
}

func (b *Broadcaster) Unsubscribe(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[subscriberID]; ok {
		close(ch)
		delete(b.subscribers, subscriberID)
		b.logger.Info("stream subscriber disconnected", "subscriber_id", subscriberID, "total_subscribers", len(b.subscribers))
	}
}

// Stop closes every subscriber channel, ending open streams.
func (b *Broadcaster) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
	return nil
}
