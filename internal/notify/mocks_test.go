package notify

import (
	"context"
	"sync"
)

type published struct {
	Topic string
	Data  []byte
}

// MockPublisher records every message. When Block is set, Publish signals
// Entered and waits for Block to close.
type MockPublisher struct {
	Err     error
	Block   chan struct{}
	Entered chan struct{}

	mu       sync.Mutex
	messages []published
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.Block != nil {
		if m.Entered != nil {
			m.Entered <- struct{}{}
		}
		<-m.Block
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, published{Topic: topic, Data: msg})
	return m.Err
}

func (m *MockPublisher) Messages() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.messages...)
}
