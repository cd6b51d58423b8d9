package pkg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultRelayTimeout bounds a single broadcast to the real-time relay.
const DefaultRelayTimeout = 2 * time.Second

// RelayPublisher posts events to the companion websocket relay, which
// broadcasts them to connected browsers. The relay expects
// {"channel": ..., "event": ..., "data": {...}}.
type RelayPublisher struct {
	url    string
	client *http.Client
}

type relayMessage struct {
	Channel string         `json:"channel"`
	Event   string         `json:"event"`
	Data    map[string]any `json:"data"`
}

func NewRelayPublisher(url string, timeout time.Duration) *RelayPublisher {
	if timeout <= 0 {
		timeout = DefaultRelayTimeout
	}
	return &RelayPublisher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Publish translates the event envelope into the relay's message shape.
// The topic is ignored; the relay routes on the envelope channel.
func (p *RelayPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	evt, err := DecodeEvent(msg)
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}

	body, err := json.Marshal(relayMessage{
		Channel: evt.Channel,
		Event:   evt.Type,
		Data:    evt.Payload,
	})
	if err != nil {
		return fmt.Errorf("encode relay message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay unreachable at %s: %w", p.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay responded with status %d", resp.StatusCode)
	}
	return nil
}
