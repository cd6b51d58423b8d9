package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/seating/pkg"
)

const (
	tailConsumer   = "seating-utils-tail"
	defaultNATSURL = "nats://localhost:4222"
)

// TailEvents replays seating events retained in JetStream. The durable
// consumer remembers its position, so repeated runs only print new events.
// With --follow it keeps printing new events until ctx is cancelled.
func TailEvents(ctx context.Context, config *apt.Config, logger apt.Logger, out io.Writer) error {
	stream, err := pkg.NewNATSStream(ctx, pkg.NATSStreamConfig{
		URL:          config.GetStringOrDef("nats.url", defaultNATSURL),
		StreamName:   config.GetStringOrDef("nats.stream", "SEATING_EVENTS"),
		ConsumerName: config.GetStringOrDef("consumer", tailConsumer),
	})
	if err != nil {
		return fmt.Errorf("open event stream: %w", err)
	}
	defer stream.Close()

	messages, err := stream.Fetch(ctx, config.GetIntOrDef("limit", 100))
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	for _, msg := range messages {
		event, err := pkg.DecodeEvent(msg.Data)
		if err != nil {
			logger.Error("cannot decode event", "sequence", msg.Sequence, "error", err)
			continue
		}
		printEvent(out, fmt.Sprintf("%6d", msg.Sequence), time.Unix(0, msg.Timestamp), event)
	}
	logger.Info("Events replayed", "count", len(messages))

	if !config.GetBoolOrFalse("follow") {
		return nil
	}

	var mu sync.Mutex
	err = stream.SubscribeStream(ctx, func(ctx context.Context, data []byte) error {
		event, err := pkg.DecodeEvent(data)
		if err != nil {
			logger.Error("cannot decode event", "error", err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		printEvent(out, "  live", event.OccurredAt, event)
		return nil
	})
	if err != nil {
		return fmt.Errorf("follow events: %w", err)
	}

	<-ctx.Done()
	return nil
}

// WatchEvents prints events published on core NATS as they happen. Nothing
// is retained, so only events published while watching are shown.
func WatchEvents(ctx context.Context, config *apt.Config, logger apt.Logger, out io.Writer) error {
	sub, err := pkg.NewNATSSubscriber(config.GetStringOrDef("nats.url", defaultNATSURL), logger)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer sub.Close()

	subject := pkg.DefaultStreamSubject
	if channel := config.GetStringOrDef("channel", ""); channel != "" {
		subject = pkg.ChannelTopic(channel)
	}

	var mu sync.Mutex
	err = sub.Subscribe(ctx, subject, func(ctx context.Context, data []byte) error {
		event, err := pkg.DecodeEvent(data)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		printEvent(out, "  live", event.OccurredAt, event)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	logger.Info("Watching events", "subject", subject)
	<-ctx.Done()
	return nil
}

func printEvent(out io.Writer, label string, at time.Time, event pkg.Event) {
	payload, _ := json.Marshal(event.Payload)
	fmt.Fprintf(out, "%s %s %-12s %-26s %s\n", label, at.UTC().Format(time.RFC3339), event.Channel, event.Type, payload)
}
