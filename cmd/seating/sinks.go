package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/seating/internal/notify"
	"github.com/appetiteclub/seating/pkg"
)

const defaultReapInterval = time.Minute

// setupSinks connects every publisher listed in events.sinks. The returned
// closers release broker connections on shutdown.
func setupSinks(ctx context.Context, config *apt.Config, logger apt.Logger) ([]notify.Sink, []io.Closer, error) {
	var sinks []notify.Sink
	var closers []io.Closer

	names := config.GetStringSliceOrDef("events.sinks", nil)
	for _, name := range names {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}

		switch name {
		case "nats":
			publisher, err := pkg.NewNATSPublisher(config.GetStringOrDef("nats.url", "nats://localhost:4222"))
			if err != nil {
				return nil, nil, err
			}
			sinks = append(sinks, notify.Sink{Name: name, Publisher: publisher})
			closers = append(closers, publisher)

		case "jetstream":
			stream, err := pkg.NewNATSStream(ctx, pkg.NATSStreamConfig{
				URL:        config.GetStringOrDef("nats.url", "nats://localhost:4222"),
				StreamName: config.GetStringOrDef("nats.stream", "SEATING_EVENTS"),
			})
			if err != nil {
				return nil, nil, err
			}
			sinks = append(sinks, notify.Sink{Name: name, Publisher: stream})
			closers = append(closers, stream)

		case "redis":
			publisher, err := pkg.NewRedisPublisher(ctx, pkg.RedisConfig{
				Addr:     config.GetStringOrDef("redis.addr", "localhost:6379"),
				Password: config.GetStringOrDef("redis.password", ""),
				DB:       config.GetIntOrDef("redis.db", 0),
			})
			if err != nil {
				return nil, nil, err
			}
			sinks = append(sinks, notify.Sink{Name: name, Publisher: publisher})
			closers = append(closers, publisher)

		case "relay":
			publisher := pkg.NewRelayPublisher(
				config.GetStringOrDef("relay.url", "http://localhost:8081/broadcast"),
				config.GetDurationOrDef("events.timeout", pkg.DefaultRelayTimeout),
			)
			sinks = append(sinks, notify.Sink{Name: name, Publisher: publisher})

		default:
			return nil, nil, fmt.Errorf("unknown event sink %q", name)
		}

		logger.Info("Event sink enabled", "sink", name)
	}

	return sinks, closers, nil
}
