package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"contentnode/internal/event"
)

// Publisher sends messages to a subject; *nats.Conn implements it
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ConnectNATS connects to the NATS server at url, reconnecting forever
func ConnectNATS(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// NATSBridge forwards object events from the bus to NATS subjects
// named <prefix>.<type>.<action>
type NATSBridge struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

// NewNATSBridge creates a bridge publishing below the subject prefix
func NewNATSBridge(pub Publisher, prefix string) *NATSBridge {
	return &NATSBridge{pub: pub, prefix: prefix, logger: slog.Default()}
}

// WithLogger sets the logger
func (b *NATSBridge) WithLogger(logger *slog.Logger) *NATSBridge {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Run forwards events until the context is cancelled
func (b *NATSBridge) Run(ctx context.Context, bus *EventBus) error {
	events := make(chan event.ObjectEvent, 256)
	bus.Subscribe(events)
	defer bus.Unsubscribe(events)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if err := b.forward(ev); err != nil {
				b.logger.Warn("Failed to forward event", "event", ev.String(), "error", err)
			}
		}
	}
}

func (b *NATSBridge) forward(ev event.ObjectEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return b.pub.Publish(ev.Subject(b.prefix), data)
}
