package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/cmsbridge/internal/config"
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
)

// NATSPublisher publishes workflow transitions to a JetStream subject so
// downstream systems (site rebuilds, notifications) can react to editorial
// state changes.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSPublisher connects to the configured NATS server.
func NewNATSPublisher(cfg config.EventsConfig) (*NATSPublisher, error) {
	if !cfg.Enabled {
		return nil, ferrors.ConfigError("events publishing is disabled").Build()
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, ferrors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.NATSURL).
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.NetworkError("failed to create JetStream context").
			WithCause(err).
			Build()
	}

	slog.Info("NATS publisher initialized", "url", cfg.NATSURL, "subject", cfg.Subject)

	return &NATSPublisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// PublishTransition publishes one transition as JSON.
func (p *NATSPublisher) PublishTransition(ctx context.Context, t WorkflowTransition) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if t.OccurredAt.IsZero() {
		t.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(t)
	if err != nil {
		return ferrors.InternalError("failed to marshal transition event").
			WithCause(err).
			Build()
	}

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return ferrors.NetworkError("failed to publish transition event").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}

	slog.Debug("published workflow transition",
		"key", t.Key,
		"from", t.From,
		"to", t.To)

	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
