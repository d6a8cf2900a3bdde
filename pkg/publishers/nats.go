package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// natsConn is the subset of *nats.Conn used by natsPublisher.
type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Close()
}

type natsPublisher struct {
	id      string
	subject string
	conn    natsConn
	log     Logger
}

func newNATSPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.NATS == nil {
		return nil, fmt.Errorf("publisher %q missing nats configuration", cfg.ID)
	}

	conn, err := nats.Connect(cfg.NATS.URL,
		nats.Name("samvad-connector-audit"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &natsPublisher{
		id:      cfg.ID,
		subject: cfg.NATS.Subject,
		conn:    conn,
		log:     ensureLogger(log),
	}, nil
}

func (n *natsPublisher) ID() string   { return n.id }
func (n *natsPublisher) Type() string { return TypeNATS }

func (n *natsPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = payload
	for k, v := range evt.attributes() {
		msg.Header.Set(k, v)
	}

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to nats: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	n.log.DebugObj("nats publisher delivered event", "publisher_nats_delivery", map[string]any{
		"publisher_id": n.id,
		"subject":      n.subject,
	})
	return nil
}

// Close drops the NATS connection.
func (n *natsPublisher) Close() error {
	n.conn.Close()
	return nil
}
