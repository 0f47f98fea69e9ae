// Package bus provides the durable message channel between collectors and
// consumer groups. The production implementation rides on NATS JetStream:
// one stream, one subject, and a durable consumer per group so every group
// keeps its own read position over the same message sequence.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"trendstream/internal/domain"
	"trendstream/internal/ports"
)

// JetStreamBus publishes and fans out collected messages via JetStream.
type JetStreamBus struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	stream  string
	subject string
	logger  *slog.Logger

	mu        sync.Mutex
	consumers []jetstream.ConsumeContext
}

var _ ports.Bus = (*JetStreamBus)(nil)

// Connect dials NATS, ensures the stream exists, and returns a ready bus.
func Connect(ctx context.Context, url, stream, subject string, logger *slog.Logger) (*JetStreamBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("trendstream"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      stream,
		Subjects:  []string{subject},
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", stream, err)
	}

	return &JetStreamBus{
		conn:    conn,
		js:      js,
		stream:  stream,
		subject: subject,
		logger:  logger,
	}, nil
}

// Publish serializes the message and appends it to the stream.
func (b *JetStreamBus) Publish(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if _, err := b.js.Publish(ctx, b.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", b.subject, err)
	}

	return nil
}

// Subscribe attaches a durable consumer named after the group. Delivery is
// at-least-once: a handler error leads to a Nak and later redelivery, so
// handlers must be safely repeatable.
func (b *JetStreamBus) Subscribe(ctx context.Context, group string, handler ports.MessageHandler) error {
	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.stream, jetstream.ConsumerConfig{
		Durable:       group,
		FilterSubject: b.subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", group, err)
	}

	cc, err := consumer.Consume(func(m jetstream.Msg) {
		var msg domain.Message
		if err := json.Unmarshal(m.Data(), &msg); err != nil {
			b.logger.Error("drop undecodable message", "group", group, "error", err)
			_ = m.Term()
			return
		}

		msgCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := handler(msgCtx, msg); err != nil {
			b.logger.Warn("handler failed, message will be redelivered",
				"group", group, "link", msg.Link, "error", err)
			_ = m.Nak()
			return
		}

		_ = m.Ack()
	})
	if err != nil {
		return fmt.Errorf("consume as %s: %w", group, err)
	}

	b.mu.Lock()
	b.consumers = append(b.consumers, cc)
	b.mu.Unlock()

	return nil
}

// Close stops all consumers and drains the connection.
func (b *JetStreamBus) Close() {
	b.mu.Lock()
	for _, cc := range b.consumers {
		cc.Stop()
	}
	b.consumers = nil
	b.mu.Unlock()

	if err := b.conn.Drain(); err != nil {
		b.logger.Warn("drain nats connection", "error", err)
	}
}

// KeyValue creates or opens a JetStream KV bucket. Used by the notification
// dedupe store; exposed here so the bus owns the single NATS connection.
func (b *JetStreamBus) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := b.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure kv bucket %s: %w", bucket, err)
	}
	return kv, nil
}
