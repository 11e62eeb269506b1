package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends saga events to named queues over one lazily dialed
// connection. It is safe for concurrent use; publishes are serialized on its
// channel. Broker acknowledgments are not awaited.
type Publisher struct {
	client *Client
	logger *zap.Logger

	mu       sync.Mutex
	conn     Connection
	ch       Channel
	chClosed chan *amqp.Error
	declared map[string]bool
}

func NewPublisher(client *Client, logger *zap.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.Named("publisher"),
	}
}

// Publish marshals message to JSON and publishes it as a persistent message.
func (p *Publisher) Publish(ctx context.Context, queueName string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return p.PublishBody(ctx, queueName, body)
}

// PublishBody publishes an already serialized JSON payload. A failed publish
// drops the connection so the next call dials again; it is never retried
// here.
func (p *Publisher) PublishBody(ctx context.Context, queueName string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	if !p.declared[queueName] {
		if err := DeclareQueue(ch, queueName); err != nil {
			p.reset()
			return err
		}
		p.declared[queueName] = true
	}

	msg := NewPublishing(body, nil)
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("failed to publish message to queue %s: %w", queueName, err)
	}

	p.logger.Debug("published message",
		zap.String("queue", queueName),
		zap.String("message_id", msg.MessageId))
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

func (p *Publisher) channel() (Channel, error) {
	if p.ch != nil && !p.conn.IsClosed() {
		select {
		case <-p.chClosed:
			p.logger.Warn("publisher channel closed, reconnecting")
		default:
			return p.ch, nil
		}
	}
	p.reset()

	conn, err := p.client.Dial()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p.conn = conn
	p.ch = ch
	p.chClosed = ch.NotifyClose(make(chan *amqp.Error, 1))
	p.declared = make(map[string]bool)
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn = nil
	p.ch = nil
	p.chClosed = nil
	p.declared = nil
}

// NewPublishing builds a persistent JSON message.
func NewPublishing(body []byte, headers amqp.Table) amqp.Publishing {
	return amqp.Publishing{
		Headers:      headers,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
}
