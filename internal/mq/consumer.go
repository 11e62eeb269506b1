package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one delivery. Returning nil acks the message.
// Errors wrapped with Permanent are dead-lettered right away; any other error
// is retried up to the consumer's MaxRetries.
type HandlerFunc func(ctx context.Context, d amqp.Delivery) error

// JSONHandler decodes the delivery body into T before calling fn. A body
// that does not decode is a permanent failure.
func JSONHandler[T any](fn func(ctx context.Context, msg T) error) HandlerFunc {
	return func(ctx context.Context, d amqp.Delivery) error {
		var msg T
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			return Permanent(fmt.Errorf("failed to unmarshal message: %w", err))
		}
		return fn(ctx, msg)
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

type State int32

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("unknown state: %d", s)
	}
}

type ConsumerConfig struct {
	Queue      string
	Prefetch   int
	MaxRetries int
}

// Consumer is the long-lived loop bound to one queue. It owns its connection
// and channel; nothing else may use them.
type Consumer struct {
	client  *Client
	cfg     ConsumerConfig
	handler HandlerFunc
	logger  *zap.Logger

	state atomic.Int32
}

func NewConsumer(client *Client, cfg ConsumerConfig, handler HandlerFunc, logger *zap.Logger) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Consumer{
		client:  client,
		cfg:     cfg,
		handler: handler,
		logger:  logger.Named("consumer").With(zap.String("queue", cfg.Queue)),
	}
}

func (c *Consumer) State() State {
	return State(c.state.Load())
}

func (c *Consumer) setState(s State) {
	if State(c.state.Swap(int32(s))) != s {
		c.logger.Info("consumer state changed", zap.Stringer("state", s))
	}
}

// Run connects, declares the queue and consumes until ctx is done. Broker
// and channel failures lead back to a fresh connect; Run never returns for
// any other reason.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		conn, err := c.client.Connect(ctx)
		if err != nil {
			return err
		}

		err = c.consume(ctx, conn)
		c.setState(StateDisconnected)
		_ = conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("consume loop ended, reconnecting",
			zap.Duration("retry_in", c.client.ReconnectDelay()),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.client.ReconnectDelay()):
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn Connection) error {
	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer ch.Close()
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	if err := DeclareQueue(ch, c.cfg.Queue); err != nil {
		return err
	}

	deliveries, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.setState(StateConnected)
	c.logger.Info("waiting for messages", zap.Int("prefetch", c.cfg.Prefetch))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-connClosed:
			return closeReason(amqpErr, "connection")
		case amqpErr := <-chClosed:
			return closeReason(amqpErr, "channel")
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.dispatch(ctx, ch, d)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, ch Channel, d amqp.Delivery) {
	log := c.logger.With(
		zap.Uint64("delivery_tag", d.DeliveryTag),
		zap.String("message_id", d.MessageId),
		zap.Bool("redelivered", d.Redelivered))

	err := c.handler(ctx, d)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", zap.Error(ackErr))
		}
		return
	}

	retries := RetryCount(d.Headers)
	switch {
	case ctx.Err() != nil:
		log.Warn("handler interrupted by shutdown, requeueing", zap.Error(err))
		c.nack(log, d, true)

	case IsPermanent(err):
		log.Error("message rejected, dead-lettering", zap.Error(err))
		c.nack(log, d, false)

	case retries >= c.cfg.MaxRetries:
		log.Error("retries exhausted, dead-lettering", zap.Int("retries", retries), zap.Error(err))
		c.nack(log, d, false)

	default:
		if pubErr := c.republish(ctx, ch, d, retries+1); pubErr != nil {
			log.Error("failed to schedule retry, requeueing", zap.Error(err), zap.NamedError("publish_error", pubErr))
			c.nack(log, d, true)
			return
		}
		log.Warn("handler failed, message scheduled for retry", zap.Int("retry", retries+1), zap.Error(err))
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack retried message", zap.Error(ackErr))
		}
	}
}

func (c *Consumer) nack(log *zap.Logger, d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		log.Error("failed to nack message", zap.Bool("requeue", requeue), zap.Error(err))
	}
}

// republish puts a copy of d at the tail of the queue with the retry counter
// bumped. The copy keeps the original message id.
func (c *Consumer) republish(ctx context.Context, ch Channel, d amqp.Delivery, retries int) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[RetryCountHeader] = int32(retries)

	msg := NewPublishing(d.Body, headers)
	if d.MessageId != "" {
		msg.MessageId = d.MessageId
	}
	return ch.PublishWithContext(ctx, "", c.cfg.Queue, false, false, msg)
}

// RetryCount reads RetryCountHeader; a missing or malformed header counts as
// zero.
func RetryCount(headers amqp.Table) int {
	switch v := headers[RetryCountHeader].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint8:
		return int(v)
	default:
		return 0
	}
}
