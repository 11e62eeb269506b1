package mq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Connection is the subset of *amqp.Connection the saga uses.
type Connection interface {
	Channel() (Channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	IsClosed() bool
	Close() error
}

// Channel is the subset of *amqp.Channel the saga uses. A Channel must only
// be used from one goroutine at a time.
type Channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

type Dialer func(url string) (Connection, error)

func DialAMQP(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &amqpConnection{Connection: conn}, nil
}

type amqpConnection struct {
	*amqp.Connection
}

func (c *amqpConnection) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Client owns the broker address and the reconnect policy. It holds no
// connection itself; publishers and consumers own the connections they dial.
type Client struct {
	url    string
	delay  time.Duration
	dial   Dialer
	logger *zap.Logger
}

type Option func(*Client)

func WithDialer(dial Dialer) Option {
	return func(c *Client) {
		c.dial = dial
	}
}

func NewClient(url string, reconnectDelay time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		url:    url,
		delay:  reconnectDelay,
		dial:   DialAMQP,
		logger: logger.Named("mq"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.delay <= 0 {
		c.delay = 3 * time.Second
	}
	return c
}

func (c *Client) ReconnectDelay() time.Duration {
	return c.delay
}

// Dial makes a single connection attempt.
func (c *Client) Dial() (Connection, error) {
	conn, err := c.dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	return conn, nil
}

// Connect blocks until the broker accepts a connection, waiting the fixed
// reconnect delay between attempts. It only returns an error when ctx is
// done.
func (c *Client) Connect(ctx context.Context) (Connection, error) {
	for attempt := 1; ; attempt++ {
		conn, err := c.dial(c.url)
		if err == nil {
			c.logger.Info("connected to broker", zap.Int("attempt", attempt))
			return conn, nil
		}
		c.logger.Warn("waiting for broker",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", c.delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.delay):
		}
	}
}

// InitQueues declares the given work queues and their dead-letter
// counterparts on a short-lived channel.
func InitQueues(conn Connection, queueNames ...string) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	for _, name := range queueNames {
		if err := DeclareQueue(ch, name); err != nil {
			return err
		}
	}
	return nil
}

// DeclareQueue declares a durable work queue that dead-letters into
// DeadLetterExchange, together with its bound dead-letter queue. Declaring
// the same topology again is a no-op on the broker.
func DeclareQueue(ch Channel, queueName string) error {
	if err := ch.ExchangeDeclare(DeadLetterExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", DeadLetterExchange, err)
	}

	dlq := DeadLetterQueue(queueName)
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", dlq, err)
	}
	if err := ch.QueueBind(dlq, dlq, DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", dlq, err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    DeadLetterExchange,
		"x-dead-letter-routing-key": dlq,
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	return nil
}

func closeReason(err *amqp.Error, what string) error {
	if err == nil {
		return fmt.Errorf("%s closed", what)
	}
	return fmt.Errorf("%s closed: %w", what, err)
}
