// Package mqtest provides an in-memory broker implementing the mq
// Connection and Channel interfaces. It follows the AMQP behaviors the saga
// relies on: per-channel prefetch, delivery tags, ack/nack/requeue,
// dead-lettering through queue arguments and forced disconnects.
package mqtest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Thiagobarros01/hotel-reservation/internal/mq"
)

// deliveryBuffer bounds how many deliveries may sit in a consumer's channel.
const deliveryBuffer = 256

var ErrConnectionRefused = errors.New("dial tcp: connect: connection refused")

type message struct {
	pub         amqp.Publishing
	exchange    string
	routingKey  string
	redelivered bool
}

type queue struct {
	name      string
	args      amqp.Table
	ready     []*message
	consumers []*consumer
	next      int
}

type consumer struct {
	ch         *Channel
	queue      *queue
	tag        string
	autoAck    bool
	prefetch   int
	inflight   int
	deliveries chan amqp.Delivery
}

func (c *consumer) canTake() bool {
	if len(c.deliveries) == cap(c.deliveries) {
		return false
	}
	return c.autoAck || c.prefetch == 0 || c.inflight < c.prefetch
}

type pending struct {
	msg      *message
	queue    *queue
	consumer *consumer
}

type Broker struct {
	mu        sync.Mutex
	queues    map[string]*queue
	exchanges map[string]string
	bindings  map[string]map[string][]string
	conns     map[*Conn]struct{}
	failDials int
	dials     int
	nextTag   uint64
	acks      int
	dropped   int
}

func NewBroker() *Broker {
	return &Broker{
		queues:    make(map[string]*queue),
		exchanges: make(map[string]string),
		bindings:  make(map[string]map[string][]string),
		conns:     make(map[*Conn]struct{}),
	}
}

// Dialer returns an mq.Dialer connecting to b.
func (b *Broker) Dialer() mq.Dialer {
	return func(url string) (mq.Connection, error) {
		conn, err := b.Dial(url)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

func (b *Broker) Dial(string) (*Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dials++
	if b.failDials > 0 {
		b.failDials--
		return nil, ErrConnectionRefused
	}
	conn := &Conn{broker: b}
	b.conns[conn] = struct{}{}
	return conn, nil
}

// FailDials makes the next n dial attempts fail.
func (b *Broker) FailDials(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failDials = n
}

func (b *Broker) Dials() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dials
}

func (b *Broker) Connections() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// DropConnections closes every open connection the way a broker restart
// would: listeners get a CONNECTION_FORCED error and unacked messages are
// requeued as redelivered.
func (b *Broker) DropConnections() {
	b.mu.Lock()
	defer b.mu.Unlock()

	reason := &amqp.Error{Code: amqp.ConnectionForced, Reason: "CONNECTION_FORCED - broker forced connection closure", Server: true}
	for conn := range b.conns {
		b.closeConn(conn, reason)
	}
}

// Inject routes pub through the default exchange to queueName.
func (b *Broker) Inject(queueName string, pub amqp.Publishing) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.queues[queueName]; !ok {
		return fmt.Errorf("no queue %q", queueName)
	}
	b.route("", queueName, pub)
	return nil
}

// Messages returns copies of the messages ready for delivery on queueName.
func (b *Broker) Messages(queueName string) []amqp.Publishing {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[queueName]
	if !ok {
		return nil
	}
	out := make([]amqp.Publishing, 0, len(q.ready))
	for _, m := range q.ready {
		out = append(out, m.pub)
	}
	return out
}

func (b *Broker) Ready(queueName string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[queueName]; ok {
		return len(q.ready)
	}
	return 0
}

// Unacked counts messages delivered from queueName and not yet settled.
func (b *Broker) Unacked(queueName string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for conn := range b.conns {
		for _, ch := range conn.channels {
			for _, p := range ch.unacked {
				if p.queue.name == queueName {
					n++
				}
			}
		}
	}
	return n
}

func (b *Broker) HasQueue(queueName string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.queues[queueName]
	return ok
}

func (b *Broker) QueueArgs(queueName string) amqp.Table {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[queueName]; ok {
		return q.args
	}
	return nil
}

func (b *Broker) Acks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.acks
}

// route must be called with b.mu held.
func (b *Broker) route(exchange, key string, pub amqp.Publishing) {
	var targets []string
	if exchange == "" {
		targets = []string{key}
	} else {
		targets = b.bindings[exchange][key]
	}

	routed := false
	for _, name := range targets {
		q, ok := b.queues[name]
		if !ok {
			continue
		}
		q.ready = append(q.ready, &message{pub: pub, exchange: exchange, routingKey: key})
		routed = true
		b.dispatch(q)
	}
	if !routed {
		b.dropped++
	}
}

// dispatch must be called with b.mu held.
func (b *Broker) dispatch(q *queue) {
	for len(q.ready) > 0 {
		c := q.pick()
		if c == nil {
			return
		}
		m := q.ready[0]
		q.ready = q.ready[1:]

		b.nextTag++
		tag := b.nextTag
		if !c.autoAck {
			c.inflight++
			c.ch.unacked[tag] = &pending{msg: m, queue: q, consumer: c}
		}
		c.deliveries <- amqp.Delivery{
			Acknowledger: c.ch,
			Headers:      m.pub.Headers,
			ContentType:  m.pub.ContentType,
			DeliveryMode: m.pub.DeliveryMode,
			MessageId:    m.pub.MessageId,
			Timestamp:    m.pub.Timestamp,
			ConsumerTag:  c.tag,
			DeliveryTag:  tag,
			Redelivered:  m.redelivered,
			Exchange:     m.exchange,
			RoutingKey:   m.routingKey,
			Body:         m.pub.Body,
		}
	}
}

func (q *queue) pick() *consumer {
	for i := 0; i < len(q.consumers); i++ {
		c := q.consumers[(q.next+i)%len(q.consumers)]
		if c.canTake() {
			q.next = (q.next + i + 1) % len(q.consumers)
			return c
		}
	}
	return nil
}

// deadLetter must be called with b.mu held.
func (b *Broker) deadLetter(q *queue, m *message) {
	dlx, ok := q.args["x-dead-letter-exchange"].(string)
	if !ok {
		b.dropped++
		return
	}
	key := m.routingKey
	if k, ok := q.args["x-dead-letter-routing-key"].(string); ok {
		key = k
	}
	b.route(dlx, key, m.pub)
}

// closeConn must be called with b.mu held.
func (b *Broker) closeConn(conn *Conn, reason *amqp.Error) {
	if conn.closed {
		return
	}
	conn.closed = true
	for _, ch := range conn.channels {
		b.closeChannel(ch, reason)
	}
	conn.channels = nil
	notifyAll(conn.notify, reason)
	conn.notify = nil
	delete(b.conns, conn)
}

// closeChannel must be called with b.mu held.
func (b *Broker) closeChannel(ch *Channel, reason *amqp.Error) {
	if ch.closed {
		return
	}
	ch.closed = true

	for _, c := range ch.consumers {
		c.queue.removeConsumer(c)
		close(c.deliveries)
	}
	ch.consumers = nil

	tags := make([]uint64, 0, len(ch.unacked))
	for tag := range ch.unacked {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	requeued := make(map[*queue][]*message)
	for _, tag := range tags {
		p := ch.unacked[tag]
		p.msg.redelivered = true
		requeued[p.queue] = append(requeued[p.queue], p.msg)
	}
	ch.unacked = nil
	for q, msgs := range requeued {
		q.ready = append(msgs, q.ready...)
		b.dispatch(q)
	}

	notifyAll(ch.notify, reason)
	ch.notify = nil
}

func (q *queue) removeConsumer(c *consumer) {
	for i, other := range q.consumers {
		if other == c {
			q.consumers = append(q.consumers[:i], q.consumers[i+1:]...)
			break
		}
	}
	if len(q.consumers) > 0 {
		q.next %= len(q.consumers)
	} else {
		q.next = 0
	}
}

func notifyAll(receivers []chan *amqp.Error, reason *amqp.Error) {
	for _, r := range receivers {
		if reason != nil {
			r <- reason
		}
		close(r)
	}
}

// Conn is an in-memory mq.Connection.
type Conn struct {
	broker   *Broker
	closed   bool
	notify   []chan *amqp.Error
	channels []*Channel
}

var _ mq.Connection = (*Conn)(nil)

func (c *Conn) Channel() (mq.Channel, error) {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	if c.closed {
		return nil, amqp.ErrClosed
	}
	ch := &Channel{conn: c, unacked: make(map[uint64]*pending)}
	c.channels = append(c.channels, ch)
	return ch, nil
}

func (c *Conn) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	if c.closed {
		close(receiver)
		return receiver
	}
	c.notify = append(c.notify, receiver)
	return receiver
}

func (c *Conn) IsClosed() bool {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	return c.closed
}

func (c *Conn) Close() error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	if c.closed {
		return amqp.ErrClosed
	}
	c.broker.closeConn(c, nil)
	return nil
}

// Channel is an in-memory mq.Channel and the amqp.Acknowledger of the
// deliveries it hands out.
type Channel struct {
	conn      *Conn
	closed    bool
	prefetch  int
	notify    []chan *amqp.Error
	consumers []*consumer
	unacked   map[uint64]*pending
}

var (
	_ mq.Channel        = (*Channel)(nil)
	_ amqp.Acknowledger = (*Channel)(nil)
)

func (ch *Channel) broker() *Broker { return ch.conn.broker }

func (ch *Channel) Qos(prefetchCount, _ int, _ bool) error {
	b := ch.broker()
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch.closed {
		return amqp.ErrClosed
	}
	ch.prefetch = prefetchCount
	return nil
}

func (ch *Channel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	b := ch.broker()
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch.closed {
		return amqp.ErrClosed
	}
	if existing, ok := b.exchanges[name]; ok && existing != kind {
		return ch.fail(amqp.PreconditionFailed, fmt.Sprintf("PRECONDITION_FAILED - inequivalent arg 'type' for exchange '%s'", name))
	}
	b.exchanges[name] = kind
	return nil
}

func (ch *Channel) QueueDeclare(name string, _, _, _, _ bool, args amqp.Table) (amqp.Queue, error) {
	b := ch.broker()
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch.closed {
		return amqp.Queue{}, amqp.ErrClosed
	}
	q, ok := b.queues[name]
	if ok {
		if !sameArgs(q.args, args) {
			return amqp.Queue{}, ch.fail(amqp.PreconditionFailed, fmt.Sprintf("PRECONDITION_FAILED - inequivalent args for queue '%s'", name))
		}
	} else {
		q = &queue{name: name, args: args}
		b.queues[name] = q
	}
	return amqp.Queue{Name: name, Messages: len(q.ready), Consumers: len(q.consumers)}, nil
}

func (ch *Channel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	b := ch.broker()
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch.closed {
		return amqp.ErrClosed
	}
	if _, ok := b.queues[name]; !ok {
		return ch.fail(amqp.NotFound, fmt.Sprintf("NOT_FOUND - no queue '%s'", name))
	}
	if _, ok := b.exchanges[exchange]; !ok {
		return ch.fail(amqp.NotFound, fmt.Sprintf("NOT_FOUND - no exchange '%s'", exchange))
	}
	if b.bindings[exchange] == nil {
		b.bindings[exchange] = make(map[string][]string)
	}
	for _, bound := range b.bindings[exchange][key] {
		if bound == name {
			return nil
		}
	}
	b.bindings[exchange][key] = append(b.bindings[exchange][key], name)
	return nil
}

func (ch *Channel) Consume(queueName, consumerTag string, autoAck, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	b := ch.broker()
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch.closed {
		return nil, amqp.ErrClosed
	}
	q, ok := b.queues[queueName]
	if !ok {
		return nil, ch.fail(amqp.NotFound, fmt.Sprintf("NOT_FOUND - no queue '%s'", queueName))
	}
	if consumerTag == "" {
		b.nextTag++
		consumerTag = fmt.Sprintf("ctag-%d", b.nextTag)
	}
	c := &consumer{
		ch:         ch,
		queue:      q,
		tag:        consumerTag,
		autoAck:    autoAck,
		prefetch:   ch.prefetch,
		deliveries: make(chan amqp.Delivery, deliveryBuffer),
	}
	ch.consumers = append(ch.consumers, c)
	q.consumers = append(q.consumers, c)
	b.dispatch(q)
	return c.deliveries, nil
}

func (ch *Channel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := ch.broker()
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch.closed {
		return amqp.ErrClosed
	}
	if exchange != "" {
		if _, ok := b.exchanges[exchange]; !ok {
			return ch.fail(amqp.NotFound, fmt.Sprintf("NOT_FOUND - no exchange '%s'", exchange))
		}
	}
	b.route(exchange, key, msg)
	return nil
}

func (ch *Channel) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	b := ch.broker()
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch.closed {
		close(receiver)
		return receiver
	}
	ch.notify = append(ch.notify, receiver)
	return receiver
}

func (ch *Channel) Close() error {
	b := ch.broker()
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch.closed {
		return amqp.ErrClosed
	}
	b.closeChannel(ch, nil)
	return nil
}

func (ch *Channel) Ack(tag uint64, multiple bool) error {
	return ch.settle(tag, multiple, func(b *Broker, p *pending) {
		b.acks++
	})
}

func (ch *Channel) Nack(tag uint64, multiple, requeue bool) error {
	return ch.settle(tag, multiple, func(b *Broker, p *pending) {
		if requeue {
			p.msg.redelivered = true
			p.queue.ready = append([]*message{p.msg}, p.queue.ready...)
			return
		}
		b.deadLetter(p.queue, p.msg)
	})
}

func (ch *Channel) Reject(tag uint64, requeue bool) error {
	return ch.Nack(tag, false, requeue)
}

func (ch *Channel) settle(tag uint64, multiple bool, fn func(*Broker, *pending)) error {
	b := ch.broker()
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch.closed {
		return amqp.ErrClosed
	}

	tags := []uint64{tag}
	if multiple {
		tags = tags[:0]
		for t := range ch.unacked {
			if t <= tag {
				tags = append(tags, t)
			}
		}
		sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	}

	touched := make(map[*queue]struct{})
	for _, t := range tags {
		p, ok := ch.unacked[t]
		if !ok {
			// a real broker closes the channel on an unknown delivery tag
			return ch.fail(amqp.PreconditionFailed, fmt.Sprintf("PRECONDITION_FAILED - unknown delivery tag %d", t))
		}
		delete(ch.unacked, t)
		p.consumer.inflight--
		fn(b, p)
		touched[p.queue] = struct{}{}
	}
	for q := range touched {
		b.dispatch(q)
	}
	return nil
}

// fail closes the channel with a channel-level exception and returns it.
// Must be called with b.mu held.
func (ch *Channel) fail(code int, reason string) error {
	err := &amqp.Error{Code: code, Reason: reason, Server: true}
	ch.broker().closeChannel(ch, err)
	return err
}

func sameArgs(a, b amqp.Table) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
