// Package brokertest provides in-memory fakes for broker.Client and
// broker.AMQPChannel, for tests in other packages (registry, admin-api)
// that need to exercise a publish or fan-out path without a live broker
// connection. It mirrors the shared-test-harness convention used
// elsewhere in this module (twinstoretest, messaging's adapters/memory).
package brokertest

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nyxwave/fleetmesh/pkg/broker"
)

// PublishedMessage records one SendMessage/SendMessageWithReply/RPCCall
// call made against a Client.
type PublishedMessage struct {
	Payload    []byte
	Exchange   string
	RoutingKey string
	ReplyTo    string
}

// Client is an in-memory fake of broker.Client. Declarations always
// succeed; every publish is recorded instead of sent anywhere.
type Client struct {
	mu        sync.Mutex
	published []PublishedMessage
}

// New returns an empty fake client.
func New() *Client { return &Client{} }

var _ broker.Client = (*Client)(nil)

func (c *Client) GetChannel() (broker.AMQPChannel, error) { return Channel{}, nil }

func (c *Client) DeclareExchange(ch broker.AMQPChannel, s broker.ExchangeSettings) error {
	return nil
}

func (c *Client) DeclareQueue(ch broker.AMQPChannel, s broker.QueueSettings) (amqp.Queue, error) {
	return amqp.Queue{Name: s.Name}, nil
}

func (c *Client) BindQueue(ch broker.AMQPChannel, queue, exchange string, s broker.QueueBindSettings) error {
	return nil
}

func (c *Client) SendMessage(ctx context.Context, ch broker.AMQPChannel, payload []byte, exchange, routingKey string) error {
	return c.record(payload, exchange, routingKey, "")
}

func (c *Client) SendMessageWithReply(ctx context.Context, ch broker.AMQPChannel, payload []byte, exchange, routingKey, replyTo string) error {
	return c.record(payload, exchange, routingKey, replyTo)
}

func (c *Client) RPCCall(ctx context.Context, ch broker.AMQPChannel, payload []byte, exchange, routingKey, replyQueue string) error {
	return c.record(payload, exchange, routingKey, replyQueue)
}

func (c *Client) Close() error { return nil }

func (c *Client) record(payload []byte, exchange, routingKey, replyTo string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, PublishedMessage{Payload: payload, Exchange: exchange, RoutingKey: routingKey, ReplyTo: replyTo})
	return nil
}

// Messages returns a snapshot of every message published so far.
func (c *Client) Messages() []PublishedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PublishedMessage, len(c.published))
	copy(out, c.published)
	return out
}

// Channel is a no-op broker.AMQPChannel fake. Client never delegates to
// it (SendMessage et al. are recorded directly on Client), but GetChannel
// still needs a concrete value to hand back.
type Channel struct{}

var _ broker.AMQPChannel = Channel{}

func (Channel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return nil
}

func (Channel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}

func (Channel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error { return nil }

func (Channel) Qos(prefetchCount, prefetchSize int, global bool) error { return nil }

func (Channel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return make(chan amqp.Delivery), nil
}

func (Channel) Confirm(noWait bool) error { return nil }

func (Channel) NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation { return confirm }

func (Channel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return nil
}

func (Channel) Close() error { return nil }
