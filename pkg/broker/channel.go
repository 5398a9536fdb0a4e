package broker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the subset of *amqp091-go.Channel's API this package
// depends on. Declaring it as an interface lets topology declarations and
// the consumer/publish paths run against an in-memory fake in tests,
// without a live broker connection; *amqp.Channel satisfies it
// unmodified.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Client is the subset of *Broker's API used by code that publishes to
// or consumes from it: the registry's consumer pools and its admin-path
// desired fan-out, and the device agent. Production code always wires a
// real *Broker; tests substitute an in-memory fake (see
// pkg/broker/brokertest) to exercise publish, reconciliation, and
// fan-out paths without a live broker connection.
type Client interface {
	GetChannel() (AMQPChannel, error)
	DeclareExchange(ch AMQPChannel, s ExchangeSettings) error
	DeclareQueue(ch AMQPChannel, s QueueSettings) (amqp.Queue, error)
	BindQueue(ch AMQPChannel, queue, exchange string, s QueueBindSettings) error
	SendMessage(ctx context.Context, ch AMQPChannel, payload []byte, exchange, routingKey string) error
	SendMessageWithReply(ctx context.Context, ch AMQPChannel, payload []byte, exchange, routingKey, replyTo string) error
	RPCCall(ctx context.Context, ch AMQPChannel, payload []byte, exchange, routingKey, replyQueue string) error
	Close() error
}

var _ Client = (*Broker)(nil)
