// Package broker is a small, typed façade over an AMQP-shaped broker:
// pooled connections, idempotent topology declarations, Brotli-compressed
// publishes, and cooperative-cancellation consumer loops with a
// request/reply primitive built on reply-to queues.
package broker

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nyxwave/fleetmesh/pkg/errors"
	"github.com/nyxwave/fleetmesh/pkg/logger"
	"github.com/nyxwave/fleetmesh/pkg/serialization"
)

// reconnectBackoff is the steady interval a consumer loop waits before
// re-entering after a transport error.
const reconnectBackoff = 5 * time.Second

// Broker is a pooled AMQP client. The zero value is not usable; construct
// one with New.
type Broker struct {
	pool *pool
}

// New constructs a connection pool of the given capped size. Dialing is
// lazy: failures surface on first use, not from New itself.
func New(url string, poolSize int) *Broker {
	return &Broker{pool: newPool(url, poolSize)}
}

// Close releases every pooled connection.
func (b *Broker) Close() error {
	return b.pool.close()
}

// GetConnection acquires a pooled connection.
func (b *Broker) GetConnection() (*amqp.Connection, error) {
	return b.pool.get()
}

// GetChannel acquires a pooled connection and opens a fresh multiplexed
// channel on it.
func (b *Broker) GetChannel() (AMQPChannel, error) {
	return b.pool.channel()
}

// DeclareExchange idempotently declares an exchange. Declaring against
// incompatible pre-existing attributes fails with TopologyConflict.
func (b *Broker) DeclareExchange(ch AMQPChannel, s ExchangeSettings) error {
	err := ch.ExchangeDeclare(s.Name, string(s.Kind), s.Durable, s.AutoDelete, false, s.Passive, s.Args)
	if err != nil {
		return ErrTopologyConflict(s.Name, err)
	}
	return nil
}

// DeclareQueue idempotently declares a queue.
func (b *Broker) DeclareQueue(ch AMQPChannel, s QueueSettings) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(s.Name, s.Durable, s.AutoDelete, s.Exclusive, s.Passive, s.Args)
	if err != nil {
		return amqp.Queue{}, ErrTopologyConflict(s.Name, err)
	}
	return q, nil
}

// BindQueue idempotently binds a queue to an exchange.
func (b *Broker) BindQueue(ch AMQPChannel, queue, exchange string, s QueueBindSettings) error {
	err := ch.QueueBind(queue, s.RoutingKey, exchange, false, s.Args)
	if err != nil {
		return ErrTopologyConflict(queue, err)
	}
	return nil
}

// SendMessage publishes a Brotli-compressed body with content_encoding
// "br" and waits for the broker's publish confirmation.
func (b *Broker) SendMessage(ctx context.Context, ch AMQPChannel, payload []byte, exchange, routingKey string) error {
	return b.publish(ctx, ch, payload, exchange, routingKey, "")
}

// SendMessageWithReply is SendMessage with reply_to set in the message
// properties. The reply queue must already be declared by the caller.
func (b *Broker) SendMessageWithReply(ctx context.Context, ch AMQPChannel, payload []byte, exchange, routingKey, replyTo string) error {
	return b.publish(ctx, ch, payload, exchange, routingKey, replyTo)
}

func (b *Broker) publish(ctx context.Context, ch AMQPChannel, payload []byte, exchange, routingKey, replyTo string) error {
	compressed, err := Compress(payload)
	if err != nil {
		return err
	}

	if err := ch.Confirm(false); err != nil {
		return ErrPublishFailed(err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	pub := amqp.Publishing{
		ContentEncoding: ContentEncodingBrotli,
		DeliveryMode:    amqp.Persistent,
		Timestamp:       time.Now(),
		Body:            compressed,
	}
	if replyTo != "" {
		pub.ReplyTo = replyTo
	}

	if err := ch.PublishWithContext(ctx, exchange, routingKey, false, false, pub); err != nil {
		return ErrPublishFailed(err)
	}

	select {
	case confirm, ok := <-confirms:
		if !ok || !confirm.Ack {
			return ErrPublishFailed(nil)
		}
		return nil
	case <-ctx.Done():
		return ErrPublishFailed(ctx.Err())
	}
}

// OnMessage is invoked once per delivery by a consumer loop. Returning nil
// acks the delivery; returning an error nacks it with requeue=true.
// replyTo carries the delivery's reply-to property, if any.
type OnMessage[T any] func(ctx context.Context, payload T, replyTo string) error

// ConsumeTopicQueue declares the exchange/queue/binding, sets channel QoS,
// opens a consumer, and runs a single-threaded cooperative loop until ctx
// is canceled or the delivery stream ends. Transport errors restart the
// whole loop after reconnectBackoff; a topology conflict is returned
// instead of restarting. If onReady is non-nil, it is called
// once per successful (re)entry into the loop, right after the consumer
// is registered with the broker and before the first delivery is read —
// callers that must not publish until the queue is actually receiving
// (e.g. an RPC requester whose reply arrives on this queue) block on it.
func ConsumeTopicQueue[T any](ctx context.Context, b Client, exchange ExchangeSettings, queue QueueSettings, bind QueueBindSettings, channelSettings ChannelSettings, consumerSettings ConsumerSettings, codec serialization.Codec[T], onMessage OnMessage[T], onReady func()) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := runConsumeLoop(ctx, b, exchange, queue, &bind, channelSettings, consumerSettings, codec, onMessage, onReady)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.CodeOf(err) == CodeTopologyConflict {
			return err
		}
		if err != nil {
			logger.L().ErrorContext(ctx, "consumer loop restarting after error", "queue", queue.Name, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectBackoff):
		}
	}
}

// ConsumeQueue is ConsumeTopicQueue without exchange/binding declaration,
// used for per-device inbox queues. See ConsumeTopicQueue for onReady's
// contract.
func ConsumeQueue[T any](ctx context.Context, b Client, queue QueueSettings, consumerSettings ConsumerSettings, codec serialization.Codec[T], onMessage OnMessage[T], onReady func()) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := runConsumeLoop(ctx, b, ExchangeSettings{}, queue, nil, ChannelSettings{}, consumerSettings, codec, onMessage, onReady)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.L().ErrorContext(ctx, "inbox consumer restarting after error", "queue", queue.Name, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectBackoff):
		}
	}
}

func runConsumeLoop[T any](ctx context.Context, b Client, exchange ExchangeSettings, queue QueueSettings, bind *QueueBindSettings, channelSettings ChannelSettings, consumerSettings ConsumerSettings, codec serialization.Codec[T], onMessage OnMessage[T], onReady func()) error {
	ch, err := b.GetChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if exchange.Name != "" {
		if err := b.DeclareExchange(ch, exchange); err != nil {
			return err
		}
	}

	q, err := b.DeclareQueue(ch, queue)
	if err != nil {
		return err
	}

	if bind != nil && exchange.Name != "" {
		if err := b.BindQueue(ch, q.Name, exchange.Name, *bind); err != nil {
			return err
		}
	}

	if channelSettings.PrefetchCount > 0 {
		if err := ch.Qos(channelSettings.PrefetchCount, channelSettings.PrefetchSize, channelSettings.Global); err != nil {
			return ErrBrokerUnavailable(err)
		}
	}

	deliveries, err := ch.Consume(q.Name, consumerSettings.ConsumerTag, consumerSettings.NoAck, consumerSettings.Exclusive, false, false, nil)
	if err != nil {
		return ErrBrokerUnavailable(err)
	}

	if onReady != nil {
		onReady()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return ErrBrokerUnavailable(nil)
			}
			handleDelivery(ctx, delivery, codec, onMessage)
		}
	}
}

func handleDelivery[T any](ctx context.Context, delivery amqp.Delivery, codec serialization.Codec[T], onMessage OnMessage[T]) {
	body, err := DecodeBody(delivery.ContentEncoding, delivery.Body)
	if err != nil {
		logger.L().ErrorContext(ctx, "failed to decompress delivery", "error", err)
		_ = delivery.Nack(false, true)
		return
	}

	payload, err := codec.Decode(body)
	if err != nil {
		logger.L().ErrorContext(ctx, "failed to decode delivery", "error", err)
		_ = delivery.Nack(false, true)
		return
	}

	if err := onMessage(ctx, payload, delivery.ReplyTo); err != nil {
		logger.L().ErrorContext(ctx, "handler returned error, nacking with requeue", "error", err)
		_ = delivery.Nack(false, true)
		return
	}

	_ = delivery.Ack(false)
}

// RPCCall publishes payload with reply_to set to replyQueue, which the
// caller must already be consuming from. The matched response is
// delivered to whatever listener the caller installed there; RPCCall
// itself only performs the request half.
func (b *Broker) RPCCall(ctx context.Context, ch AMQPChannel, payload []byte, exchange, routingKey, replyQueue string) error {
	return b.SendMessageWithReply(ctx, ch, payload, exchange, routingKey, replyQueue)
}
