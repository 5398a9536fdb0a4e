package broker

import (
	"context"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxwave/fleetmesh/pkg/serialization"
)

// fakeAcknowledger records ack/nack/reject calls against a synthetic
// delivery so handleDelivery's discipline can be asserted without a live
// broker connection.
type fakeAcknowledger struct {
	mu       sync.Mutex
	acked    int
	nacked   int
	requeued bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked++
	f.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func TestHandleDeliveryAcksOnSuccess(t *testing.T) {
	ack := &fakeAcknowledger{}
	codec := serialization.NewJSONCodec[string]()
	body, err := codec.Encode("hello")
	require.NoError(t, err)

	delivery := amqp.Delivery{Acknowledger: ack, Body: body}

	var got string
	handleDelivery(context.Background(), delivery, codec, func(ctx context.Context, payload string, replyTo string) error {
		got = payload
		return nil
	})

	assert.Equal(t, "hello", got)
	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, 0, ack.nacked)
}

func TestHandleDeliveryNacksWithRequeueOnHandlerError(t *testing.T) {
	ack := &fakeAcknowledger{}
	codec := serialization.NewJSONCodec[string]()
	body, err := codec.Encode("hello")
	require.NoError(t, err)

	delivery := amqp.Delivery{Acknowledger: ack, Body: body}

	handleDelivery(context.Background(), delivery, codec, func(ctx context.Context, payload string, replyTo string) error {
		return errors.New("handler failed")
	})

	assert.Equal(t, 0, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.True(t, ack.requeued)
}

func TestHandleDeliveryNacksWithRequeueOnDecodeError(t *testing.T) {
	ack := &fakeAcknowledger{}
	codec := serialization.NewJSONCodec[string]()

	delivery := amqp.Delivery{Acknowledger: ack, Body: []byte("not valid json")}

	handleDelivery(context.Background(), delivery, codec, func(ctx context.Context, payload string, replyTo string) error {
		t.Fatal("onMessage must not be called for an undecodable delivery")
		return nil
	})

	assert.Equal(t, 0, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.True(t, ack.requeued)
}

// fakeChannel is a local broker.AMQPChannel fake used to test topology
// declaration idempotence without a live connection.
type fakeChannel struct {
	exchangeDeclares int
	queueDeclares    int
	queueBinds       int
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.exchangeDeclares++
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.queueDeclares++
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.queueBinds++
	return nil
}

func (f *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error { return nil }

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return make(chan amqp.Delivery), nil
}

func (f *fakeChannel) Confirm(noWait bool) error { return nil }

func (f *fakeChannel) NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation {
	return confirm
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestDeclareTopologyIsIdempotent(t *testing.T) {
	b := &Broker{}
	ch := &fakeChannel{}

	exchange := DurableTopicExchange("iot-twin")
	queue := DurableQueue("iot-q-hearthbeat")
	bind := QueueBindSettings{RoutingKey: "#.hearthbeat.v1"}

	for i := 0; i < 2; i++ {
		require.NoError(t, b.DeclareExchange(ch, exchange))
		q, err := b.DeclareQueue(ch, queue)
		require.NoError(t, err)
		require.NoError(t, b.BindQueue(ch, q.Name, exchange.Name, bind))
	}

	assert.Equal(t, 2, ch.exchangeDeclares)
	assert.Equal(t, 2, ch.queueDeclares)
	assert.Equal(t, 2, ch.queueBinds)
}
