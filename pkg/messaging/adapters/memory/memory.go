// Package memory provides an in-process messaging.Broker implementation
// backed by buffered Go channels. It is used in unit tests and in local
// development in place of a real broker.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nyxwave/fleetmesh/pkg/messaging"
)

// Config configures the in-memory broker.
type Config struct {
	// BufferSize is the channel capacity allocated per topic.
	BufferSize int
}

// Broker is a messaging.Broker that delivers messages through in-process
// channels, one per topic.
type Broker struct {
	cfg Config

	mu     sync.Mutex
	topics map[string]chan *messaging.Message
	closed bool
}

// New returns a ready in-memory broker.
func New(cfg Config) *Broker {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	return &Broker{
		cfg:    cfg,
		topics: make(map[string]chan *messaging.Message),
	}
}

func (b *Broker) channel(topic string) chan *messaging.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.topics[topic]
	if !ok {
		ch = make(chan *messaging.Message, b.cfg.BufferSize)
		b.topics[topic] = ch
	}
	return ch
}

func (b *Broker) Producer(topic string) (messaging.Producer, error) {
	return &producer{broker: b, topic: topic}, nil
}

func (b *Broker) Consumer(topic string, group string) (messaging.Consumer, error) {
	return &consumer{broker: b, topic: topic}, nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, ch := range b.topics {
		close(ch)
	}
	return nil
}

func (b *Broker) Healthy(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

type producer struct {
	broker *Broker
	topic  string
}

func (p *producer) Publish(ctx context.Context, msg *messaging.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	topic := p.topic
	if msg.Topic != "" {
		topic = msg.Topic
	}

	select {
	case p.broker.channel(topic) <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return messaging.ErrQueueFull(nil)
	}
}

func (p *producer) PublishBatch(ctx context.Context, msgs []*messaging.Message) error {
	for _, msg := range msgs {
		if err := p.Publish(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (p *producer) Close() error { return nil }

type consumer struct {
	broker *Broker
	topic  string
}

func (c *consumer) Consume(ctx context.Context, handler messaging.MessageHandler) error {
	ch := c.broker.channel(c.topic)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := handler(ctx, msg); err != nil {
				continue
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *consumer) Close() error { return nil }
