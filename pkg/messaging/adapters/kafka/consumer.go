package kafka

import (
	"context"
	"sync"

	"github.com/IBM/sarama"
	"github.com/nyxwave/fleetmesh/pkg/messaging"
)

// consumer is a Kafka consumer group implementation.
type consumer struct {
	topic string
	group sarama.ConsumerGroup

	mu     sync.Mutex
	closed bool
}

func (c *consumer) Consume(ctx context.Context, handler messaging.MessageHandler) error {
	h := &groupHandler{handler: handler}

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return messaging.ErrConsumeFailed(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.group.Close()
}

// groupHandler adapts messaging.MessageHandler to sarama's ConsumerGroupHandler.
type groupHandler struct {
	handler messaging.MessageHandler
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			headers := make(map[string]string, len(msg.Headers))
			var id string
			for _, h := range msg.Headers {
				key := string(h.Key)
				if key == "message-id" {
					id = string(h.Value)
					continue
				}
				headers[key] = string(h.Value)
			}

			m := &messaging.Message{
				ID:        id,
				Topic:     msg.Topic,
				Key:       msg.Key,
				Payload:   msg.Value,
				Headers:   headers,
				Timestamp: msg.Timestamp,
				Metadata: messaging.MessageMetadata{
					Partition: msg.Partition,
					Offset:    msg.Offset,
					Raw:       msg,
				},
			}

			if err := h.handler(sess.Context(), m); err != nil {
				// leave this offset unmarked; it is redelivered only if the session
				// ends before a later offset on this partition is marked.
				continue
			}
			sess.MarkMessage(msg, "")

		case <-sess.Context().Done():
			return nil
		}
	}
}
