// Package tests holds a shared contract test suite that every
// messaging.Broker adapter is expected to pass.
package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nyxwave/fleetmesh/pkg/messaging"
	"github.com/stretchr/testify/require"
)

// RunBrokerTests exercises the basic publish/consume contract of a
// messaging.Broker implementation. It is meant to be called from an
// adapter's own _test.go file with a freshly constructed broker.
func RunBrokerTests(t *testing.T, broker messaging.Broker) {
	t.Helper()

	t.Run("PublishAndConsume", func(t *testing.T) {
		testPublishAndConsume(t, broker)
	})
	t.Run("ConsumeStopsOnContextCancel", func(t *testing.T) {
		testConsumeStopsOnContextCancel(t, broker)
	})
	t.Run("Healthy", func(t *testing.T) {
		require.True(t, broker.Healthy(context.Background()))
	})
}

func testPublishAndConsume(t *testing.T, broker messaging.Broker) {
	t.Helper()
	topic := "contract-test-publish-consume"

	producer, err := broker.Producer(topic)
	require.NoError(t, err)
	defer producer.Close()

	consumer, err := broker.Consumer(topic, "contract-test")
	require.NoError(t, err)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received []*messaging.Message

	go func() {
		_ = consumer.Consume(ctx, func(ctx context.Context, msg *messaging.Message) error {
			mu.Lock()
			received = append(received, msg)
			mu.Unlock()
			return nil
		})
	}()

	require.NoError(t, producer.Publish(context.Background(), &messaging.Message{
		Topic:   topic,
		Payload: []byte("hello"),
	}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	require.Equal(t, []byte("hello"), received[0].Payload)
	mu.Unlock()
}

func testConsumeStopsOnContextCancel(t *testing.T, broker messaging.Broker) {
	t.Helper()
	topic := "contract-test-cancel"

	consumer, err := broker.Consumer(topic, "contract-test")
	require.NoError(t, err)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(ctx, func(context.Context, *messaging.Message) error { return nil })
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after context cancellation")
	}
}
