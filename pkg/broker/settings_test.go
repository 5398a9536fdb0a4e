package broker_test

import (
	"testing"

	"github.com/nyxwave/fleetmesh/pkg/broker"
	"github.com/stretchr/testify/assert"
)

func TestDurableTopicExchange(t *testing.T) {
	s := broker.DurableTopicExchange("iot-twin")
	assert.Equal(t, "iot-twin", s.Name)
	assert.Equal(t, broker.ExchangeTopic, s.Kind)
	assert.True(t, s.Durable)
}

func TestInboxQueueIsExclusiveAndAutoDelete(t *testing.T) {
	s := broker.InboxQueue("pig5")
	assert.Equal(t, "pig5", s.Name)
	assert.True(t, s.Exclusive)
	assert.True(t, s.AutoDelete)
	assert.False(t, s.Durable)
}
