package agent_test

import (
	"testing"

	"github.com/nyxwave/fleetmesh/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFailsWithoutDeviceID(t *testing.T) {
	_, err := agent.NewBuilder().WithBroker("amqp://localhost").Build()
	assert.Error(t, err)
}

func TestBuildFailsWithoutBroker(t *testing.T) {
	_, err := agent.NewBuilder().WithDeviceID("pig5").Build()
	assert.Error(t, err)
}

func TestBuildSucceedsWithRequiredFields(t *testing.T) {
	a, err := agent.NewBuilder().
		WithDeviceID("pig5").
		WithBroker("amqp://localhost:5672").
		WithAgentKind("dizer").
		Build()
	require.NoError(t, err)
	assert.Equal(t, "pig5", a.DeviceID())
}
