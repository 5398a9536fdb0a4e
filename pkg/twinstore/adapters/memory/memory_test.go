package memory_test

import (
	"testing"

	"github.com/nyxwave/fleetmesh/pkg/twinstore/adapters/memory"
	"github.com/nyxwave/fleetmesh/pkg/twinstore/twinstoretest"
)

func TestMemoryStore(t *testing.T) {
	twinstoretest.RunStoreTests(t, memory.New())
}
