// Package sink defines the opaque telemetry-sink interface telemetry
// records are fanned out to. The columnar time-series engine this stands
// in for is an external collaborator outside this module's scope; the
// interface lets the registry depend on a stable shape
// regardless of which storage engine eventually backs it.
package sink

import (
	"context"

	"github.com/nyxwave/fleetmesh/pkg/twin"
)

// Sink accepts telemetry records for durable storage or downstream
// analytics. Implementations decide their own batching/flush policy;
// Write may block until the record is durably queued.
type Sink interface {
	Write(ctx context.Context, record twin.TelemetryRecord) error
	Close() error
}
