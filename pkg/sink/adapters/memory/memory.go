// Package memory is a sink.Sink implementation that appends records to an
// in-process slice, used in tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/nyxwave/fleetmesh/pkg/twin"
)

// Sink collects every written record in memory.
type Sink struct {
	mu      sync.Mutex
	records []twin.TelemetryRecord
}

// New returns an empty in-memory sink.
func New() *Sink {
	return &Sink{}
}

func (s *Sink) Write(ctx context.Context, record twin.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *Sink) Close() error { return nil }

// Records returns a snapshot of every record written so far.
func (s *Sink) Records() []twin.TelemetryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]twin.TelemetryRecord, len(s.records))
	copy(out, s.records)
	return out
}
