// Package memory is an in-process twinstore.Store implementation used in
// unit tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/nyxwave/fleetmesh/pkg/twinstore"
)

// Store holds twins in a mutex-guarded map keyed by device id. Each
// method-level critical section makes every operation atomic with
// respect to the others.
type Store struct {
	mu    sync.Mutex
	twins map[string]twin.Twin
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{twins: make(map[string]twin.Twin)}
}

func (s *Store) SelectAll(ctx context.Context) ([]twin.Twin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]twin.Twin, 0, len(s.twins))
	for _, t := range s.twins {
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) SelectByDeviceID(ctx context.Context, deviceID string) (*twin.Twin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.twins[deviceID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *Store) SelectWhereMetaDeviceID(ctx context.Context, deviceID string) ([]twin.Twin, error) {
	t, err := s.SelectByDeviceID(ctx, deviceID)
	if err != nil || t == nil {
		return nil, err
	}
	return []twin.Twin{*t}, nil
}

func (s *Store) Insert(ctx context.Context, deviceID string, t twin.Twin) (twin.Twin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.twins[deviceID]; exists {
		return twin.Twin{}, twinstore.ErrAlreadyExists(deviceID)
	}
	s.twins[deviceID] = t
	return t, nil
}

func (s *Store) Patch(ctx context.Context, deviceID string, path string, value any) (twin.Twin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.twins[deviceID]
	if !ok {
		return twin.Twin{}, twinstore.ErrRecordNotFound(deviceID)
	}

	switch path {
	case twinstore.PathLastActivityTime:
		if v, ok := value.(int64); ok {
			t.Meta.LastActivityTime = v
		}
	case twinstore.PathConnectionState:
		if v, ok := value.(twin.ConnectionState); ok {
			t.Meta.ConnectionState = v
		}
	case twinstore.TargetPath(twin.TargetTag):
		if v, ok := value.(twin.Properties); ok {
			t.Tag = v
		}
	case twinstore.TargetPath(twin.TargetDesired):
		if v, ok := value.(twin.Properties); ok {
			t.Desired = v
		}
	case twinstore.TargetPath(twin.TargetReported):
		if v, ok := value.(twin.Properties); ok {
			t.Reported = v
		}
	case twinstore.TargetPath(twin.TargetMeta):
		if v, ok := value.(twin.Meta); ok {
			t.Meta = v
		}
	}

	s.twins[deviceID] = t
	return t, nil
}

func (s *Store) Delete(ctx context.Context, deviceID string) (*twin.Twin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.twins[deviceID]
	if !ok {
		return nil, nil
	}
	delete(s.twins, deviceID)
	return &t, nil
}
