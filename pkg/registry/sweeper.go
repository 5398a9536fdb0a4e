package registry

import (
	"context"
	"time"

	"github.com/nyxwave/fleetmesh/pkg/logger"
	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/nyxwave/fleetmesh/pkg/twinstore"
)

// StalenessSweeper periodically scans every twin and transitions
// Connected devices whose last_activity_time has aged past threshold to
// Disconnected. It is the optional background sweeper left unspecified by
// the core write paths; cadence is an implementation choice.
type StalenessSweeper struct {
	store     twinstore.Store
	interval  time.Duration
	threshold time.Duration
}

// NewStalenessSweeper constructs a sweeper. A nonpositive interval is
// never expected to reach here: Registry.Run only starts the sweeper when
// Config.StalenessSweepInterval is positive.
func NewStalenessSweeper(store twinstore.Store, interval, threshold time.Duration) *StalenessSweeper {
	return &StalenessSweeper{store: store, interval: interval, threshold: threshold}
}

// Run loops until ctx is canceled, sweeping once per interval.
func (s *StalenessSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce reads the full twin list, then patches each stale twin one at
// a time so no write lock is held across the read fan-out.
func (s *StalenessSweeper) sweepOnce(ctx context.Context) {
	twins, err := s.store.SelectAll(ctx)
	if err != nil {
		logger.L().ErrorContext(ctx, "staleness sweep failed to list twins", "error", err)
		return
	}

	cutoff := time.Now().Add(-s.threshold).UnixNano()

	for _, t := range twins {
		if t.Meta.ConnectionState != twin.ConnectionStateConnected {
			continue
		}
		if t.Meta.LastActivityTime >= cutoff {
			continue
		}

		if _, err := s.store.Patch(ctx, t.Meta.DeviceID, twinstore.PathConnectionState, twin.ConnectionStateDisconnected); err != nil {
			logger.L().ErrorContext(ctx, "staleness sweep failed to patch device", "device_id", t.Meta.DeviceID, "error", err)
		}
	}
}
