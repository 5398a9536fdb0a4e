// Package registry implements the control-plane service that consumes
// heartbeat/reported/desired-request streams from devices, enforces the
// monotonic-version reconciliation rule on twin properties, persists
// twins in a document store, and fans desired updates back to the
// per-device inbox.
package registry

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/nyxwave/fleetmesh/pkg/broker"
	"github.com/nyxwave/fleetmesh/pkg/concurrency"
	"github.com/nyxwave/fleetmesh/pkg/logger"
	"github.com/nyxwave/fleetmesh/pkg/serialization"
	"github.com/nyxwave/fleetmesh/pkg/sink"
	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/nyxwave/fleetmesh/pkg/twinstore"
)

// Registry owns the four consumer pools and the optional staleness
// sweeper. Construct with New, start with Run, stop by canceling the
// context passed to Run.
type Registry struct {
	cfg    Config
	broker broker.Client
	store  twinstore.Store
	sink   sink.Sink
}

// New wires a registry service against an already-configured broker,
// twin store, and telemetry sink. sink may be nil for deployables that
// never run the telemetry consumer pool (e.g. the admin API, which only
// uses the registry for its desired-update fan-out).
func New(cfg Config, b broker.Client, store twinstore.Store, telemetrySink sink.Sink) *Registry {
	return &Registry{cfg: cfg, broker: b, store: store, sink: telemetrySink}
}

// Run launches the heartbeat, reported, desired-request, and (if a sink
// was supplied) telemetry consumer pools (sized by Config) and, if
// configured, the staleness sweeper. It blocks until ctx is canceled,
// then waits for every consumer goroutine to exit.
func (r *Registry) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	launch := func(n int, fn func(ctx context.Context, worker int)) {
		for i := 0; i < n; i++ {
			worker := i
			wg.Add(1)
			concurrency.SafeGo(ctx, func() {
				defer wg.Done()
				fn(ctx, worker)
			})
		}
	}

	launch(r.cfg.HeartbeatConsumers, r.runHeartbeatConsumer)
	launch(r.cfg.ReportedConsumers, r.runReportedConsumer)
	launch(r.cfg.DesiredRequestConsumers, r.runDesiredRequestConsumer)
	if r.sink != nil {
		launch(r.cfg.TelemetryConsumers, r.runTelemetryConsumer)
	}

	if r.cfg.StalenessSweepInterval > 0 {
		wg.Add(1)
		concurrency.SafeGo(ctx, func() {
			defer wg.Done()
			NewStalenessSweeper(r.store, r.cfg.StalenessSweepInterval, r.cfg.StalenessThreshold).Run(ctx)
		})
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (r *Registry) channelSettings() broker.ChannelSettings {
	return broker.ChannelSettings{PrefetchCount: r.cfg.PrefetchCount}
}

func (r *Registry) runHeartbeatConsumer(ctx context.Context, worker int) {
	codec := serialization.NewJSONCodec[twin.HeartbeatRecord]()
	err := broker.ConsumeTopicQueue(ctx, r.broker,
		broker.DurableTopicExchange(ExchangeTwin),
		broker.DurableQueue(QueueHeartbeat),
		broker.QueueBindSettings{RoutingKey: BindingHeartbeat},
		r.channelSettings(),
		broker.ConsumerSettings{},
		codec,
		r.handleHeartbeat,
		nil,
	)
	if err != nil && ctx.Err() == nil {
		logger.L().ErrorContext(ctx, "heartbeat consumer exited", "worker", worker, "error", err)
	}
}

func (r *Registry) handleHeartbeat(ctx context.Context, payload twin.HeartbeatRecord, replyTo string) error {
	_, err := twinstore.ApplyHeartbeat(ctx, r.store, payload.DeviceID, payload.Timestamp)
	if err != nil {
		logger.L().ErrorContext(ctx, "failed to apply heartbeat", "device_id", payload.DeviceID, "error", err)
		return err
	}
	return nil
}

func (r *Registry) runReportedConsumer(ctx context.Context, worker int) {
	codec := serialization.NewJSONCodec[twin.ReportedRequestRecord]()
	err := broker.ConsumeTopicQueue(ctx, r.broker,
		broker.DurableTopicExchange(ExchangeTwin),
		broker.DurableQueue(QueueReported),
		broker.QueueBindSettings{RoutingKey: BindingReported},
		r.channelSettings(),
		broker.ConsumerSettings{},
		codec,
		r.handleReported,
		nil,
	)
	if err != nil && ctx.Err() == nil {
		logger.L().ErrorContext(ctx, "reported consumer exited", "worker", worker, "error", err)
	}
}

func (r *Registry) handleReported(ctx context.Context, payload twin.ReportedRequestRecord, replyTo string) error {
	_, err := twinstore.Reconcile(ctx, r.store, payload.DeviceID, twin.TargetReported, payload.ReportedProperties)
	if err == nil {
		return nil
	}

	var stale *twinstore.StaleWriteError
	if stderrors.As(err, &stale) {
		// A stale reported write can never be made current by redelivery;
		// ack and drop rather than spin the message forever.
		logger.L().WarnContext(ctx, "dropping stale reported-properties write", "device_id", payload.DeviceID, "stored", stale.Stored, "incoming", stale.Incoming)
		return nil
	}

	logger.L().ErrorContext(ctx, "failed to reconcile reported properties", "device_id", payload.DeviceID, "error", err)
	return err
}

func (r *Registry) runDesiredRequestConsumer(ctx context.Context, worker int) {
	codec := serialization.NewJSONCodec[twin.DesiredRequestRecord]()
	err := broker.ConsumeTopicQueue(ctx, r.broker,
		broker.DurableTopicExchange(ExchangeTwin),
		broker.DurableQueue(QueueDesiredRequest),
		broker.QueueBindSettings{RoutingKey: BindingDesiredRequest},
		r.channelSettings(),
		broker.ConsumerSettings{},
		codec,
		r.handleDesiredRequest,
		nil,
	)
	if err != nil && ctx.Err() == nil {
		logger.L().ErrorContext(ctx, "desired-request consumer exited", "worker", worker, "error", err)
	}
}

func (r *Registry) handleDesiredRequest(ctx context.Context, payload twin.DesiredRequestRecord, replyTo string) error {
	current, err := r.store.SelectByDeviceID(ctx, payload.DeviceID)
	if err != nil {
		return err
	}
	if current == nil {
		logger.L().WarnContext(ctx, "desired-request for unknown device", "device_id", payload.DeviceID)
		return nil
	}
	if replyTo == "" {
		replyTo = payload.DeviceID
	}
	return r.publishDesired(ctx, replyTo, current.Desired)
}

func (r *Registry) runTelemetryConsumer(ctx context.Context, worker int) {
	codec := serialization.NewJSONCodec[twin.TelemetryRecord]()
	err := broker.ConsumeTopicQueue(ctx, r.broker,
		broker.DurableTopicExchange(ExchangeStream),
		broker.DurableQueue(QueueTelemetry),
		broker.QueueBindSettings{RoutingKey: BindingTelemetry},
		r.channelSettings(),
		broker.ConsumerSettings{},
		codec,
		r.handleTelemetry,
		nil,
	)
	if err != nil && ctx.Err() == nil {
		logger.L().ErrorContext(ctx, "telemetry consumer exited", "worker", worker, "error", err)
	}
}

func (r *Registry) handleTelemetry(ctx context.Context, payload twin.TelemetryRecord, replyTo string) error {
	if err := r.sink.Write(ctx, payload); err != nil {
		logger.L().ErrorContext(ctx, "failed to write telemetry record", "device_id", payload.DeviceID, "error", err)
		return err
	}
	return nil
}

// PublishDesiredUpdate fans a new desired property group out to a
// device's inbox, used by the admin-path patch handler after a successful
// reconciliation.
func (r *Registry) PublishDesiredUpdate(ctx context.Context, deviceID string, desired twin.Properties) error {
	return r.publishDesired(ctx, deviceID, desired)
}

func (r *Registry) publishDesired(ctx context.Context, routingKey string, desired twin.Properties) error {
	ch, err := r.broker.GetChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	codec := serialization.NewJSONCodec[twin.Properties]()
	body, err := codec.Encode(desired)
	if err != nil {
		return err
	}

	return r.broker.SendMessage(ctx, ch, body, "", routingKey)
}
