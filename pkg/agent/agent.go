// Package agent implements the device-side library that joins the fleet:
// it maintains a heartbeat task, streams telemetry, requests its initial
// desired state via RPC, subscribes to a per-device inbox for
// desired-property pushes, and emits reported-property updates.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/nyxwave/fleetmesh/pkg/broker"
	"github.com/nyxwave/fleetmesh/pkg/concurrency"
	"github.com/nyxwave/fleetmesh/pkg/logger"
	"github.com/nyxwave/fleetmesh/pkg/serialization"
	"github.com/nyxwave/fleetmesh/pkg/twin"
)

// DesiredPropertiesHandler is invoked for each delivery on the agent's
// inbox. Handlers run on the inbox consumer task; they must be
// non-blocking or spawn their own goroutine.
type DesiredPropertiesHandler func(ctx context.Context, properties twin.Properties)

// Agent joins the fleet on behalf of one device. Construct one with
// NewBuilder().Build().
type Agent struct {
	cfg Config

	broker *broker.Broker

	inboxReady     chan struct{}
	inboxReadyOnce sync.Once

	handlersMu sync.Mutex
	handlers   []DesiredPropertiesHandler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newAgent(cfg Config, handlers []DesiredPropertiesHandler) *Agent {
	return &Agent{cfg: cfg, handlers: handlers, inboxReady: make(chan struct{})}
}

// DeviceID returns the agent's configured device identity.
func (a *Agent) DeviceID() string { return a.cfg.DeviceID }

// signalInboxReady marks the inbox queue as declared and consuming.
// Idempotent across the inbox consumer's reconnect loop, which calls it
// again on every successful (re)entry.
func (a *Agent) signalInboxReady() {
	a.inboxReadyOnce.Do(func() { close(a.inboxReady) })
}

// JoinFleet opens a broker connection, launches the heartbeat task,
// subscribes to the device's inbox, and requests its initial desired
// state. The desired-properties request is an RPC whose reply is
// delivered to the inbox queue, so it blocks until that queue has
// actually been declared and is consuming (or ctx is canceled) before
// publishing — otherwise the registry's reply could be published before
// RabbitMQ has anywhere to route it, and would be silently dropped.
// JoinFleet returns once that request has been attempted; the heartbeat
// and inbox tasks continue on background goroutines until LeaveFleet.
func (a *Agent) JoinFleet(ctx context.Context) error {
	a.broker = broker.New(a.cfg.MirAddr, a.cfg.ThreadCount)

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	concurrency.SafeGo(runCtx, func() {
		defer a.wg.Done()
		a.runHeartbeatLoop(runCtx)
	})

	a.wg.Add(1)
	concurrency.SafeGo(runCtx, func() {
		defer a.wg.Done()
		a.runInboxConsumer(runCtx)
	})

	select {
	case <-a.inboxReady:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := a.SendDesiredPropertiesRequest(ctx); err != nil {
		logger.ForDevice(a.cfg.DeviceID).WarnContext(ctx, "initial desired-properties request failed", "error", err)
	}

	return nil
}

// LeaveFleet closes the connection pool; the heartbeat and inbox tasks
// exit on their next suspension.
func (a *Agent) LeaveFleet() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	if a.broker != nil {
		return a.broker.Close()
	}
	return nil
}

func (a *Agent) runHeartbeatLoop(ctx context.Context) {
	interval := a.cfg.HeartbeatInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.sendHeartbeat(ctx); err != nil {
				logger.ForDevice(a.cfg.DeviceID).ErrorContext(ctx, "failed to send heartbeat", "error", err)
			}
		}
	}
}

func (a *Agent) sendHeartbeat(ctx context.Context) error {
	ch, err := a.broker.GetChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	codec := serialization.NewJSONCodec[twin.HeartbeatRecord]()
	body, err := codec.Encode(twin.HeartbeatRecord{DeviceID: a.cfg.DeviceID, Timestamp: time.Now().UnixNano()})
	if err != nil {
		return err
	}

	return a.broker.SendMessage(ctx, ch, body, ExchangeTwin, a.cfg.heartbeatRoutingKey())
}

func (a *Agent) runInboxConsumer(ctx context.Context) {
	codec := serialization.NewJSONCodec[twin.Properties]()
	err := broker.ConsumeQueue(ctx, a.broker,
		broker.InboxQueue(a.cfg.DeviceID),
		broker.ConsumerSettings{ConsumerTag: "agent-" + a.cfg.DeviceID},
		codec,
		func(ctx context.Context, props twin.Properties, replyTo string) error {
			a.dispatchDesiredProperties(ctx, props)
			return nil
		},
		a.signalInboxReady,
	)
	if err != nil && ctx.Err() == nil {
		logger.ForDevice(a.cfg.DeviceID).ErrorContext(ctx, "inbox consumer exited", "error", err)
	}
}

func (a *Agent) dispatchDesiredProperties(ctx context.Context, props twin.Properties) {
	a.handlersMu.Lock()
	handlers := make([]DesiredPropertiesHandler, len(a.handlers))
	copy(handlers, a.handlers)
	a.handlersMu.Unlock()

	for _, h := range handlers {
		h(ctx, props)
	}
}

// AddDesiredPropertiesHandler appends a callback invoked for each
// delivery on the inbox, in registration order.
func (a *Agent) AddDesiredPropertiesHandler(h DesiredPropertiesHandler) {
	a.handlersMu.Lock()
	defer a.handlersMu.Unlock()
	a.handlers = append(a.handlers, h)
}

// SendTelemetry wraps t into a TelemetryRecord and publishes it to the
// iot-stream exchange.
func (a *Agent) SendTelemetry(ctx context.Context, t twin.Telemetry) error {
	ch, err := a.broker.GetChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	codec := serialization.NewJSONCodec[twin.TelemetryRecord]()
	body, err := codec.Encode(twin.TelemetryRecord{
		DeviceID:  a.cfg.DeviceID,
		Timestamp: time.Now().UnixNano(),
		Telemetry: t,
	})
	if err != nil {
		return err
	}

	return a.broker.SendMessage(ctx, ch, body, ExchangeStream, a.cfg.telemetryRoutingKey())
}

// SendReportedPropertiesRequest publishes the device's current reported
// properties to the iot-twin exchange.
func (a *Agent) SendReportedPropertiesRequest(ctx context.Context, properties twin.Properties) error {
	ch, err := a.broker.GetChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	codec := serialization.NewJSONCodec[twin.ReportedRequestRecord]()
	body, err := codec.Encode(twin.ReportedRequestRecord{
		DeviceID:           a.cfg.DeviceID,
		Timestamp:          time.Now().UnixNano(),
		ReportedProperties: properties,
	})
	if err != nil {
		return err
	}

	return a.broker.SendMessage(ctx, ch, body, ExchangeTwin, a.cfg.reportedRoutingKey())
}

// SendDesiredPropertiesRequest performs an RPC-style request for the
// device's current desired properties, with reply_to set to the device's
// own inbox queue. The response arrives on the inbox consumer task and is
// delivered to registered desired-properties handlers like any other
// inbox message.
func (a *Agent) SendDesiredPropertiesRequest(ctx context.Context) error {
	ch, err := a.broker.GetChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	codec := serialization.NewJSONCodec[twin.DesiredRequestRecord]()
	body, err := codec.Encode(twin.DesiredRequestRecord{
		DeviceID:  a.cfg.DeviceID,
		Timestamp: time.Now().UnixNano(),
	})
	if err != nil {
		return err
	}

	return a.broker.RPCCall(ctx, ch, body, ExchangeTwin, a.cfg.desiredRoutingKey(), a.cfg.DeviceID)
}
