package twin

// Telemetry is the free-form sample payload carried by a TelemetryRecord.
// Keys are numeric sensor channel ids; each typed map carries samples of
// that type. encoding/json marshals int64-keyed maps as objects with
// quoted decimal keys, so the wire shape stays plain JSON.
type Telemetry struct {
	Floats  map[int64]float64 `json:"floats,omitempty"`
	Ints    map[int64]int64   `json:"ints,omitempty"`
	Bools   map[int64]bool    `json:"bools,omitempty"`
	Strings map[int64]string  `json:"strings,omitempty"`
}

// TelemetryRecord is the wire shape published to the iot-stream exchange.
// It is never persisted by the core; it is handed to an external sink.
type TelemetryRecord struct {
	DeviceID  string    `json:"device_id"`
	Timestamp int64     `json:"timestamp"`
	Telemetry Telemetry `json:"telemetry"`
}

// HeartbeatRecord is published by an agent on its heartbeat task and
// consumed by the registry's heartbeat consumer pool.
type HeartbeatRecord struct {
	DeviceID  string `json:"device_id"`
	Timestamp int64  `json:"timestamp"`
}

// DesiredRequestRecord is published by an agent to request its current
// desired properties. The delivering message's reply_to carries the
// inbox queue the registry should answer on.
type DesiredRequestRecord struct {
	DeviceID  string `json:"device_id"`
	Timestamp int64  `json:"timestamp"`
}

// ReportedRequestRecord is published by an agent to push its reported
// properties to the registry.
type ReportedRequestRecord struct {
	DeviceID           string     `json:"device_id"`
	Timestamp          int64      `json:"timestamp"`
	ReportedProperties Properties `json:"reported_properties"`
}
