package broker

import amqp "github.com/rabbitmq/amqp091-go"

// ExchangeKind is the recognized set of AMQP exchange types.
type ExchangeKind string

const (
	ExchangeDirect  ExchangeKind = "direct"
	ExchangeTopic   ExchangeKind = "topic"
	ExchangeFanout  ExchangeKind = "fanout"
	ExchangeHeaders ExchangeKind = "headers"
)

// ChannelSettings configures a channel's QoS before it is handed to a
// consumer loop.
type ChannelSettings struct {
	PrefetchCount int
	PrefetchSize  int
	Global        bool
}

// ExchangeSettings is the recognized set of options for DeclareExchange.
type ExchangeSettings struct {
	Name       string
	Kind       ExchangeKind
	Durable    bool
	AutoDelete bool
	Passive    bool
	Args       amqp.Table
}

// QueueSettings is the recognized set of options for DeclareQueue.
type QueueSettings struct {
	Name       string
	Exclusive  bool
	Durable    bool
	AutoDelete bool
	Passive    bool
	Args       amqp.Table
}

// QueueBindSettings is the recognized set of options for BindQueue.
type QueueBindSettings struct {
	RoutingKey string
	Args       amqp.Table
}

// ConsumerSettings is the recognized set of options for a consumer loop.
// An empty ConsumerTag is replaced by a server-generated one.
type ConsumerSettings struct {
	ConsumerTag string
	NoAck       bool
	Exclusive   bool
}

// DurableTopicExchange is a convenience constructor for the topic
// exchanges this subsystem declares (iot-stream, iot-twin).
func DurableTopicExchange(name string) ExchangeSettings {
	return ExchangeSettings{Name: name, Kind: ExchangeTopic, Durable: true}
}

// DurableQueue is a convenience constructor for the registry's durable,
// shared consumer-pool queues.
func DurableQueue(name string) QueueSettings {
	return QueueSettings{Name: name, Durable: true}
}

// InboxQueue is a convenience constructor for a per-device inbox: exclusive
// to the owning connection, not durable across restarts.
func InboxQueue(deviceID string) QueueSettings {
	return QueueSettings{Name: deviceID, Exclusive: true, AutoDelete: true}
}
