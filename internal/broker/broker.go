// Package broker defines the MQTT connection abstraction the
// supervisor drives, with a paho-backed production implementation.
package broker

import "context"

// MessageHandler receives one inbound publish: topic, payload, QoS,
// and whether it was a retained message.
type MessageHandler func(topic string, payload []byte, qos byte, retained bool)

// DisconnectHandler is invoked when the broker connection is lost
// unexpectedly (not during an orderly Disconnect).
type DisconnectHandler func(err error)

// Broker is the contract the supervisor drives: connect, subscribe to
// a set of topic patterns, publish (used by periodic tasks that also
// want to re-publish upstream), and disconnect. OnMessage/OnDisconnect
// register callbacks and must be called before Connect.
type Broker interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, patterns []string, qos byte) error
	Publish(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error
	Disconnect(ctx context.Context)
	OnMessage(handler MessageHandler)
	OnDisconnect(handler DisconnectHandler)
	IsConnected() bool
}

// Config holds the connection parameters common to any broker
// implementation.
type Config struct {
	BrokerURL    string
	ClientID     string
	Username     string
	Password     string
	CleanSession bool
	KeepAlive    int // seconds
	TLSInsecure  bool
}
