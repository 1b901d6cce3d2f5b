package broker

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/warnbridge/warnbridge/internal/pkg/logger"
)

// PahoBroker adapts eclipse/paho.mqtt.golang to the Broker interface.
type PahoBroker struct {
	cfg               Config
	client            mqtt.Client
	onMessage         MessageHandler
	onDisconnect      DisconnectHandler
	log               *logger.Component
}

// NewPahoBroker builds a PahoBroker from cfg. The underlying client is
// not created until Connect, so OnMessage/OnDisconnect can register
// callbacks first.
func NewPahoBroker(cfg Config, log *logger.Component) *PahoBroker {
	return &PahoBroker{cfg: cfg, log: log}
}

func (b *PahoBroker) OnMessage(handler MessageHandler)       { b.onMessage = handler }
func (b *PahoBroker) OnDisconnect(handler DisconnectHandler) { b.onDisconnect = handler }

func (b *PahoBroker) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(b.cfg.BrokerURL).
		SetClientID(b.cfg.ClientID).
		SetCleanSession(b.cfg.CleanSession).
		SetAutoReconnect(false). // reconnect is driven explicitly by the supervisor's backoff loop
		SetConnectTimeout(10 * time.Second)

	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
		opts.SetPassword(b.cfg.Password)
	}
	if b.cfg.KeepAlive > 0 {
		opts.SetKeepAlive(time.Duration(b.cfg.KeepAlive) * time.Second)
	}
	if b.cfg.TLSInsecure {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})
	}

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.log.Warn("broker connection lost", "error", err)
		if b.onDisconnect != nil {
			b.onDisconnect(err)
		}
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return fmt.Errorf("broker: connect timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("broker: connect: %w", err)
	}

	b.client = client
	return nil
}

func (b *PahoBroker) Subscribe(ctx context.Context, patterns []string, qos byte) error {
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if b.onMessage != nil {
			b.onMessage(msg.Topic(), msg.Payload(), msg.Qos(), msg.Retained())
		}
	}

	filters := make(map[string]byte, len(patterns))
	for _, p := range patterns {
		filters[p] = qos
	}

	token := b.client.SubscribeMultiple(filters, handler)
	if !token.WaitTimeout(15 * time.Second) {
		return fmt.Errorf("broker: subscribe timed out")
	}
	return token.Error()
}

func (b *PahoBroker) Publish(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error {
	token := b.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("broker: publish timed out")
	}
	return token.Error()
}

func (b *PahoBroker) Disconnect(ctx context.Context) {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}

func (b *PahoBroker) IsConnected() bool {
	return b.client != nil && b.client.IsConnected()
}
