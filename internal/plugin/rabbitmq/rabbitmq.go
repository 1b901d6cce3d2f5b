// Package rabbitmq implements a notification service kind that
// publishes delivered message bodies onto a RabbitMQ exchange.
package rabbitmq

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

// Plugin publishes each job's body to a configured exchange/routing
// key over a single connection and channel shared by all targets of
// this kind.
type Plugin struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// New constructs a rabbitmq service plugin.
func New() plugin.Plugin {
	return &Plugin{}
}

func (p *Plugin) Init(ctx context.Context, sc *plugin.ServiceContext) error {
	url := sc.StringOption("url", "")
	if url == "" {
		return fmt.Errorf("rabbitmq plugin: target %s requires a url option", sc.ServiceName)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("rabbitmq plugin: dial: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq plugin: open channel: %w", err)
	}

	p.conn, p.channel = conn, channel
	return nil
}

func (p *Plugin) Deliver(ctx context.Context, sc *plugin.ServiceContext, job *core.Job) (bool, error) {
	exchange := sc.StringOption("exchange", "")
	routingKey := sc.StringOption("routing_key", job.Target)

	err := p.channel.Publish(exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "text/plain",
		Body:         []byte(job.Body),
	})
	if err != nil {
		sc.Log.Warn("publish failed", "target", job.Target, "error", err)
		return false, err
	}
	return true, nil
}

func (p *Plugin) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
