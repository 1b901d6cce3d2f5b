// Package kafka implements a notification service kind that produces
// delivered message bodies onto a Kafka topic, for deployments that
// want to fan alerts into a durable stream instead of (or alongside)
// an outward-facing notification.
package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

// Plugin produces one message per job to a configured Kafka topic
// using a synchronous producer shared across targets of this kind.
type Plugin struct {
	producer sarama.SyncProducer
}

// New constructs a kafka service plugin.
func New() plugin.Plugin {
	return &Plugin{}
}

func (p *Plugin) Init(ctx context.Context, sc *plugin.ServiceContext) error {
	brokersOpt, ok := sc.Options["brokers"].([]string)
	if !ok || len(brokersOpt) == 0 {
		return fmt.Errorf("kafka plugin: target %s requires a brokers option", sc.ServiceName)
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.ClientID = sc.StringOption("client_id", "warnbridge")

	producer, err := sarama.NewSyncProducer(brokersOpt, cfg)
	if err != nil {
		return fmt.Errorf("kafka plugin: %w", err)
	}
	p.producer = producer
	return nil
}

func (p *Plugin) Deliver(ctx context.Context, sc *plugin.ServiceContext, job *core.Job) (bool, error) {
	topic := sc.StringOption("topic", "")
	if topic == "" {
		return false, fmt.Errorf("kafka plugin: target %s has no topic option", job.Target)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(job.Topic),
		Value: sarama.StringEncoder(job.Body),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		sc.Log.Warn("produce failed", "target", job.Target, "error", err)
		return false, err
	}
	return true, nil
}

func (p *Plugin) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
