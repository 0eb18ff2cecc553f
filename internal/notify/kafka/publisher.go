// Package kafka publishes committed outbox rows to the notification topic.
// Kafka is the hand-off point to delivery systems (email, push); this
// service never knows how a notification finally reaches a person.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"casefile/internal/notify"
)

// Publisher produces notification records keyed by recipient so one
// recipient's notifications stay ordered within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// New connects to the brokers and ensures the topic exists.
func New(ctx context.Context, brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	// Already-exists is fine; anything else is a startup failure.
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 3, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, resp.Err)
	}

	return &Publisher{client: client, topic: topic}, nil
}

// Publish produces one record per notification and waits for acks.
func (p *Publisher) Publish(ctx context.Context, notifications []notify.Notification) error {
	for _, n := range notifications {
		value, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal notification %s: %w", n.ID, err)
		}
		record := &kgo.Record{
			Topic: p.topic,
			Key:   []byte(n.Recipient.String()),
			Value: value,
		}
		if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("produce notification %s: %w", n.ID, err)
		}
	}
	return nil
}

// Close flushes and closes the underlying client.
func (p *Publisher) Close() {
	p.client.Close()
}
