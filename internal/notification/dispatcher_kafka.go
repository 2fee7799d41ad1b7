package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"kesher/internal/platform/config"
)

// KafkaDispatcher publishes events to the notification topic. Records are
// keyed by recipient so per-user ordering holds across partitions.
type KafkaDispatcher struct {
	client *kgo.Client
	topic  string
}

// NewKafkaDispatcher connects to the brokers and ensures the topic exists.
func NewKafkaDispatcher(ctx context.Context, cfg config.KafkaConfig, logger *slog.Logger) (*KafkaDispatcher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, cfg.Topic); err != nil {
		logger.WarnContext(ctx, "could not ensure notification topic, relying on broker auto-create",
			"topic", cfg.Topic,
			"error", err,
		)
	}

	return &KafkaDispatcher{client: client, topic: cfg.Topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 3, 1, nil, topic)
	if err != nil {
		return err
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return resp.Err
	}
	return nil
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	record := &kgo.Record{
		Topic: d.topic,
		Key:   []byte(event.RecipientID.String()),
		Value: payload,
	}
	if err := d.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce notification event: %w", err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() {
	d.client.Close()
}

// LogDispatcher is the fallback when Kafka is not configured: events are
// logged and discarded.
type LogDispatcher struct {
	Logger *slog.Logger
}

func (d LogDispatcher) Dispatch(ctx context.Context, event Event) error {
	d.Logger.InfoContext(ctx, "notification event",
		"kind", event.Kind,
		"recipient_id", event.RecipientID,
		"actor_id", event.ActorID,
	)
	return nil
}
