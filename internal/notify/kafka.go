package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaDispatcher publishes jobs to a Kafka topic for delivery by external
// workers. Produce is asynchronous: Enqueue returns as soon as the record is
// buffered, and broker-side failures are logged by the produce callback.
type KafkaDispatcher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaDispatcher(brokers []string, topic string, logger *slog.Logger) (*KafkaDispatcher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	d := &KafkaDispatcher{client: client, topic: topic, logger: logger}
	if err := d.ensureTopic(context.Background()); err != nil {
		client.Close()
		return nil, err
	}
	return d, nil
}

// ensureTopic creates the notification topic if it does not exist yet.
func (d *KafkaDispatcher) ensureTopic(ctx context.Context) error {
	adm := kadm.NewClient(d.client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, d.topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", d.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %q: %w", d.topic, resp.Err)
	}
	return nil
}

func (d *KafkaDispatcher) Enqueue(ctx context.Context, job Job) error {
	job = stamp(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal notification job: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(job.Email),
		Value: payload,
		Topic: d.topic,
	}
	d.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			d.logger.Error("notification publish failed",
				"job_id", job.ID, "kind", job.Kind, "error", err)
		}
	})
	return nil
}

func (d *KafkaDispatcher) Close() {
	d.client.Close()
}
