//go:build integration

package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestKafkaDispatcherPublishes(t *testing.T) {
	ctx := context.Background()

	container, err := redpanda.Run(ctx, "redpandadata/redpanda:v24.1.2")
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, container)

	broker, err := container.KafkaSeedBroker(ctx)
	require.NoError(t, err)

	const topic = "healthfirst.notifications.test"
	dispatcher, err := NewKafkaDispatcher([]string{broker}, topic, nil)
	require.NoError(t, err)
	defer dispatcher.Close()

	job := Job{
		Kind:      JobVerification,
		RecordID:  uuid.New(),
		Email:     "jane@example.com",
		Name:      "Jane Doe",
		Token:     "tok-abc",
		ExpiresAt: time.Now().Add(24 * time.Hour).UTC(),
	}
	require.NoError(t, dispatcher.Enqueue(ctx, job))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup("test-consumer"),
		kgo.FetchMaxWait(time.Second),
	)
	require.NoError(t, err)
	defer consumer.Close()

	deadline, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	fetches := consumer.PollFetches(deadline)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "jane@example.com", string(records[0].Key))

	var got Job
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, JobVerification, got.Kind)
	assert.Equal(t, job.RecordID, got.RecordID)
	assert.Equal(t, "tok-abc", got.Token)
	assert.NotEqual(t, uuid.Nil, got.ID, "dispatcher stamps an id before publishing")
}
