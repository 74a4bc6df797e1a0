//go:build integration

package enforcement

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altguard/internal/platform/config"
	"altguard/internal/platform/kafka"
	"altguard/pkg/testutil/containers"
)

func TestKafkaSinkAgainstBroker(t *testing.T) {
	rp := containers.GetManager().GetRedpanda(t)
	cfg := config.KafkaConfig{
		Brokers:           []string{rp.Broker},
		ConsumerGroup:     "enforcement-it",
		Partitions:        1,
		ReplicationFactor: 1,
	}
	topic := "altguard.enforcement.it"

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	producer, err := kafka.NewProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, kafka.EnsureTopics(ctx, producer, cfg, topic))
	require.NoError(t, kafka.EnsureTopics(ctx, producer, cfg, topic), "topic creation is idempotent")

	sink := NewKafkaSink(producer, topic)
	require.NoError(t, sink.DenyAndRemove(ctx, "u2", "g1", "Alt account detected"))

	consumer, err := kafka.NewConsumer(cfg, topic)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err0())
	records := fetches.Records()
	require.NotEmpty(t, records)

	var cmd Command
	require.NoError(t, json.Unmarshal(records[0].Value, &cmd))
	assert.Equal(t, CommandDenyAndRemove, cmd.Type)
	assert.Equal(t, "u2", cmd.SubjectID)
	assert.Equal(t, []byte("u2"), records[0].Key)
}
