package main

import (
	"context"
	"log/slog"

	"altguard/internal/enforcement"
	"altguard/internal/platform/config"
	"altguard/internal/platform/kafka"
	"altguard/internal/verification/ports"
	"altguard/pkg/platform/circuit"
)

// newSink publishes enforcement commands to Kafka when brokers are configured and
// falls back to the log sink while the broker is unhealthy. Without brokers every
// command goes to the log.
func newSink(ctx context.Context, cfg config.Config, log *slog.Logger) (ports.Sink, func(), error) {
	logSink := enforcement.NewLogSink(log)
	if !cfg.Kafka.Enabled() {
		log.Warn("KAFKA_BROKERS is not set; enforcement commands are only logged")
		return logSink, func() {}, nil
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if err := kafka.EnsureTopics(ctx, producer, cfg.Kafka, cfg.Kafka.EnforcementTopic, cfg.Kafka.MembersTopic); err != nil {
		producer.Close()
		return nil, nil, err
	}

	primary := enforcement.NewKafkaSink(producer, cfg.Kafka.EnforcementTopic, enforcement.WithKafkaLogger(log))
	sink := enforcement.NewFallbackSink(primary, logSink, circuit.New("enforcement"), log)
	return sink, producer.Close, nil
}
