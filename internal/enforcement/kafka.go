package enforcement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"altguard/internal/verification/models"
)

// Producer is the subset of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaSink publishes enforcement commands keyed by subject so a member's commands
// stay ordered within one partition.
type KafkaSink struct {
	producer Producer
	topic    string
	logger   *slog.Logger
	now      func() time.Time
}

type KafkaOption func(*KafkaSink)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(s *KafkaSink) {
		s.logger = logger
	}
}

func WithKafkaClock(now func() time.Time) KafkaOption {
	return func(s *KafkaSink) {
		if now != nil {
			s.now = now
		}
	}
}

func NewKafkaSink(producer Producer, topic string, opts ...KafkaOption) *KafkaSink {
	s := &KafkaSink{
		producer: producer,
		topic:    topic,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *KafkaSink) DeliverVerificationLink(ctx context.Context, subjectID, groupID, link string, expiresAt time.Time) error {
	cmd := newCommand(CommandDeliverLink, subjectID, groupID, s.now())
	cmd.Link = link
	cmd.ExpiresAt = &expiresAt
	return s.publish(ctx, cmd)
}

func (s *KafkaSink) GrantVerifiedState(ctx context.Context, subjectID, groupID string) error {
	return s.publish(ctx, newCommand(CommandGrantVerified, subjectID, groupID, s.now()))
}

func (s *KafkaSink) DenyAndRemove(ctx context.Context, subjectID, groupID, reason string) error {
	cmd := newCommand(CommandDenyAndRemove, subjectID, groupID, s.now())
	cmd.Reason = reason
	return s.publish(ctx, cmd)
}

func (s *KafkaSink) NotifyModerators(ctx context.Context, alert models.AltAlert) error {
	return s.publish(ctx, alertCommand(alert, s.now()))
}

func (s *KafkaSink) NotifySubject(ctx context.Context, subjectID, message string) error {
	cmd := newCommand(CommandNotifySubject, subjectID, "", s.now())
	cmd.Message = message
	return s.publish(ctx, cmd)
}

func (s *KafkaSink) publish(ctx context.Context, cmd Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal %s command: %w", cmd.Type, err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(cmd.SubjectID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "command_type", Value: []byte(cmd.Type)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish %s command: %w", cmd.Type, err)
	}
	s.logger.DebugContext(ctx, "enforcement command published",
		"command_id", cmd.ID,
		"type", cmd.Type,
		"subject_id", cmd.SubjectID,
	)
	return nil
}
