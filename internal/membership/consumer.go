package membership

import (
	"context"
	"encoding/json"
	"log/slog"

	"altguard/internal/platform/kafka"
)

// EventMemberJoined is the only record type on the members topic this service acts on.
const EventMemberJoined = "member_joined"

// KafkaHandler feeds member_joined records into the join service.
type KafkaHandler struct {
	service JoinService
	logger  *slog.Logger
}

func NewKafkaHandler(service JoinService, logger *slog.Logger) *KafkaHandler {
	return &KafkaHandler{service: service, logger: logger}
}

// Handle returns nil for malformed or unrelated records so they are committed and
// skipped. Errors from the join service are returned for logging.
func (h *KafkaHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	var req JoinRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		h.logger.WarnContext(ctx, "malformed membership record",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	req.Normalize()
	if req.Type != "" && req.Type != EventMemberJoined {
		return nil
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "invalid membership record",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	_, err := h.service.HandleJoin(ctx, req.toEvent())
	return err
}
