package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is a consumed record decoupled from the client library.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int32
	Offset    int64
}

// Handler processes one message. Returning an error logs it; the offset is still
// committed so a poison message cannot stall the partition.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// Poller is the subset of *kgo.Client the consume loop needs.
type Poller interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
}

// Consume polls until ctx is cancelled or the client is closed, hands every record
// to h and commits each batch after it is handled.
func Consume(ctx context.Context, client Poller, h Handler, logger *slog.Logger) error {
	for {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		records := fetches.Records()
		for _, rec := range records {
			msg := &Message{
				Topic:     rec.Topic,
				Key:       rec.Key,
				Value:     rec.Value,
				Partition: rec.Partition,
				Offset:    rec.Offset,
			}
			if err := h.Handle(ctx, msg); err != nil {
				logger.ErrorContext(ctx, "kafka message handling failed",
					"topic", rec.Topic,
					"partition", rec.Partition,
					"offset", rec.Offset,
					"error", err,
				)
			}
		}
		if len(records) == 0 {
			continue
		}
		if err := client.CommitRecords(ctx, records...); err != nil && ctx.Err() == nil {
			logger.ErrorContext(ctx, "kafka commit failed", "error", err)
		}
	}
}
