package enforcement

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"altguard/internal/verification/models"
	"altguard/internal/verification/ports"
)

var _ ports.Sink = (*KafkaSink)(nil)
var _ ports.Sink = (*LogSink)(nil)

type capturingProducer struct {
	records []*kgo.Record
	err     error
}

func (p *capturingProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		p.records = append(p.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func decode(t *testing.T, r *kgo.Record) Command {
	t.Helper()
	var cmd Command
	require.NoError(t, json.Unmarshal(r.Value, &cmd))
	return cmd
}

func TestKafkaSink(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	newSink := func() (*KafkaSink, *capturingProducer) {
		p := &capturingProducer{}
		return NewKafkaSink(p, "altguard.enforcement", WithKafkaClock(func() time.Time { return now })), p
	}

	t.Run("deny and remove is keyed by subject", func(t *testing.T) {
		sink, p := newSink()
		require.NoError(t, sink.DenyAndRemove(ctx, "u2", "g1", "Alt account detected"))

		require.Len(t, p.records, 1)
		r := p.records[0]
		assert.Equal(t, "altguard.enforcement", r.Topic)
		assert.Equal(t, []byte("u2"), r.Key)
		require.Len(t, r.Headers, 1)
		assert.Equal(t, "deny_and_remove", string(r.Headers[0].Value))

		cmd := decode(t, r)
		assert.NotEmpty(t, cmd.ID)
		assert.Equal(t, CommandDenyAndRemove, cmd.Type)
		assert.Equal(t, "u2", cmd.SubjectID)
		assert.Equal(t, "g1", cmd.GroupID)
		assert.Equal(t, "Alt account detected", cmd.Reason)
		assert.True(t, now.Equal(cmd.IssuedAt))
	})

	t.Run("verification link carries expiry", func(t *testing.T) {
		sink, p := newSink()
		expires := now.Add(10 * time.Minute)
		require.NoError(t, sink.DeliverVerificationLink(ctx, "u1", "g1", "https://example.test/verify?token=t1", expires))

		cmd := decode(t, p.records[0])
		assert.Equal(t, CommandDeliverLink, cmd.Type)
		assert.Equal(t, "https://example.test/verify?token=t1", cmd.Link)
		require.NotNil(t, cmd.ExpiresAt)
		assert.True(t, expires.Equal(*cmd.ExpiresAt))
	})

	t.Run("moderator alert", func(t *testing.T) {
		sink, p := newSink()
		recorded := now.Add(-time.Hour)
		require.NoError(t, sink.NotifyModerators(ctx, models.AltAlert{
			GroupID:           "g1",
			NewSubjectID:      "u2",
			MatchedSubjectID:  "u1",
			MatchType:         models.MatchFingerprint,
			MatchedAddress:    "1.2.3.4",
			MatchedRecordedAt: recorded,
		}))

		cmd := decode(t, p.records[0])
		assert.Equal(t, CommandNotifyModerators, cmd.Type)
		assert.Equal(t, "u2", cmd.SubjectID)
		require.NotNil(t, cmd.Alert)
		assert.Equal(t, "u1", cmd.Alert.MatchedSubjectID)
		assert.Equal(t, "fingerprint", cmd.Alert.MatchType)
		assert.True(t, recorded.Equal(cmd.Alert.MatchedRecordedAt))
	})

	t.Run("grant and notify", func(t *testing.T) {
		sink, p := newSink()
		require.NoError(t, sink.GrantVerifiedState(ctx, "u1", "g1"))
		require.NoError(t, sink.NotifySubject(ctx, "u1", "welcome"))

		require.Len(t, p.records, 2)
		assert.Equal(t, CommandGrantVerified, decode(t, p.records[0]).Type)
		notify := decode(t, p.records[1])
		assert.Equal(t, CommandNotifySubject, notify.Type)
		assert.Equal(t, "welcome", notify.Message)
	})

	t.Run("produce failure is returned", func(t *testing.T) {
		sink, p := newSink()
		p.err = errors.New("broker unavailable")
		err := sink.GrantVerifiedState(ctx, "u1", "g1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker unavailable")
	})
}
