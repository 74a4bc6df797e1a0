package enforcement

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altguard/internal/verification/models"
)

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := context.Background()

	require.NoError(t, sink.DenyAndRemove(ctx, "u2", "g1", "Alt account detected"))
	require.NoError(t, sink.NotifyModerators(ctx, models.AltAlert{
		GroupID:          "g1",
		NewSubjectID:     "u2",
		MatchedSubjectID: "u1",
		MatchType:        models.MatchAddress,
		MatchedAddress:   "203.0.113.45",
	}))
	require.NoError(t, sink.DeliverVerificationLink(ctx, "u3", "g1", "https://example.test/verify?token=t", time.Now()))

	out := buf.String()
	assert.Contains(t, out, `"reason":"Alt account detected"`)
	assert.Contains(t, out, `"matched_subject_id":"u1"`)
	assert.NotContains(t, out, "203.0.113.45")
	assert.Contains(t, out, "verify?token=t")
}
