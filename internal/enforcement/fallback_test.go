package enforcement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"altguard/internal/verification/ports/mocks"
	"altguard/pkg/platform/circuit"
)

func TestFallbackSink(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	brokerDown := errors.New("broker unavailable")

	t.Run("primary success never touches fallback", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		primary, fallback := mocks.NewMockSink(ctrl), mocks.NewMockSink(ctrl)
		primary.EXPECT().GrantVerifiedState(ctx, "u1", "g1").Return(nil)

		sink := NewFallbackSink(primary, fallback, circuit.New("enforcement"), logger)
		assert.NoError(t, sink.GrantVerifiedState(ctx, "u1", "g1"))
	})

	t.Run("failures below threshold are returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		primary, fallback := mocks.NewMockSink(ctrl), mocks.NewMockSink(ctrl)
		primary.EXPECT().NotifySubject(ctx, "u1", "hi").Return(brokerDown)

		sink := NewFallbackSink(primary, fallback, circuit.New("enforcement", circuit.WithFailureThreshold(2)), logger)
		assert.ErrorIs(t, sink.NotifySubject(ctx, "u1", "hi"), brokerDown)
	})

	t.Run("open circuit diverts to fallback and recovers", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		primary, fallback := mocks.NewMockSink(ctrl), mocks.NewMockSink(ctrl)
		breaker := circuit.New("enforcement", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1))
		sink := NewFallbackSink(primary, fallback, breaker, logger)

		gomock.InOrder(
			primary.EXPECT().DenyAndRemove(ctx, "u2", "g1", "Alt account detected").Return(brokerDown),
			fallback.EXPECT().DenyAndRemove(ctx, "u2", "g1", "Alt account detected").Return(nil),
			primary.EXPECT().DenyAndRemove(ctx, "u3", "g1", "Alt account detected").Return(nil),
		)

		require.NoError(t, sink.DenyAndRemove(ctx, "u2", "g1", "Alt account detected"))
		assert.True(t, breaker.IsOpen())

		require.NoError(t, sink.DenyAndRemove(ctx, "u3", "g1", "Alt account detected"))
		assert.False(t, breaker.IsOpen())
	})
}
