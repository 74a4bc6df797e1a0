package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altguard/internal/platform/config"
)

func TestNew(t *testing.T) {
	t.Run("empty url disables redis", func(t *testing.T) {
		c, err := New(context.Background(), config.RedisConfig{})
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("malformed url is rejected before dialing", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{URL: "http://not-redis"})
		assert.ErrorContains(t, err, "parse redis URL")
	})
}
