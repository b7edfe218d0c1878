package persistence

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenlet-escrow-ledger/internal/config"
)

func TestNewRedisClient(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		client, err := NewRedisClient(ctx, logger, &config.RedisConfig{
			URL:            "redis://" + mr.Addr(),
			IdempotencyTTL: time.Minute,
		})
		require.NoError(t, err)
		defer client.Close()

		assert.NoError(t, client.Ping(ctx).Err())
	})

	t.Run("InvalidURL", func(t *testing.T) {
		client, err := NewRedisClient(ctx, logger, &config.RedisConfig{URL: "not-a-url"})
		assert.Error(t, err)
		assert.Nil(t, client)
	})
}
