package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/focused-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "reference:teachers", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "reference:teachers", []string{"a"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "reference:*"))
}

func TestCacheRepositoryUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewCacheRepository(client)

	var dest []string
	err := repo.Get(context.Background(), "reference:teachers", &dest)
	require.Error(t, err)
	assert.False(t, errors.Is(err, appErrors.ErrCacheMiss))

	assert.Error(t, repo.Set(context.Background(), "reference:teachers", []string{"a"}, time.Minute))
}
