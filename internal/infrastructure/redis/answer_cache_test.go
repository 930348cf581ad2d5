package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

func setupRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func TestAnswerCacheRoundTrip(t *testing.T) {
	client, _ := setupRedis(t)
	cache := NewAnswerCache(client, 30*time.Minute)
	ctx := context.Background()

	answer := &domain.Answer{
		Query:      "What is machine learning?",
		Text:       "ML is...",
		Sources:    []domain.RetrievedDocument{{ID: "p1", Title: "Paper", Score: 0.95}},
		Confidence: 0.82,
		TokensUsed: 150,
		Model:      "llama3.1:8b",
	}
	require.NoError(t, cache.Set(ctx, "fp-1", answer, time.Minute))

	got, hit, err := cache.Get(ctx, "fp-1")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, answer.Text, got.Text)
	assert.Equal(t, answer.Sources, got.Sources)
	assert.Equal(t, answer.TokensUsed, got.TokensUsed)
}

func TestAnswerCacheMiss(t *testing.T) {
	client, _ := setupRedis(t)
	cache := NewAnswerCache(client, time.Minute)

	_, hit, err := cache.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestAnswerCacheExpiry(t *testing.T) {
	client, mr := setupRedis(t)
	cache := NewAnswerCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "fp-1", &domain.Answer{Text: "a"}, time.Second))

	mr.FastForward(2 * time.Second)

	_, hit, err := cache.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.False(t, hit, "expired entries must never be served")
}

func TestAnswerCacheClearKeepsForeignKeys(t *testing.T) {
	client, mr := setupRedis(t)
	cache := NewAnswerCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "fp-1", &domain.Answer{Text: "a"}, time.Minute))
	require.NoError(t, cache.Set(ctx, "fp-2", &domain.Answer{Text: "b"}, time.Minute))
	mr.Set("ratelimit:u1:rag", "3")

	require.NoError(t, cache.Clear(ctx))

	_, hit, err := cache.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.True(t, mr.Exists("ratelimit:u1:rag"), "clear must not touch rate limiter keys")
}
