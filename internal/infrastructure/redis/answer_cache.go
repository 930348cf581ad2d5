package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

const answerKeyPrefix = "answers:"

// AnswerCache stores finished answers under the query fingerprint with a
// TTL enforced by the store itself, so entries can never be served stale.
type AnswerCache struct {
	client     *goredis.Client
	defaultTTL time.Duration
}

func NewAnswerCache(client *goredis.Client, defaultTTL time.Duration) *AnswerCache {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	return &AnswerCache{client: client, defaultTTL: defaultTTL}
}

func (c *AnswerCache) Get(ctx context.Context, fingerprint string) (*domain.Answer, bool, error) {
	raw, err := c.client.Get(ctx, answerKeyPrefix+fingerprint).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var answer domain.Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, false, fmt.Errorf("decode cached answer: %w", err)
	}
	return &answer, true, nil
}

func (c *AnswerCache) Set(ctx context.Context, fingerprint string, answer *domain.Answer, ttl time.Duration) error {
	if answer == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	payload, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	if err := c.client.Set(ctx, answerKeyPrefix+fingerprint, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Clear drops every cached answer. Scans instead of FLUSHDB so the rate
// limiter counters sharing the store survive.
func (c *AnswerCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, answerKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	return nil
}
