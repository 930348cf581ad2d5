package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

const rateLimitKeyPrefix = "ratelimit:"

// Policy is the fixed-window budget for one operation.
type Policy struct {
	Limit  int
	Window time.Duration
}

func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		domain.OpSearch:   {Limit: 60, Window: time.Minute},
		domain.OpGenerate: {Limit: 5, Window: time.Minute},
		domain.OpStream:   {Limit: 3, Window: time.Minute},
		domain.OpBatch:    {Limit: 2, Window: time.Minute},
	}
}

// Counter increment and window-start expiry happen in one Lua script so
// concurrent checks for the same user never lose updates.
var checkScript = goredis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// RateLimiter is a fixed-window per-(user, operation) limiter backed by
// the shared key-value store, so limits hold across API instances.
type RateLimiter struct {
	client   *goredis.Client
	policies map[string]Policy
	fallback Policy
}

func NewRateLimiter(client *goredis.Client, policies map[string]Policy) *RateLimiter {
	merged := DefaultPolicies()
	for operation, policy := range policies {
		if policy.Limit > 0 && policy.Window > 0 {
			merged[operation] = policy
		}
	}
	return &RateLimiter{
		client:   client,
		policies: merged,
		fallback: Policy{Limit: 60, Window: time.Minute},
	}
}

func (l *RateLimiter) Check(ctx context.Context, userID, operation string) (domain.RateLimitDecision, error) {
	policy := l.policy(operation)
	key := rateLimitKey(userID, operation)

	raw, err := checkScript.Run(ctx, l.client, []string{key}, policy.Window.Milliseconds()).Slice()
	if err != nil {
		return domain.RateLimitDecision{}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(raw) != 2 {
		return domain.RateLimitDecision{}, fmt.Errorf("rate limit check: unexpected script reply %v", raw)
	}

	count := toInt64(raw[0])
	ttlMS := toInt64(raw[1])
	if ttlMS < 0 {
		ttlMS = policy.Window.Milliseconds()
	}

	info := buildInfo(int(count), ttlMS, policy)
	return domain.RateLimitDecision{
		Allowed: count <= int64(policy.Limit),
		Info:    info,
	}, nil
}

// Inspect reads current state without consuming a slot.
func (l *RateLimiter) Inspect(ctx context.Context, userID, operation string) (domain.RateLimitInfo, error) {
	policy := l.policy(operation)
	key := rateLimitKey(userID, operation)

	count, err := l.client.Get(ctx, key).Int()
	if errors.Is(err, goredis.Nil) {
		return buildInfo(0, policy.Window.Milliseconds(), policy), nil
	}
	if err != nil {
		return domain.RateLimitInfo{}, fmt.Errorf("rate limit inspect: %w", err)
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return domain.RateLimitInfo{}, fmt.Errorf("rate limit inspect ttl: %w", err)
	}
	ttlMS := ttl.Milliseconds()
	if ttlMS < 0 {
		ttlMS = policy.Window.Milliseconds()
	}
	return buildInfo(count, ttlMS, policy), nil
}

func (l *RateLimiter) Reset(ctx context.Context, userID, operation string) error {
	if err := l.client.Del(ctx, rateLimitKey(userID, operation)).Err(); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}
	return nil
}

func (l *RateLimiter) Operations() []string {
	out := make([]string, 0, len(l.policies))
	for operation := range l.policies {
		out = append(out, operation)
	}
	return out
}

func (l *RateLimiter) policy(operation string) Policy {
	if policy, ok := l.policies[operation]; ok {
		return policy
	}
	return l.fallback
}

func buildInfo(count int, ttlMS int64, policy Policy) domain.RateLimitInfo {
	remaining := policy.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateLimitInfo{
		CurrentCount:  count,
		Remaining:     remaining,
		ResetTime:     time.Now().Add(time.Duration(ttlMS) * time.Millisecond).Unix(),
		Limit:         policy.Limit,
		WindowSeconds: int(policy.Window.Seconds()),
	}
}

func rateLimitKey(userID, operation string) string {
	return fmt.Sprintf("%s%s:%s", rateLimitKeyPrefix, userID, operation)
}

func toInt64(v any) int64 {
	switch typed := v.(type) {
	case int64:
		return typed
	case int:
		return int64(typed)
	default:
		return 0
	}
}
