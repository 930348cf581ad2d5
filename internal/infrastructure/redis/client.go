package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Open connects the shared key-value store used by the answer cache and
// the rate limiter.
func Open(ctx context.Context, options Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         options.Addr,
		Password:     options.Password,
		DB:           options.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Prober adapts a redis client to ports.HealthProber.
type Prober struct {
	client *goredis.Client
}

func NewProber(client *goredis.Client) *Prober {
	return &Prober{client: client}
}

func (p *Prober) Probe(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis probe: %w", err)
	}
	return nil
}
