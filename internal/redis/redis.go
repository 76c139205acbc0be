package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string, log logrus.FieldLogger) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := NewFromOptions(opt)

	if err := client.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.WithField("addr", opt.Addr).Info("Redis connected successfully")
	return client, nil
}

// NewFromOptions builds a client without checking connectivity.
func NewFromOptions(opt *redis.Options) *Client {
	return &Client{rdb: redis.NewClient(opt)}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) HMGet(ctx context.Context, key string, fields ...string) ([]interface{}, error) {
	return c.rdb.HMGet(ctx, key, fields...).Result()
}

// RunScript evaluates a Lua script, loading it on first use.
func (c *Client) RunScript(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) error {
	err := script.Run(ctx, c.rdb, keys, args...).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
