package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultStreamKey = "frontdesk.analytics"

type RedisStreamConfig struct {
	Addr      string `envconfig:"ADDR" split_words:"true" default:"localhost:6379"`
	Password  string `envconfig:"PASSWORD" split_words:"true"`
	DB        int    `envconfig:"DB" split_words:"true" default:"0"`
	StreamKey string `envconfig:"STREAM_KEY" split_words:"true"`
	MaxLen    int64  `envconfig:"MAX_LEN" split_words:"true" default:"100000"`
}

// RedisStreamBackend appends events to a Redis Stream for downstream pattern
// analysis consumers.
type RedisStreamBackend struct {
	rdb       *redis.Client
	streamKey string
	maxLen    int64
}

var _ Backend = (*RedisStreamBackend)(nil)

func NewRedisStreamBackend(cfg RedisStreamConfig) (*RedisStreamBackend, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}

	streamKey := strings.TrimSpace(cfg.StreamKey)
	if streamKey == "" {
		streamKey = defaultStreamKey
	}

	return &RedisStreamBackend{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		streamKey: streamKey,
		maxLen:    cfg.MaxLen,
	}, nil
}

func (b *RedisStreamBackend) Close() error {
	return b.rdb.Close()
}

func (b *RedisStreamBackend) Deliver(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("marshal analytics event: %w", err)
	}

	err = b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: b.streamKey,
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]any{
			"id":   ev.Meta.ID,
			"kind": string(ev.Meta.Kind),
			"at":   ev.Meta.At.Format("2006-01-02T15:04:05.000Z07:00"),
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd analytics event: %w", err)
	}
	return nil
}
