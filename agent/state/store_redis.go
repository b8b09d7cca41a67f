package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "frontdesk:conv:"
	defaultIdleIndex = "frontdesk:conv:last_activity"
)

type RedisConfig struct {
	Addr      string `envconfig:"ADDR" split_words:"true" default:"localhost:6379"`
	Password  string `envconfig:"PASSWORD" split_words:"true"`
	DB        int    `envconfig:"DB" split_words:"true" default:"0"`
	KeyPrefix string `envconfig:"KEY_PREFIX" split_words:"true"`
	IdleIndex string `envconfig:"IDLE_INDEX" split_words:"true"`
}

// RedisStore persists conversations in Redis. Each conversation is a hash of
// {version, payload}; a server-side script performs the compare-and-swap so a
// single logical owner decides every version transition. A ZSET keyed by last
// activity serves the reaper; terminal conversations are removed from it but
// their history stays readable.
type RedisStore struct {
	rdb       *redis.Client
	keyPrefix string
	idleIndex string
}

var _ Store = (*RedisStore)(nil)

var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'version', 1, 'payload', ARGV[1])
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
return 1
`)

var casScript = redis.NewScript(`
local v = tonumber(redis.call('HGET', KEYS[1], 'version') or '-1')
if v == -1 then
	return -1
end
if v ~= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[2], 'payload', ARGV[3])
if ARGV[6] == '1' then
	redis.call('ZREM', KEYS[2], ARGV[5])
else
	redis.call('ZADD', KEYS[2], ARGV[4], ARGV[5])
end
return 1
`)

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}

	keyPrefix := strings.TrimSpace(cfg.KeyPrefix)
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	idleIndex := strings.TrimSpace(cfg.IdleIndex)
	if idleIndex == "" {
		idleIndex = defaultIdleIndex
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisStore{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		idleIndex: idleIndex,
	}, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) key(conversationID string) (string, error) {
	if strings.TrimSpace(conversationID) == "" {
		return "", ErrInvalidConversation
	}
	return s.keyPrefix + conversationID, nil
}

func (s *RedisStore) Get(ctx context.Context, conversationID string) (*Conversation, error) {
	key, err := s.key(conversationID)
	if err != nil {
		return nil, err
	}

	payload, err := s.rdb.HGet(ctx, key, "payload").Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal([]byte(payload), &conv); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	conv.EnsureContext()
	if err := conv.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversation loaded from store: %w", err)
	}
	return &conv, nil
}

func (s *RedisStore) Create(ctx context.Context, conversationID string, now time.Time) (*Conversation, error) {
	key, err := s.key(conversationID)
	if err != nil {
		return nil, err
	}

	conv := NewConversation(conversationID, now)
	conv.Version = 1

	payload, err := json.Marshal(conv)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}

	created, err := createScript.Run(ctx, s.rdb,
		[]string{key, s.idleIndex},
		payload, conv.LastActivityAt.UnixMilli(), conversationID,
	).Int()
	if err != nil {
		return nil, fmt.Errorf("redis create conversation: %w", err)
	}
	if created == 0 {
		return nil, ErrAlreadyExists
	}
	return conv, nil
}

func (s *RedisStore) CompareAndSwap(ctx context.Context, expectedVersion int64, conv *Conversation) error {
	if conv == nil {
		return ErrNilConversation
	}
	key, err := s.key(conv.ConversationID)
	if err != nil {
		return err
	}

	conv.Version = expectedVersion + 1
	payload, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}

	terminal := "0"
	if conv.IsTerminal() {
		terminal = "1"
	}

	swapped, err := casScript.Run(ctx, s.rdb,
		[]string{key, s.idleIndex},
		expectedVersion, conv.Version, payload,
		conv.LastActivityAt.UnixMilli(), conv.ConversationID, terminal,
	).Int()
	if err != nil {
		conv.Version = expectedVersion
		return fmt.Errorf("redis cas conversation: %w", err)
	}
	switch swapped {
	case -1:
		conv.Version = expectedVersion
		return ErrNotFound
	case 0:
		conv.Version = expectedVersion
		return ErrVersionConflict
	}
	return nil
}

func (s *RedisStore) ListIdle(ctx context.Context, before time.Time) ([]string, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, s.idleIndex, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(before.UnixMilli()-1, 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list idle conversations: %w", err)
	}
	return ids, nil
}
