package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/ports"
)

// RedisStore keeps seen URLs in a single Redis set.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ ports.SeenStore = (*RedisStore)(nil)

// NewRedisStore wires an existing client.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// OpenRedisStore parses a redis:// URL and checks connectivity.
func OpenRedisStore(ctx context.Context, rawURL, key string) (*RedisStore, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("redis store: empty url")
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, key), nil
}

// Load returns all members of the set.
func (s *RedisStore) Load(ctx context.Context) (domain.SeenSet, error) {
	members, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", s.key, err)
	}
	return domain.NewSeenSet(members...), nil
}

// Add inserts urls into the set in chunks.
func (s *RedisStore) Add(ctx context.Context, urls []string) error {
	urls = compact(urls)
	for start := 0; start < len(urls); start += insertChunk {
		end := min(start+insertChunk, len(urls))
		members := make([]any, 0, end-start)
		for _, u := range urls[start:end] {
			members = append(members, u)
		}
		if err := s.client.SAdd(ctx, s.key, members...).Err(); err != nil {
			return fmt.Errorf("sadd %s: %w", s.key, err)
		}
	}
	return nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
