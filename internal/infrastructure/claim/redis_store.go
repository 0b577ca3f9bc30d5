package claim

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"NewsScanner/internal/ports"
)

const keyPrefix = "newsscanner:claim:"

// RedisStore marks content ids as in flight so concurrent workers and
// overlapping runs do not summarize the same article twice.
type RedisStore struct {
	client redis.UniversalClient
	token  string
}

var _ ports.ClaimStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. token identifies this process in
// the stored value.
func NewRedisStore(client redis.UniversalClient, token string) *RedisStore {
	return &RedisStore{client: client, token: token}
}

// Claim sets the key only if absent. false means another holder owns it.
func (s *RedisStore) Claim(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+id, s.token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", id, err)
	}
	return ok, nil
}

// Release drops the claim if this process still holds it.
func (s *RedisStore) Release(ctx context.Context, id string) error {
	if err := releaseScript.Run(ctx, s.client, []string{keyPrefix + id}, s.token).Err(); err != nil {
		return fmt.Errorf("release %s: %w", id, err)
	}
	return nil
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)
