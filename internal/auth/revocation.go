package auth

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/simp-lee/newsdesk/internal/domain"
)

// Revoker remembers signed-out token ids until the tokens expire.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevoker keeps revocations in process memory. Entries live for the
// token lifetime, so a revoked id is remembered at least until its token
// expires.
type MemoryRevoker struct {
	ids *expirable.LRU[string, struct{}]
}

// NewMemoryRevoker tracks up to size revocations for ttl each.
func NewMemoryRevoker(size int, ttl time.Duration) *MemoryRevoker {
	return &MemoryRevoker{ids: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

// Revoke implements Revoker.
func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	m.ids.Add(tokenID, struct{}{})
	return nil
}

// IsRevoked implements Revoker.
func (m *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return m.ids.Contains(tokenID), nil
}

const revokedKeyPrefix = "newsdesk:revoked:"

// RedisRevoker shares revocations between server instances.
type RedisRevoker struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisRevoker stores revocations in client.
func NewRedisRevoker(client redis.UniversalClient) *RedisRevoker {
	return &RedisRevoker{client: client, now: time.Now}
}

// Revoke implements Revoker. Already expired tokens need no entry.
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return domain.NewAppError(domain.CodeInternal, "failed to revoke session", err)
	}
	return nil
}

// IsRevoked implements Revoker.
func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, domain.NewAppError(domain.CodeInternal, "failed to check session", err)
	}
	return n > 0, nil
}
