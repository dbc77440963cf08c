package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jeeprep/jee-prep-api/internal/domain/repository"
	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
)

// RevocationStore remembers, per user, the time before which tokens are invalid.
type RevocationStore interface {
	Revoke(ctx context.Context, userID uint, at time.Time, ttl time.Duration) error
	RevokedAt(ctx context.Context, userID uint) (time.Time, bool, error)
}

// CacheRevocationStore keeps revocation markers in the cache. A marker lives
// as long as the longest token it can affect.
type CacheRevocationStore struct {
	cache repository.CacheRepository
}

func NewCacheRevocationStore(cache repository.CacheRepository) *CacheRevocationStore {
	return &CacheRevocationStore{cache: cache}
}

func revocationKey(userID uint) string {
	return fmt.Sprintf("revoked:%d", userID)
}

func (s *CacheRevocationStore) Revoke(ctx context.Context, userID uint, at time.Time, ttl time.Duration) error {
	return s.cache.Set(ctx, revocationKey(userID), at.Unix(), ttl)
}

func (s *CacheRevocationStore) RevokedAt(ctx context.Context, userID uint) (time.Time, bool, error) {
	raw, err := s.cache.Get(ctx, revocationKey(userID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt revocation marker for user #%d: %w", userID, err)
	}
	return time.Unix(unix, 0), true, nil
}
