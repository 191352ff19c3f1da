package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/audioflow-service/internal/repository"
)

const (
	contentKeyPrefix = "audioflow:content:"
	latestPointerKey = "audioflow:content:latest"
)

// ContentCacheRepoImpl provides a concrete implementation for the
// ContentCacheRepository interface using Redis.
type ContentCacheRepoImpl struct {
	client *redis.Client
}

// NewContentCacheRepo creates a new instance of ContentCacheRepoImpl.
func NewContentCacheRepo(client *redis.Client) *ContentCacheRepoImpl {
	return &ContentCacheRepoImpl{client: client}
}

func (r *ContentCacheRepoImpl) contentKey(key string) string {
	return fmt.Sprintf("%s%s", contentKeyPrefix, key)
}

// Set stores content under a key with an expiry.
func (r *ContentCacheRepoImpl) Set(ctx context.Context, key, content string, expiry time.Duration) error {
	return r.client.SetEx(ctx, r.contentKey(key), content, expiry).Err()
}

// Get returns the cached content for a key, or repository.ErrCacheMiss.
func (r *ContentCacheRepoImpl) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.contentKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

// SetLatest points the latest marker at a key.
func (r *ContentCacheRepoImpl) SetLatest(ctx context.Context, key string) error {
	return r.client.Set(ctx, latestPointerKey, key, 0).Err()
}

// GetLatest resolves the latest pointer and returns its content.
func (r *ContentCacheRepoImpl) GetLatest(ctx context.Context) (string, error) {
	key, err := r.client.Get(ctx, latestPointerKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrCacheMiss
		}
		return "", err
	}
	return r.Get(ctx, key)
}
