package repository

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("content not found in cache")

// ContentCacheRepository stores text content keyed by job ID, plus a "latest"
// pointer so a run can be replayed from the most recently submitted content.
// This is the seam where upstream text-generation output arrives.
type ContentCacheRepository interface {
	Set(ctx context.Context, key, content string, expiry time.Duration) error
	// Get returns the cached content, or ErrCacheMiss if the key is absent.
	Get(ctx context.Context, key string) (string, error)
	SetLatest(ctx context.Context, key string) error
	// GetLatest resolves the latest pointer and returns its content.
	GetLatest(ctx context.Context) (string, error)
}
