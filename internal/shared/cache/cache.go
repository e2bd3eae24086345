package cache

import (
	"context"
	"time"
)

// Cache stores short-lived string values. A miss is (""/false, nil), never an error.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// TranscriptKey is the cache key for a YouTube transcript.
func TranscriptKey(videoID string) string {
	return "youtube:transcript:" + videoID
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool, error)        { return "", false, nil }
func (Nop) Set(context.Context, string, string, time.Duration) error { return nil }
