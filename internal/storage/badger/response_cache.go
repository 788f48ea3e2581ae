package badger

import (
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// CachedResponse is an upstream API response kept for replay.
type CachedResponse struct {
	Key         string `badgerhold:"key"`
	Status      int
	ContentType string
	Body        []byte
	StoredAt    time.Time
	ExpiresAt   time.Time
}

// ResponseCache stores upstream responses keyed by upstream URL with a fixed TTL.
type ResponseCache struct {
	db     *BadgerDB
	logger arbor.ILogger
	ttl    time.Duration
	now    func() time.Time
}

func NewResponseCache(db *BadgerDB, logger arbor.ILogger, ttl time.Duration) *ResponseCache {
	return &ResponseCache{db: db, logger: logger, ttl: ttl, now: time.Now}
}

// Get returns the cached response for key, or nil when absent or expired.
// Expired entries are removed on read.
func (c *ResponseCache) Get(key string) (*CachedResponse, error) {
	var entry CachedResponse
	err := c.db.Store().Get(key, &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if !c.now().Before(entry.ExpiresAt) {
		if err := c.db.Store().Delete(key, &CachedResponse{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete expired cache entry")
		}
		return nil, nil
	}
	return &entry, nil
}

// Put stores a response under key for the cache TTL.
func (c *ResponseCache) Put(key string, status int, contentType string, body []byte) error {
	now := c.now()
	entry := CachedResponse{
		Key:         key,
		Status:      status,
		ContentType: contentType,
		Body:        body,
		StoredAt:    now,
		ExpiresAt:   now.Add(c.ttl),
	}
	if err := c.db.Store().Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Prune deletes every expired entry.
func (c *ResponseCache) Prune() error {
	err := c.db.Store().DeleteMatching(&CachedResponse{}, badgerhold.Where("ExpiresAt").Le(c.now()))
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}
	return nil
}

// Count returns the number of stored entries, expired or not.
func (c *ResponseCache) Count() (uint64, error) {
	return c.db.Store().Count(&CachedResponse{}, nil)
}
