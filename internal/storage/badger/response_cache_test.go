package badger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ResponseCache, *time.Time) {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)
	cache := NewResponseCache(db, logger, ttl)
	cache.now = func() time.Time { return clock }
	return cache, &clock
}

func TestResponseCache_PutGet(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	key := "https://api.jolpi.ca/ergast/f1/current.json"

	entry, err := cache.Get(key)
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, cache.Put(key, 200, "application/json", []byte(`{"MRData":{}}`)))

	entry, err = cache.Get(key)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 200, entry.Status)
	assert.Equal(t, "application/json", entry.ContentType)
	assert.Equal(t, `{"MRData":{}}`, string(entry.Body))
}

func TestResponseCache_Expiry(t *testing.T) {
	cache, clock := newTestCache(t, time.Hour)
	key := "https://api.jolpi.ca/ergast/f1/current.json"
	require.NoError(t, cache.Put(key, 200, "application/json", []byte(`{}`)))

	*clock = clock.Add(59 * time.Minute)
	entry, err := cache.Get(key)
	require.NoError(t, err)
	assert.NotNil(t, entry)

	*clock = clock.Add(time.Minute)
	entry, err = cache.Get(key)
	require.NoError(t, err)
	assert.Nil(t, entry, "entry expires exactly at TTL")

	count, err := cache.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count, "expired entry removed on read")
}

func TestResponseCache_Prune(t *testing.T) {
	cache, clock := newTestCache(t, time.Hour)
	require.NoError(t, cache.Put("old", 200, "application/json", []byte(`1`)))

	*clock = clock.Add(2 * time.Hour)
	require.NoError(t, cache.Put("fresh", 200, "application/json", []byte(`2`)))
	require.NoError(t, cache.Prune())

	count, err := cache.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	entry, err := cache.Get("fresh")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}
