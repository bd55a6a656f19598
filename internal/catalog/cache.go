package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/torontotech/meetups/internal/storage"
)

// DefaultTTL is the freshness window of a cache entry
const DefaultTTL = time.Hour

// entry is the on-disk shape of one cached query
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
}

// Cache keeps query results in a storage directory
type Cache struct {
	store *storage.Storage
	ttl   time.Duration
	now   func() time.Time
}

// NewCache creates a cache in dir with the given freshness window
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	s, err := storage.New(dir)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: s, ttl: ttl, now: time.Now}, nil
}

// Dir returns the directory holding the cached blobs
func (c *Cache) Dir() string {
	return c.store.Dir()
}

// TTL returns the freshness window
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) load(key string) (*entry, error) {
	var e entry
	found, err := c.store.Load(key, &e)
	if err != nil || !found {
		return nil, err
	}
	return &e, nil
}

// Get decodes the cached value for key into v regardless of its age.
// It reports false when nothing usable is cached.
func (c *Cache) Get(key string, v any) bool {
	e, err := c.load(key)
	if err != nil || e == nil {
		return false
	}
	return json.Unmarshal(e.Data, v) == nil
}

// IsFresh reports whether key was cached less than the TTL ago
func (c *Cache) IsFresh(key string) bool {
	e, err := c.load(key)
	if err != nil || e == nil {
		return false
	}
	return c.now().Sub(time.UnixMilli(e.Timestamp)) < c.ttl
}

// Set caches v under key, stamped with the current time
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	return c.store.Save(key, entry{Data: data, Timestamp: c.now().UnixMilli()})
}

// cached returns the fresh cached value for key, or calls fetch and caches
// its result. When fetch fails, a stale value is returned with stale=true;
// with nothing cached the fetch error is returned. A nil cache always fetches.
func cached[T any](c *Cache, key string, fetch func() (T, error)) (value T, stale bool, err error) {
	if c == nil {
		value, err = fetch()
		return value, false, err
	}

	var old T
	hasOld := c.Get(key, &old)
	if hasOld && c.IsFresh(key) {
		return old, false, nil
	}

	value, err = fetch()
	if err != nil {
		if hasOld {
			return old, true, nil
		}
		return value, false, err
	}

	// a failed write only costs the next read a refetch
	_ = c.Set(key, value)
	return value, false, nil
}
