package common

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache is the key-value store placed in front of the database. Values are opaque
// serialized snapshots; every operation is atomic per key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Increment creates the counter at 1 with the given ttl when it does not exist,
	// otherwise it adds one and keeps the remaining ttl.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// AddToSet adds member to the set stored at key and extends the set's ttl.
	AddToSet(ctx context.Context, key, member string, ttl time.Duration) error
	// PopSet returns all members of the set stored at key and removes the set.
	PopSet(ctx context.Context, key string) ([]string, error)
	Close() error
}

// MemoryCache is the in-process Cache backend.
type MemoryCache struct {
	c *cache.Cache

	// mu serialises the read-modify-write of set values.
	mu sync.Mutex
}

func NewMemoryCache(expirationTime, cleanupTime time.Duration) *MemoryCache {
	return &MemoryCache{c: cache.New(expirationTime, cleanupTime)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}

	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("cache: key %q does not hold a byte value", key)
	}

	return b, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	m.c.Set(key, value, ttl)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.c.Delete(key)
	}
	return nil
}

func (m *MemoryCache) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	for {
		if err := m.c.Add(key, int64(1), ttl); err == nil {
			return 1, nil
		}

		n, err := m.c.IncrementInt64(key, 1)
		if err == nil {
			return n, nil
		}

		// the counter expired between Add and IncrementInt64, start a new window
		if _, found := m.c.Get(key); found {
			return 0, fmt.Errorf("cache: increment %q: %w", key, err)
		}
	}
}

func (m *MemoryCache) AddToSet(_ context.Context, key, member string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := make(map[string]struct{})
	if v, ok := m.c.Get(key); ok {
		existing, ok := v.(map[string]struct{})
		if !ok {
			return fmt.Errorf("cache: key %q does not hold a set", key)
		}
		members = existing
	}

	members[member] = struct{}{}
	m.c.Set(key, members, ttl)

	return nil
}

func (m *MemoryCache) PopSet(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.c.Get(key)
	if !ok {
		return nil, nil
	}
	m.c.Delete(key)

	members, ok := v.(map[string]struct{})
	if !ok {
		return nil, fmt.Errorf("cache: key %q does not hold a set", key)
	}

	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys, nil
}

func (m *MemoryCache) Flush() {
	m.c.Flush()
}

func (m *MemoryCache) Close() error {
	return nil
}

const (
	// CacheKeyBlogsIndex holds the set of every list-page key currently cached.
	CacheKeyBlogsIndex = "blogs_list"
	// CacheKeyBlogsGeneration changes on every post write.
	CacheKeyBlogsGeneration = "blogs_generation"
)

func CacheKeyBlog(id uuid.UUID) string {
	return "post_" + id.String()
}

// CacheKeyBlogs expects tags already trimmed, sorted and de-duplicated.
func CacheKeyBlogs(page, limit int, tags []string) string {
	filter := "none"
	if len(tags) > 0 {
		escaped := make([]string, len(tags))
		for i, tag := range tags {
			escaped[i] = url.QueryEscape(tag)
		}
		filter = strings.Join(escaped, ",")
	}

	return "blogs_page" + strconv.Itoa(page) + "_limit" + strconv.Itoa(limit) + "_tags" + filter
}

func CacheKeyRateLimit(ip, endpoint string) string {
	return "ratelimit_" + ip + "_" + endpoint
}
