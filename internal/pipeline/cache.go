package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sibyllinesoft/valknut/internal/types"
)

// Cache sizing/expiry, matching the teacher's metrics cache defaults
// (internal/cache/metrics_cache.go) scaled down to one content-addressed
// tier: parsed EntityTrees are larger objects than a single metric.
const (
	defaultMaxParseEntries = 2000
	defaultParseCacheTTL   = 2 * time.Hour
)

// cachedParse is one content-addressed cache line: a parsed EntityTree
// plus the bookkeeping the teacher's CachedMetrics carries (timestamp for
// TTL/eviction, access count for diagnostics).
type cachedParse struct {
	Tree        *types.EntityTree
	Unparseable bool
	CachedAt    int64 // unix nano, atomic
	AccessCount int64 // atomic
}

// ParseCache is a lock-free, content-addressed cache of per-file parse
// results, adapted from the teacher's MetricsCache: sync.Map storage,
// atomic hit/miss/eviction counters, TTL expiry, and size-bounded lazy
// eviction of the oldest entry rather than a full LRU list. Keyed on
// sha256(content) + language + adapter version so a language-profile
// upgrade invalidates old entries without an explicit cache-clear step.
type ParseCache struct {
	entries sync.Map // map[string]*cachedParse

	maxEntries int
	ttlNanos   int64

	hits      int64
	misses    int64
	evictions int64
	count     int64
}

// NewParseCache builds a cache with the teacher's default sizing. A
// maxEntries of 0 falls back to defaultMaxParseEntries.
func NewParseCache(maxEntries int, ttl time.Duration) *ParseCache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxParseEntries
	}
	if ttl <= 0 {
		ttl = defaultParseCacheTTL
	}
	return &ParseCache{maxEntries: maxEntries, ttlNanos: ttl.Nanoseconds()}
}

func parseCacheKey(content []byte, language string, adapterVersion int) string {
	hash := sha256.Sum256(content)
	var b strings.Builder
	b.Grow(len(language) + 32 + 8)
	b.WriteString(language)
	b.WriteByte(':')
	b.WriteString(hex.EncodeToString(hash[:16]))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(adapterVersion))
	return b.String()
}

// Get returns a previously cached parse result for content (tree,
// unparseable flag, true), or (nil, false, false) on a miss or expired
// entry.
func (c *ParseCache) Get(content []byte, language string, adapterVersion int) (*types.EntityTree, bool, bool) {
	key := parseCacheKey(content, language, adapterVersion)
	val, ok := c.entries.Load(key)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false, false
	}
	cached := val.(*cachedParse)
	if time.Now().UnixNano()-atomic.LoadInt64(&cached.CachedAt) > c.ttlNanos {
		c.entries.Delete(key)
		atomic.AddInt64(&c.misses, 1)
		return nil, false, false
	}
	atomic.AddInt64(&cached.AccessCount, 1)
	atomic.AddInt64(&c.hits, 1)
	return cached.Tree, cached.Unparseable, true
}

// Put stores a parse result, evicting the oldest entry if this insert
// would exceed maxEntries.
func (c *ParseCache) Put(content []byte, language string, adapterVersion int, tree *types.EntityTree, unparseable bool) {
	key := parseCacheKey(content, language, adapterVersion)
	entry := &cachedParse{Tree: tree, Unparseable: unparseable, CachedAt: time.Now().UnixNano(), AccessCount: 1}
	if _, loaded := c.entries.LoadOrStore(key, entry); !loaded {
		if atomic.AddInt64(&c.count, 1) > int64(c.maxEntries) {
			c.evictOldest()
		}
	}
}

func (c *ParseCache) evictOldest() {
	var oldestKey interface{}
	oldestTime := time.Now().UnixNano()
	c.entries.Range(func(key, value interface{}) bool {
		cached := value.(*cachedParse)
		if at := atomic.LoadInt64(&cached.CachedAt); at < oldestTime {
			oldestTime = at
			oldestKey = key
		}
		return true
	})
	if oldestKey != nil {
		c.entries.Delete(oldestKey)
		atomic.AddInt64(&c.count, -1)
		atomic.AddInt64(&c.evictions, 1)
	}
}

// Stats reports cache hit/miss/eviction counters for the run summary and
// the `valknut_cache_*` metrics.
type CacheStats struct {
	Hits, Misses, Evictions int64
}

func (c *ParseCache) Stats() CacheStats {
	return CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}
