// Package cache provides a thread-safe in-memory score cache with TTL and
// LRU eviction. Rubric scoring is deterministic for a given text, so
// repeated turns carrying the same draft key results are served from here
// instead of re-running the pattern battery.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/okrd/internal/scoring"
)

const instrumentationName = "github.com/fyrsmithlabs/okrd/internal/cache"

type entry struct {
	score        scoring.KeyResultScore
	expiresAt    time.Time
	lastAccessed time.Time
}

// ScoreCache caches key result scores by a digest of the scored text.
type ScoreCache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	ttl        time.Duration
	maxEntries int

	hits   metric.Int64Counter
	misses metric.Int64Counter
}

// New creates a score cache. maxEntries must be positive; when the cache
// is full the least recently accessed entry is evicted.
func New(ttl time.Duration, maxEntries int) *ScoreCache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	meter := otel.GetMeterProvider().Meter(instrumentationName)
	hits, _ := meter.Int64Counter("okrd.score_cache.hits_total",
		metric.WithDescription("Score cache hits"))
	misses, _ := meter.Int64Counter("okrd.score_cache.misses_total",
		metric.WithDescription("Score cache misses"))
	return &ScoreCache{
		entries:    make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		hits:       hits,
		misses:     misses,
	}
}

// Key returns the cache key for a key result text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached score for a text, if present and unexpired.
func (c *ScoreCache) Get(text string) (scoring.KeyResultScore, bool) {
	key := Key(text)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.count(c.misses)
		return scoring.KeyResultScore{}, false
	}
	if now.After(e.expiresAt) {
		delete(c.entries, key)
		c.count(c.misses)
		return scoring.KeyResultScore{}, false
	}
	e.lastAccessed = now
	c.count(c.hits)
	return e.score, true
}

// Put stores a score. An existing entry for the same text is replaced.
func (c *ScoreCache) Put(text string, score scoring.KeyResultScore) {
	key := Key(text)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = &entry{
		score:        score,
		expiresAt:    now.Add(c.ttl),
		lastAccessed: now,
	}
}

// Len reports the number of live entries, expired or not.
func (c *ScoreCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *ScoreCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// evictLocked removes the least recently accessed entry. Caller holds the
// lock.
func (c *ScoreCache) evictLocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for key, e := range c.entries {
		if first || e.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccessed
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *ScoreCache) count(counter metric.Int64Counter) {
	if counter != nil {
		counter.Add(context.Background(), 1)
	}
}
