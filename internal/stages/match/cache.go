// internal/stages/match/cache.go
package match

import (
	"sync"

	"intent-resolver/internal/common/config"
	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/common/metrics"
	"intent-resolver/internal/lexicon"
)

// Cache holds one constructed Matcher per (domain, lexicon fingerprint)
// key. Construction happens at most once per key under double-checked
// locking: a second concurrent caller for the same key blocks briefly
// instead of duplicating the build. A cached matcher is read-only and
// shared without further locking.
type Cache struct {
	cfg    config.MatcherConfig
	logger logger.Logger

	mu       sync.RWMutex
	matchers map[string]*Matcher
}

func NewCache(cfg config.MatcherConfig, log logger.Logger) *Cache {
	return &Cache{
		cfg:      cfg,
		logger:   log,
		matchers: make(map[string]*Matcher),
	}
}

func cacheKey(domain, fingerprint string) string {
	return domain + "/" + fingerprint
}

// Get returns the matcher for lex, building it on first use.
func (c *Cache) Get(lex *lexicon.Lexicon) *Matcher {
	key := cacheKey(lex.Domain, lex.Fingerprint)

	c.mu.RLock()
	m, ok := c.matchers[key]
	c.mu.RUnlock()
	if ok {
		metrics.MatcherCacheBuilds.WithLabelValues(lex.Domain, "hit").Inc()
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check under the write lock: a racing caller may have built it.
	if m, ok := c.matchers[key]; ok {
		metrics.MatcherCacheBuilds.WithLabelValues(lex.Domain, "hit").Inc()
		return m
	}

	// Old fingerprints accumulate across lexicon reloads; at capacity
	// one resident entry is evicted to make room.
	if max := c.cfg.MatcherCacheMax; max > 0 && len(c.matchers) >= max {
		for k := range c.matchers {
			delete(c.matchers, k)
			metrics.MatcherCacheBuilds.WithLabelValues(lex.Domain, "evict").Inc()
			break
		}
	}

	m = New(lex.Domain, lex, c.cfg, c.logger)
	c.matchers[key] = m
	metrics.MatcherCacheBuilds.WithLabelValues(lex.Domain, "miss").Inc()

	c.logger.Info("Matcher constructed", map[string]interface{}{
		"domain":      lex.Domain,
		"fingerprint": lex.Fingerprint[:min(12, len(lex.Fingerprint))],
		"terms":       len(m.vocabulary),
	})
	return m
}

// Size returns the number of cached matchers.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.matchers)
}
