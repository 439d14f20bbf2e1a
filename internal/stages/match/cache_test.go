package match

import (
	"sync"
	"testing"

	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/lexicon"
	"intent-resolver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheBuildsOncePerKey(t *testing.T) {
	lex, err := lexicon.Build("service", "fp-1", []lexicon.Entry{
		{Canonical: "haircut", Types: []models.EntityType{models.EntityService}},
	})
	require.NoError(t, err)

	cache := NewCache(testMatcherConfig(), logger.NewNoOpLogger())

	const callers = 64
	results := make(chan *Matcher, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- cache.Get(lex)
		}()
	}
	wg.Wait()
	close(results)

	first := <-results
	require.NotNil(t, first)
	for m := range results {
		assert.Same(t, first, m, "concurrent callers must share one matcher instance")
	}
	assert.Equal(t, 1, cache.Size())
}

func TestCacheEvictsAtCapacity(t *testing.T) {
	entries := []lexicon.Entry{
		{Canonical: "haircut", Types: []models.EntityType{models.EntityService}},
	}
	cfg := testMatcherConfig()
	cfg.MatcherCacheMax = 2
	cache := NewCache(cfg, logger.NewNoOpLogger())

	for _, fp := range []string{"fp-1", "fp-2", "fp-3"} {
		lex, err := lexicon.Build("service", fp, entries)
		require.NoError(t, err)
		cache.Get(lex)
	}

	assert.Equal(t, 2, cache.Size(), "stale fingerprints are evicted at capacity")

	latest, err := lexicon.Build("service", "fp-3", entries)
	require.NoError(t, err)
	m := cache.Get(latest)
	assert.NotNil(t, m)
	assert.Equal(t, 2, cache.Size())
}

func TestCacheKeyedByFingerprint(t *testing.T) {
	entries := []lexicon.Entry{
		{Canonical: "haircut", Types: []models.EntityType{models.EntityService}},
	}
	lexV1, err := lexicon.Build("service", "fp-1", entries)
	require.NoError(t, err)
	lexV2, err := lexicon.Build("service", "fp-2", entries)
	require.NoError(t, err)

	cache := NewCache(testMatcherConfig(), logger.NewNoOpLogger())

	m1 := cache.Get(lexV1)
	m2 := cache.Get(lexV2)

	assert.NotSame(t, m1, m2, "a new lexicon identity gets a fresh matcher")
	assert.Equal(t, 2, cache.Size())
	assert.Same(t, m1, cache.Get(lexV1))
}
