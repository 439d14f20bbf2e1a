// internal/lexicon/store.go
package lexicon

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intent-resolver/internal/common/database"
	stderrors "intent-resolver/internal/common/errors"
	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// AliasSource fetches tenant alias maps (phrase -> canonical) from the
// authoritative store.
type AliasSource interface {
	FetchAliases(ctx context.Context, tenantID string) (map[string]string, error)
}

// PostgresAliasSource reads tenant aliases from the tenant_aliases table.
type PostgresAliasSource struct {
	db *database.PostgresClient
}

func NewPostgresAliasSource(db *database.PostgresClient) *PostgresAliasSource {
	return &PostgresAliasSource{db: db}
}

const aliasQuery = `
	SELECT phrase, canonical
	FROM tenant_aliases
	WHERE tenant_id = $1 AND active = true`

func (s *PostgresAliasSource) FetchAliases(ctx context.Context, tenantID string) (map[string]string, error) {
	rows, err := s.db.Query(ctx, aliasQuery, tenantID)
	if err != nil {
		return nil, stderrors.NewAliasQueryFailedError(tenantID, err)
	}
	defer rows.Close()

	aliases := make(map[string]string)
	for rows.Next() {
		var phrase, canonical string
		if err := rows.Scan(&phrase, &canonical); err != nil {
			return nil, stderrors.NewAliasQueryFailedError(tenantID, err)
		}
		aliases[phrase] = canonical
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewAliasQueryFailedError(tenantID, err)
	}
	return aliases, nil
}

// CachedAliasStore is a read-through Redis cache over an AliasSource.
// An expired key blocks the requesting call on a fresh fetch; there is
// no stale-while-revalidate and no background refresh.
type CachedAliasStore struct {
	source AliasSource
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedAliasStore(source AliasSource, rc *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedAliasStore {
	return &CachedAliasStore{
		source: source,
		redis:  rc,
		ttl:    ttl,
		logger: log,
	}
}

func aliasCacheKey(tenantID string) string {
	return fmt.Sprintf("aliases:%s", tenantID)
}

// Get returns the alias map for a tenant, consulting the cache first.
func (c *CachedAliasStore) Get(ctx context.Context, tenantID string) (map[string]string, error) {
	key := aliasCacheKey(tenantID)

	cached, err := c.redis.Get(ctx, key)
	if err == nil {
		var aliases map[string]string
		if uerr := json.Unmarshal([]byte(cached), &aliases); uerr == nil {
			metrics.AliasCacheHits.WithLabelValues("hit").Inc()
			return aliases, nil
		}
		// Corrupt cache entry: drop it and fall through to the source.
		_ = c.redis.Del(ctx, key)
	} else if err != redis.Nil {
		// Cache unavailable is not fatal, the source still answers.
		metrics.AliasCacheHits.WithLabelValues("error").Inc()
		c.logger.Warn("Alias cache read failed", map[string]interface{}{
			"tenantId": tenantID,
			"error":    err.Error(),
		})
	}

	metrics.AliasCacheHits.WithLabelValues("miss").Inc()

	aliases, err := c.source.FetchAliases(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if payload, merr := json.Marshal(aliases); merr == nil {
		if serr := c.redis.Set(ctx, key, payload, c.ttl); serr != nil {
			c.logger.Warn("Alias cache write failed", map[string]interface{}{
				"tenantId": tenantID,
				"error":    serr.Error(),
			})
		}
	}

	return aliases, nil
}

// Invalidate drops a tenant's cached aliases.
func (c *CachedAliasStore) Invalidate(ctx context.Context, tenantID string) error {
	if err := c.redis.Del(ctx, aliasCacheKey(tenantID)); err != nil {
		return stderrors.NewAliasCacheFailedError(err)
	}
	return nil
}
