// Package cache implements C8, the answer cache: a Redis fast tier backed
// by the durable cached_answers table in Postgres. A fingerprint is derived
// from the normalised question, the agent id, and the agent's schema
// snapshot version, so a schema change invalidates every fingerprint that
// depended on the old shape without an explicit sweep.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/models"
)

// Entry is the cached payload for one (agent, fingerprint) pair.
type Entry struct {
	Answer  string `json:"answer"`
	SQLUsed string `json:"sql_used,omitempty"`
}

// Cache is the two-tier answer cache: Redis for hot hits, Postgres for
// durability across Redis evictions and restarts.
type Cache struct {
	redis *redis.Client
	db    *database.DB
	ttl   time.Duration
}

func New(redisClient *redis.Client, db *database.DB, ttl time.Duration) *Cache {
	return &Cache{redis: redisClient, db: db, ttl: ttl}
}

// Fingerprint derives the cache key for a question against an agent,
// folding in the agent's schema snapshot version so a schema change
// invalidates stale entries implicitly — no separate sweep needed.
func Fingerprint(agentID uuid.UUID, question string, schemaVersion string) string {
	normalized := normalizeQuestion(question)
	combined := agentID.String() + "|" + normalized + "|" + schemaVersion
	hash := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hash[:])[:32]
}

func normalizeQuestion(question string) string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	normalized = strings.TrimRight(normalized, "?!.,;:")
	return strings.Join(strings.Fields(normalized), " ")
}

func redisKey(agentID uuid.UUID, fingerprint string) string {
	return fmt.Sprintf("answer:%s:%s", agentID, fingerprint)
}

// Get checks Redis first, then falls back to the durable Postgres tier,
// repopulating Redis on a durable hit so the next lookup is fast again.
func (c *Cache) Get(ctx context.Context, agentID uuid.UUID, fingerprint string) (*Entry, bool, error) {
	key := redisKey(agentID, fingerprint)

	val, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var entry Entry
		if unmarshalErr := json.Unmarshal([]byte(val), &entry); unmarshalErr == nil {
			return &entry, true, nil
		}
	} else if err != redis.Nil {
		return nil, false, errors.Wrap(err, errors.ErrCacheError)
	}

	cached, dbErr := c.db.GetCachedAnswer(ctx, agentID, fingerprint)
	if dbErr != nil {
		if appErr, ok := errors.IsAppError(dbErr); ok && appErr.Code == errors.ErrResourceNotFound {
			return nil, false, nil
		}
		return nil, false, dbErr
	}

	entry := &Entry{Answer: cached.Answer, SQLUsed: cached.SQLUsed}
	c.repopulateRedis(ctx, key, entry)
	return entry, true, nil
}

func (c *Cache) repopulateRedis(ctx context.Context, key string, entry *Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	// Best-effort: a Redis repopulation failure does not fail the cache hit.
	c.redis.Set(ctx, key, data, c.ttl)
}

// Put writes through to both tiers.
func (c *Cache) Put(ctx context.Context, agentID uuid.UUID, fingerprint string, entry *Entry) error {
	if err := c.db.PutCachedAnswer(ctx, &models.CachedAnswer{
		AgentID:     agentID,
		Fingerprint: fingerprint,
		Answer:      entry.Answer,
		SQLUsed:     entry.SQLUsed,
	}); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, errors.ErrCacheError)
	}
	if err := c.redis.Set(ctx, redisKey(agentID, fingerprint), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCacheError)
	}
	return nil
}

// InvalidateAgent drops an agent's durable cache entries. Redis entries are
// left to expire on TTL — an agent rarely has enough distinct fingerprints
// live in Redis at once to justify a SCAN-based purge.
func (c *Cache) InvalidateAgent(ctx context.Context, agentID uuid.UUID) error {
	return c.db.InvalidateAgentCache(ctx, agentID)
}
