package pricing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "pricing:snapshot"

type cachedSnapshot struct {
	Prices map[string]float64 `json:"prices"`
	AsOf   time.Time          `json:"as_of"`
}

// CachedOracle serves snapshots from redis, falling back to the wrapped
// oracle on a miss or a cache failure. A cache read error is not fatal;
// the origin answer still flows through.
type CachedOracle struct {
	inner Oracle
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedOracle(inner Oracle, rdb *redis.Client, ttl time.Duration) *CachedOracle {
	return &CachedOracle{inner: inner, rdb: rdb, ttl: ttl}
}

func (o *CachedOracle) Snapshot(ctx context.Context) (Snapshot, error) {
	if raw, err := o.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var cs cachedSnapshot
		if json.Unmarshal(raw, &cs) == nil && len(cs.Prices) > 0 {
			return NewSnapshot(cs.Prices, cs.AsOf), nil
		}
	}

	snap, err := o.inner.Snapshot(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	payload, err := json.Marshal(cachedSnapshot{Prices: snap.Prices(), AsOf: snap.AsOf()})
	if err == nil {
		// best effort; the snapshot is already in hand
		_ = o.rdb.Set(ctx, cacheKey, payload, o.ttl).Err()
	}
	return snap, nil
}
