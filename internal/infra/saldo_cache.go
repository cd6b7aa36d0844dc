package infra

import (
	"context"
	"encoding/json"
	"time"

	"sinai/internal/dto"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SaldoCache serves caja balance reads from Redis with a short TTL.
// Balance displays are stale-tolerant snapshots; every write path
// invalidates the key so staleness is bounded by the TTL.
// A nil *SaldoCache (unit tests) is a no-op on every method.
type SaldoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSaldoCache(rdb *redis.Client, ttl time.Duration) *SaldoCache {
	return &SaldoCache{rdb: rdb, ttl: ttl}
}

func saldoKey(cajaID uuid.UUID) string { return "caja:saldo:" + cajaID.String() }

func (c *SaldoCache) Get(ctx context.Context, cajaID uuid.UUID) (*dto.SaldoResponse, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, saldoKey(cajaID)).Bytes()
	if err != nil {
		return nil, false
	}
	var resp dto.SaldoResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *SaldoCache) Set(ctx context.Context, cajaID uuid.UUID, resp *dto.SaldoResponse) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, saldoKey(cajaID), data, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("caja_id", cajaID.String()).Msg("saldo cache: set failed")
	}
}

func (c *SaldoCache) Invalidate(ctx context.Context, cajaID uuid.UUID) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, saldoKey(cajaID)).Err(); err != nil {
		log.Debug().Err(err).Str("caja_id", cajaID.String()).Msg("saldo cache: invalidate failed")
	}
}
