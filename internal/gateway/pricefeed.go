package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Quote is a spot gold price observation.
type Quote struct {
	PriceMicros int64     `json:"price_micros"`
	ObservedAt  time.Time `json:"observed_at"`
}

// PriceFeed supplies the spot price used to resolve expired questions.
type PriceFeed interface {
	SpotPrice(ctx context.Context) (Quote, error)
}

const priceCacheKey = "pricefeed:gold:spot"

// CachedPriceFeed fronts an upstream feed with a short Redis TTL so a
// settlement burst doesn't hammer the provider. Cache failures fall
// through to the upstream.
type CachedPriceFeed struct {
	upstream PriceFeed
	rdb      *redis.Client
	ttl      time.Duration
}

func NewCachedPriceFeed(upstream PriceFeed, rdb *redis.Client, ttl time.Duration) *CachedPriceFeed {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &CachedPriceFeed{upstream: upstream, rdb: rdb, ttl: ttl}
}

func (f *CachedPriceFeed) SpotPrice(ctx context.Context) (Quote, error) {
	if f.rdb != nil {
		raw, err := f.rdb.Get(ctx, priceCacheKey).Bytes()
		if err == nil {
			var q Quote
			if err := json.Unmarshal(raw, &q); err == nil {
				return q, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			zap.L().Warn("price cache read failed", zap.Error(err))
		}
	}

	quote, err := f.upstream.SpotPrice(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch spot price: %w", err)
	}

	if f.rdb != nil {
		if raw, err := json.Marshal(quote); err == nil {
			if err := f.rdb.Set(ctx, priceCacheKey, raw, f.ttl).Err(); err != nil {
				zap.L().Warn("price cache write failed", zap.Error(err))
			}
		}
	}
	return quote, nil
}

// SimulatedPriceFeed random-walks around a base price. It stands in for
// a market data provider in development and tests.
type SimulatedPriceFeed struct {
	mu          sync.Mutex
	priceMicros int64
	rng         *rand.Rand
}

func NewSimulatedPriceFeed(basePriceMicros int64) *SimulatedPriceFeed {
	return &SimulatedPriceFeed{
		priceMicros: basePriceMicros,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (f *SimulatedPriceFeed) SpotPrice(_ context.Context) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// drift up to +-0.5% per observation
	driftBps := f.rng.Int63n(101) - 50
	drift := decimal.New(f.priceMicros, 0).Mul(decimal.New(driftBps, -4))
	f.priceMicros += drift.IntPart()

	return Quote{PriceMicros: f.priceMicros, ObservedAt: time.Now()}, nil
}

// FixedPriceFeed always returns the same quote.
type FixedPriceFeed struct {
	PriceMicros int64
}

func (f FixedPriceFeed) SpotPrice(_ context.Context) (Quote, error) {
	return Quote{PriceMicros: f.PriceMicros, ObservedAt: time.Now()}, nil
}
