package rates

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/enums"
	"github.com/stakeline/stakeline-backend/pkg/logger"
)

const defaultCacheTTL = 30 * time.Second

// rateStore is the redis surface the cache needs. Satisfied by
// pkg/redis.Client.
type rateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedSource decorates a Source with a short-lived Redis cache so that the
// hot ledger path does not hit the upstream feed on every operation.
type CachedSource struct {
	next  Source
	store rateStore
	ttl   time.Duration
	logg  *logger.Logger
}

func NewCachedSource(next Source, store rateStore, ttl time.Duration, logg *logger.Logger) (*CachedSource, error) {
	if next == nil {
		return nil, errors.New("rate source required")
	}
	if store == nil {
		return nil, errors.New("rate cache store required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedSource{next: next, store: store, ttl: ttl, logg: logg}, nil
}

func (c *CachedSource) Rate(ctx context.Context, asset enums.Asset) (decimal.Decimal, error) {
	key := "sl:rate:" + string(asset)

	cached, err := c.store.Get(ctx, key)
	if err == nil {
		if rate, parseErr := decimal.NewFromString(cached); parseErr == nil {
			return rate, nil
		}
	} else if !errors.Is(err, goredis.Nil) && c.logg != nil {
		c.logg.Warn(ctx, "rate cache read failed, falling through")
	}

	rate, err := c.next.Rate(ctx, asset)
	if err != nil {
		return decimal.Zero, err
	}

	if setErr := c.store.Set(ctx, key, rate.String(), c.ttl); setErr != nil && c.logg != nil {
		c.logg.Warn(ctx, "rate cache write failed")
	}
	return rate, nil
}
