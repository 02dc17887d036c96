package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
	"github.com/stakeline/stakeline-backend/pkg/logger"
	"github.com/stakeline/stakeline-backend/pkg/metrics"
)

const (
	defaultTTL          = 10 * time.Second
	defaultRetryCount   = 10
	defaultRetryBackoff = 100 * time.Millisecond
	maxRetryBackoff     = 2 * time.Second

	// holdWarnFraction of the TTL; beyond it mutual exclusion is at risk.
	holdWarnFraction = 0.8
)

// Store defines the redis operations the lock manager needs. Satisfied by
// pkg/redis.Client.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Class selects the TTL for an operation family. Multi-step bodies get
// progressively larger TTLs.
type Class string

const (
	ClassSingle Class = "single"
	ClassBatch  Class = "batch"
	ClassVault  Class = "vault"
	ClassTip    Class = "tip"
	ClassSwitch Class = "switch"
)

// Config carries per-class TTLs and the acquisition retry policy.
type Config struct {
	SingleTTL    time.Duration
	BatchTTL     time.Duration
	VaultTTL     time.Duration
	TipTTL       time.Duration
	SwitchTTL    time.Duration
	RetryCount   int
	RetryBackoff time.Duration
}

// Manager hands out named, TTL-bounded mutual exclusion backed by a store
// shared across server instances.
type Manager struct {
	store   Store
	cfg     Config
	metrics *metrics.LockMetrics
	logg    *logger.Logger
}

// NewManager constructs a lock manager.
func NewManager(store Store, cfg Config, m *metrics.LockMetrics, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, errors.New("lock store required")
	}
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = defaultRetryCount
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	return &Manager{store: store, cfg: cfg, metrics: m, logg: logg}, nil
}

func (m *Manager) ttlFor(class Class) time.Duration {
	var ttl time.Duration
	switch class {
	case ClassSingle:
		ttl = m.cfg.SingleTTL
	case ClassBatch:
		ttl = m.cfg.BatchTTL
	case ClassVault:
		ttl = m.cfg.VaultTTL
	case ClassTip:
		ttl = m.cfg.TipTTL
	case ClassSwitch:
		ttl = m.cfg.SwitchTTL
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return ttl
}

// WithLock runs body only while holding the named lock and releases it
// unconditionally before returning. When acquisition fails after the retry
// policy is exhausted it returns a LOCK_BUSY error that callers surface as
// "system busy, retry shortly" rather than an internal failure.
func (m *Manager) WithLock(ctx context.Context, resource string, class Class, body func(ctx context.Context) error) error {
	if resource == "" {
		return errors.New("lock resource is required")
	}
	ttl := m.ttlFor(class)

	owner, acquireLatency, err := m.acquire(ctx, resource, class, ttl)
	if err != nil {
		return err
	}
	m.metrics.ObserveAcquireLatency(string(class), acquireLatency)

	start := time.Now()
	defer func() {
		held := time.Since(start)
		m.metrics.ObserveHoldDuration(string(class), held)
		if held > time.Duration(float64(ttl)*holdWarnFraction) && m.logg != nil {
			warnCtx := m.logg.WithFields(ctx, map[string]any{
				"resource": resource,
				"held_ms":  held.Milliseconds(),
				"ttl_ms":   ttl.Milliseconds(),
			})
			m.logg.Warn(warnCtx, "lock held close to ttl, mutual exclusion at risk")
		}
		m.release(ctx, resource, owner)
	}()

	return body(ctx)
}

// acquire retries SETNX with doubling backoff until the policy is exhausted.
func (m *Manager) acquire(ctx context.Context, resource string, class Class, ttl time.Duration) (string, time.Duration, error) {
	owner := uuid.NewString()
	start := time.Now()
	backoff := m.cfg.RetryBackoff

	for attempt := 0; attempt < m.cfg.RetryCount; attempt++ {
		ok, err := m.store.SetNX(ctx, resource, owner, ttl)
		if err != nil {
			return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock store unavailable")
		}
		if ok {
			return owner, time.Since(start), nil
		}

		select {
		case <-ctx.Done():
			return "", 0, pkgerrors.Wrap(pkgerrors.CodeLockBusy, ctx.Err(), "lock wait canceled")
		case <-time.After(backoff):
		}
		if backoff < maxRetryBackoff {
			backoff *= 2
			if backoff > maxRetryBackoff {
				backoff = maxRetryBackoff
			}
		}
	}

	m.metrics.IncBusy(string(class))
	return "", 0, pkgerrors.New(pkgerrors.CodeLockBusy, fmt.Sprintf("could not acquire lock %s", resource))
}

// release frees the lock only if the owner value still matches; a lock lost
// to TTL expiry and re-acquired elsewhere must not be deleted from here.
func (m *Manager) release(ctx context.Context, resource, owner string) {
	value, err := m.store.Get(ctx, resource)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return
		}
		if m.logg != nil {
			m.logg.Error(ctx, "reading lock owner for release", err)
		}
		return
	}
	if value != owner {
		return
	}
	if err := m.store.Del(ctx, resource); err != nil && m.logg != nil {
		m.logg.Error(ctx, "releasing lock", err)
	}
}
