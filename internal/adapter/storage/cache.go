package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/binhetc/pos-ai/internal/core/checkout"
	"github.com/binhetc/pos-ai/internal/core/domain"
	"github.com/binhetc/pos-ai/internal/core/reconcile"
)

const DefaultCacheTTL = 5 * time.Minute

// PaymentBackend is everything the payment services need from storage.
type PaymentBackend interface {
	checkout.Repository
	reconcile.Store
}

type PaymentCache interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Payment, bool)
	Set(ctx context.Context, p *domain.Payment)
	Invalidate(ctx context.Context, id uuid.UUID)
}

func paymentKey(id uuid.UUID) string {
	return fmt.Sprintf("payments:%s", id)
}

// RedisPaymentCache keeps single payment reads in redis. Redis errors are
// treated as misses so an unavailable cache never fails a request.
type RedisPaymentCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisPaymentCache(rdb redis.Cmdable, ttl time.Duration) *RedisPaymentCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisPaymentCache{rdb: rdb, ttl: ttl}
}

// ConnectRedis parses a redis:// URL and checks the server answers.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return rdb, nil
}

func (c *RedisPaymentCache) Get(ctx context.Context, id uuid.UUID) (*domain.Payment, bool) {
	cached, err := c.rdb.Get(ctx, paymentKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("Payment cache read failed", "payment_id", id, "error", err)
		}
		return nil, false
	}
	var p domain.Payment
	if err := json.Unmarshal(cached, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *RedisPaymentCache) Set(ctx context.Context, p *domain.Payment) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, paymentKey(p.ID), b, c.ttl).Err(); err != nil {
		slog.Debug("Payment cache write failed", "payment_id", p.ID, "error", err)
	}
}

func (c *RedisPaymentCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.rdb.Del(ctx, paymentKey(id)).Err(); err != nil {
		slog.Warn("Payment cache invalidation failed", "payment_id", id, "error", err)
	}
}

// CachedPayments reads finalized payments through the cache and drops the
// cached copy whenever the row changes. Payments that can still be finalized
// are always read from the backend.
type CachedPayments struct {
	PaymentBackend
	cache PaymentCache
}

func NewCachedPayments(backend PaymentBackend, cache PaymentCache) *CachedPayments {
	return &CachedPayments{PaymentBackend: backend, cache: cache}
}

func (c *CachedPayments) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	if p, ok := c.cache.Get(ctx, id); ok {
		return p, nil
	}
	p, err := c.PaymentBackend.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status.IsTerminal() {
		c.cache.Set(ctx, p)
	}
	return p, nil
}

func (c *CachedPayments) UpdatePayment(ctx context.Context, id uuid.UUID, patch domain.PaymentPatch) (*domain.Payment, error) {
	p, err := c.PaymentBackend.UpdatePayment(ctx, id, patch)
	c.cache.Invalidate(ctx, id)
	return p, err
}

func (c *CachedPayments) Finalize(ctx context.Context, f domain.Finalization) (domain.FinalizeResult, error) {
	res, err := c.PaymentBackend.Finalize(ctx, f)
	c.cache.Invalidate(ctx, f.PaymentID)
	return res, err
}
