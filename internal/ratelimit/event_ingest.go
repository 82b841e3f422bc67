package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/maiscriancaoficial/affiliates/internal/config"
)

const (
	keyEventIngestAffiliate = "events:ingest:affiliate:%s"
	keyEventIngestEndpoint  = "events:ingest:endpoint"
	keyPayoutDispatchLock   = "payouts:dispatch:lock"
)

// EventIngestLimiter throttles the webhook endpoint: one shared bucket for
// the endpoint as a whole and one bucket per affiliate code so a noisy
// storefront cannot starve the rest.
type EventIngestLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	affiliateRate  float64
	affiliateBurst int
	endpointRate   float64
	endpointBurst  int
	lockTTL        time.Duration
}

func NewEventIngestLimiter(cfg config.Config) (*EventIngestLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.AffiliateRate <= 0 || limitCfg.AffiliateBurst <= 0 {
		return nil, errors.New("affiliate rate limit must be positive")
	}
	if limitCfg.EndpointRate <= 0 || limitCfg.EndpointBurst <= 0 {
		return nil, errors.New("endpoint rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &EventIngestLimiter{
		enabled:        true,
		bucket:         NewTokenBucket(client),
		locker:         NewLocker(client),
		affiliateRate:  limitCfg.AffiliateRate,
		affiliateBurst: limitCfg.AffiliateBurst,
		endpointRate:   limitCfg.EndpointRate,
		endpointBurst:  limitCfg.EndpointBurst,
		lockTTL:        limitCfg.LockTTL,
	}, nil
}

func (l *EventIngestLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *EventIngestLimiter) AllowAffiliate(ctx context.Context, key string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx,
		fmt.Sprintf(keyEventIngestAffiliate, strings.TrimSpace(key)),
		l.affiliateRate, l.affiliateBurst)
}

func (l *EventIngestLimiter) AllowEndpoint(ctx context.Context) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, keyEventIngestEndpoint, l.endpointRate, l.endpointBurst)
}

// TryLockPayoutDispatch fences the payout dispatch job so only one
// replica pushes a given batch window.
func (l *EventIngestLimiter) TryLockPayoutDispatch(ctx context.Context) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, keyPayoutDispatchLock, l.lockTTL)
}

func (l *EventIngestLimiter) ReleasePayoutDispatch(ctx context.Context, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, keyPayoutDispatchLock, token)
}
