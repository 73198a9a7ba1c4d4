package quota

import (
	"context"
	"errors"
	"strconv"
	"time"

	"NewsScreener/pkg/cache"
	applogger "NewsScreener/pkg/logger"
)

const keyPrefix = "news_quota"

// Tracker enforces the daily news API request budget. The counter lives in
// the cache service so multiple instances sharing a Redis backend share one
// budget; the key rolls over at midnight UTC like the upstream quota does.
type Tracker struct {
	cache cache.Service
	limit int
	now   func() time.Time
	l     *applogger.Logger
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(l *applogger.Logger) Option {
	return func(t *Tracker) { t.l = l }
}

// New creates a quota tracker with the given daily limit.
func New(c cache.Service, dailyLimit int, opts ...Option) *Tracker {
	t := &Tracker{
		cache: c,
		limit: dailyLimit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Allow consumes one unit of today's budget. It reports false once the limit
// is reached; the counter keeps incrementing past the limit so Remaining
// stays zero instead of wrapping.
func (t *Tracker) Allow(ctx context.Context) (bool, error) {
	key := t.key()
	n, err := t.cache.Increment(ctx, key)
	if err != nil {
		return false, err
	}
	if n == 1 {
		// First request of the day: expire the counter at the rollover.
		if _, err := t.cache.Expire(ctx, key, t.untilRollover()); err != nil && t.l != nil {
			t.l.Warn("quota expire failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	if n > int64(t.limit) {
		if t.l != nil && n == int64(t.limit)+1 {
			t.l.Warn("daily news quota exhausted", applogger.Int("limit", t.limit))
		}
		return false, nil
	}
	return true, nil
}

// Remaining reports how much of today's budget is left.
func (t *Tracker) Remaining(ctx context.Context) (int, error) {
	used, err := t.used(ctx)
	if err != nil {
		return 0, err
	}
	left := t.limit - used
	if left < 0 {
		left = 0
	}
	return left, nil
}

func (t *Tracker) used(ctx context.Context) (int, error) {
	var v interface{}
	err := t.cache.Get(ctx, t.key(), &v)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, nil
	}
}

func (t *Tracker) key() string {
	return cache.GenerateKey(keyPrefix, t.now().UTC().Format("20060102"))
}

func (t *Tracker) untilRollover() time.Duration {
	now := t.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return midnight.Sub(now)
}
