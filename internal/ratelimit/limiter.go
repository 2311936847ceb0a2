package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sushihentaime/inkpost/internal/common"
)

const (
	DefaultLimit  = 100
	DefaultWindow = 900 * time.Second
)

var rejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkpost_rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter, by endpoint.",
	},
	[]string{"endpoint"},
)

// Limiter allows a fixed number of requests per client and endpoint in a window
// anchored at the first request.
type Limiter struct {
	c      common.Cache
	limit  int64
	window time.Duration
}

func New(c common.Cache, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}

	return &Limiter{c: c, limit: int64(limit), window: window}
}

// Allow counts the request and reports whether it is within the limit.
//
// The count is a single atomic increment, so requests over the limit still bump the
// counter. A separate read before the increment would let concurrent requests pass the
// same check. Past the limit the counter only grows and the window ttl is never
// extended, so every further request in the window is denied exactly as it would be
// with the counter left untouched.
func (l *Limiter) Allow(ctx context.Context, ip, endpoint string) (bool, error) {
	n, err := l.c.Increment(ctx, common.CacheKeyRateLimit(ip, endpoint), l.window)
	if err != nil {
		return false, err
	}

	if n > l.limit {
		rejected.WithLabelValues(endpoint).Inc()
		return false, nil
	}

	return true, nil
}

func (l *Limiter) Limit() int {
	return int(l.limit)
}

func (l *Limiter) Window() time.Duration {
	return l.window
}
