package runtime

import (
	"context"

	"github.com/aretw0/cascade/pkg/domain"
	"golang.org/x/time/rate"
)

type limiterKey struct{}

// withLimiter attaches a generation rate limiter to ctx.
func withLimiter(ctx context.Context, l *rate.Limiter) context.Context {
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, limiterKey{}, l)
}

// waitLimiter blocks until the limiter carried by ctx, if any, admits one call.
func waitLimiter(ctx context.Context) error {
	l, ok := ctx.Value(limiterKey{}).(*rate.Limiter)
	if !ok {
		return ctx.Err()
	}
	return l.Wait(ctx)
}

func newLimiter(cfg domain.RateLimit) *rate.Limiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RPS), burst)
}
