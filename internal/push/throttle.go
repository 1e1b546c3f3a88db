package push

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"golang.org/x/time/rate"
)

// ThrottledProvider caps the process-wide send rate of another Provider
type ThrottledProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// NewThrottledProvider wraps next with a token bucket of perSecond sends and burst.
// A non-positive perSecond returns next unchanged.
func NewThrottledProvider(next Provider, perSecond float64, burst int) Provider {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &ThrottledProvider{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Send waits for a token, bounded by ctx, then delegates
func (p *ThrottledProvider) Send(ctx context.Context, token string, payload models.PushPayload) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("push throttled: %w", err)
	}
	return p.next.Send(ctx, token, payload)
}
