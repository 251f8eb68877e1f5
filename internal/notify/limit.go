package notify

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limited spaces deliveries to a sink. Alarms sharing a minute arrive in a
// burst, so a small burst is allowed before callers wait.
type Limited struct {
	sink    Sink
	limiter *rate.Limiter
}

func NewLimited(sink Sink, interval time.Duration, burst int) *Limited {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limited{sink: sink, limiter: rate.NewLimiter(limit, burst)}
}

func (l *Limited) Name() string { return l.sink.Name() }

func (l *Limited) Notify(ctx context.Context, n Notification) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	return l.sink.Notify(ctx, n)
}
