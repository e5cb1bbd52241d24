package discovery

import (
	"context"
	"math/rand/v2"
	"time"
)

// DelayPolicy decides how long to pause between automation steps
type DelayPolicy interface {
	NextDelay() time.Duration
}

// RandomDelay picks a uniformly random delay in [Min, Max)
type RandomDelay struct {
	Min time.Duration
	Max time.Duration
}

// NextDelay implements DelayPolicy
func (d RandomDelay) NextDelay() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rand.N(d.Max-d.Min)
}

// FixedDelay always waits the same amount
type FixedDelay time.Duration

// NextDelay implements DelayPolicy
func (d FixedDelay) NextDelay() time.Duration {
	return time.Duration(d)
}

// NoDelay never waits
type NoDelay struct{}

// NextDelay implements DelayPolicy
func (NoDelay) NextDelay() time.Duration {
	return 0
}

// pause sleeps for the next delay of p or until ctx is done
func pause(ctx context.Context, p DelayPolicy) error {
	d := p.NextDelay()
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
