package driver

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// PerDevice hands out one token-bucket limiter per device hostname, bounding
// the command rate an adapter may impose on any single device. Limiters are
// created lazily and shared by all sessions to the same device.
type PerDevice struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	perSecond float64
	burst     int
}

// NewPerDevice creates a limiter set allowing perSecond commands with the
// given burst per device.
func NewPerDevice(perSecond float64, burst int) *PerDevice {
	return &PerDevice{
		limiters:  make(map[string]*rate.Limiter),
		perSecond: perSecond,
		burst:     burst,
	}
}

// Wait blocks until the device's limiter grants a token or ctx is done.
func (p *PerDevice) Wait(ctx context.Context, device string) error {
	return p.limiter(device).Wait(ctx)
}

func (p *PerDevice) limiter(device string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	lim, ok := p.limiters[device]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(p.perSecond), p.burst)
		p.limiters[device] = lim
	}
	return lim
}
