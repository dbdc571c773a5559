package stream

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultRefreshRate is the display refresh rate in Hz used when none is
// configured
const DefaultRefreshRate = 60

// Pacer spaces out pipeline iterations
type Pacer interface {
	// Wait blocks until the next iteration may start or ctx is done
	Wait(ctx context.Context) error
	// Stop releases the pacer's resources
	Stop()
}

// RefreshPacer paces iterations to the ticks of a display refresh rate.  An
// iteration slower than one tick starts the next one on the following tick,
// missed ticks are not queued up.  The ticker starts on the first Wait so
// time spent before the run starts does not leave a tick waiting
type RefreshPacer struct {
	clock    clock.Clock
	interval time.Duration
	mu       sync.Mutex
	ticker   *clock.Ticker
}

// NewRefreshPacer returns a pacer ticking rate times a second on clk.  A rate
// that is not positive uses DefaultRefreshRate
func NewRefreshPacer(clk clock.Clock, rate float64) *RefreshPacer {

	if !(rate > 0) {
		rate = DefaultRefreshRate
	}

	return &RefreshPacer{
		clock:    clk,
		interval: time.Duration(float64(time.Second) / rate),
	}
}

// ticks returns the ticker channel, starting the ticker on first use
func (p *RefreshPacer) ticks() <-chan time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ticker == nil {
		p.ticker = p.clock.Ticker(p.interval)
	}

	return p.ticker.C
}

// Wait blocks until the next refresh tick
func (p *RefreshPacer) Wait(ctx context.Context) error {

	ticks := p.ticks()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ticks:
		return nil
	}
}

// Stop stops the underlying ticker
func (p *RefreshPacer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ticker != nil {
		p.ticker.Stop()
	}
}

// PacerFunc adapts a function to the Pacer interface
type PacerFunc func(ctx context.Context) error

// Wait calls f
func (f PacerFunc) Wait(ctx context.Context) error {
	return f(ctx)
}

// Stop does nothing
func (f PacerFunc) Stop() {}
