package timer

import (
	"sync/atomic"
	"time"
)

// tickHandle is one acquired periodic ticker. The owner must Release it; a
// released handle stops delivering ticks.
type tickHandle struct {
	ticker   *time.Ticker
	live     *atomic.Int32
	released bool
}

// acquireTicker starts a ticker and counts it in live until released.
func acquireTicker(interval time.Duration, live *atomic.Int32) *tickHandle {
	live.Add(1)
	return &tickHandle{
		ticker: time.NewTicker(interval),
		live:   live,
	}
}

// C returns the tick channel, or nil for a nil handle so a select on it blocks.
func (h *tickHandle) C() <-chan time.Time {
	if h == nil {
		return nil
	}
	return h.ticker.C
}

// Release stops the ticker. Releasing twice, or releasing nil, is a no-op.
func (h *tickHandle) Release() {
	if h == nil || h.released {
		return
	}
	h.ticker.Stop()
	h.released = true
	h.live.Add(-1)
}
