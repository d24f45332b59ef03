package syncer

import (
	"context"
	"sync"
	"time"
)

// Poller is the handle of a running polling loop.
type Poller struct {
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Interval returns the polling cadence.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Stop cancels the loop. It is idempotent and safe to call from any
// goroutine, including from inside a fetch. A fetch already in flight is
// allowed to finish but nothing is scheduled after it.
func (p *Poller) Stop() {
	p.once.Do(func() {
		close(p.stop)
	})
}

// Done is closed once the loop has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) stopped() bool {
	select {
	case <-p.stop:
		return true
	default:
		return false
	}
}

// StartPolling fetches immediately and then every interval until the poller
// is stopped or ctx is done. The immediate fetch is skipped when the store
// was synced less than one interval ago, as right after Authenticate. If a loop is already running its handle is
// returned and no second timer is started.
func (e *Engine) StartPolling(ctx context.Context, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.poller != nil && !e.poller.stopped() {
		e.logger.Debugf("Polling already active every %v", e.poller.interval)
		return e.poller
	}

	p := &Poller{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	e.poller = p
	e.logger.Infof("Polling backend every %v", interval)

	go e.poll(ctx, p)
	return p
}

// StopPolling stops the active loop, if any. It is idempotent.
func (e *Engine) StopPolling() {
	e.mu.Lock()
	p := e.poller
	e.poller = nil
	e.mu.Unlock()

	if p != nil {
		p.Stop()
	}
}

// poll runs the loop for p.
func (e *Engine) poll(ctx context.Context, p *Poller) {
	defer close(p.done)
	defer e.release(p)

	if e.syncedWithin(p.interval) {
		e.logger.Debug("Snapshot is fresh, first poll waits a full interval")
	} else {
		e.tick(ctx, p)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// the ticker and stop may be ready together
			if p.stopped() {
				return
			}
			e.tick(ctx, p)
		}
	}
}

// tick runs one scheduled fetch for p, skipping it if a cycle is still
// running. Stop is rechecked once the cycle is claimed, so after Stop
// returns only a fetch that already held the cycle can still complete.
func (e *Engine) tick(ctx context.Context, p *Poller) {
	if !e.cycle.TryLock() {
		e.logger.Debug("Previous sync still in flight, skipping poll")
		return
	}
	defer e.cycle.Unlock()

	if p.stopped() {
		return
	}
	// fetchLocked logs and classifies failures; the next tick retries.
	_ = e.fetchLocked(ctx)
}

// release clears p as the active poller once its loop exits.
func (e *Engine) release(p *Poller) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.poller == p {
		e.poller = nil
	}
}
