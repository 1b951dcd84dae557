package monitor

import (
	"context"
	"sync"
	"time"
)

// Poller runs a task on a fixed interval until stopped. The next tick is
// only taken after the previous task returned, so runs never overlap.
type Poller struct {
	interval time.Duration
	task     func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a stopped poller.
func NewPoller(interval time.Duration, task func(ctx context.Context)) *Poller {
	return &Poller{interval: interval, task: task}
}

// Start begins ticking. It returns false if the poller is already running.
func (p *Poller) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.interval, p.done)
	return true
}

// Stop cancels the poller. A tick that has fired but not yet started its
// task is skipped. Stop is idempotent and does not wait for a running task.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
}

// Running reports whether the poller has been started and not stopped.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Done is closed once the loop goroutine of the latest Start has exited.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.done
}

func (p *Poller) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			// Both cases may be ready at once; never run after cancellation.
			if ctx.Err() != nil {
				return
			}
			p.task(ctx)
		}
	}
}
