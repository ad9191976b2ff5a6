package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pool hands out tabs of one browser, at most size at a time
type Pool struct {
	browser *Browser
	slots   chan struct{}
}

// NewPool creates a pool of size tabs on b
func NewPool(b *Browser, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		browser: b,
		slots:   make(chan struct{}, size),
	}
}

// Acquire waits for a free slot and opens a fresh tab. The returned release
// function resets and closes the tab and frees the slot.
func (p *Pool) Acquire(ctx context.Context) (context.Context, func(), error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("timeout getting browser tab from pool: %w", ctx.Err())
	}

	tab, cancel := NewTab(p.browser.Context())
	release := func() {
		resetCtx, resetCancel := context.WithTimeout(tab, 3*time.Second)
		if err := Reset(resetCtx); err != nil {
			slog.Debug("failed to reset tab", "err", err)
		}
		resetCancel()
		cancel()
		<-p.slots
	}
	return tab, release, nil
}

// InUse is the number of tabs currently handed out
func (p *Pool) InUse() int {
	return len(p.slots)
}

// Size is the maximum number of tabs
func (p *Pool) Size() int {
	return cap(p.slots)
}
