package csr

import (
	"context"
	"sync"
)

// IRQLine is a level-sensitive, sticky-bit interrupt line. Firmware
// interrupt handlers never execute FSM bodies directly (base spec
// §5); they only post to the line, which a task-context Wait call
// observes. This generalizes sysfs.Pin's epoll-driven WaitForEdge
// (periph-host/sysfs/gpio.go) from a GPIO edge to a named MCU IRQ.
type IRQLine struct {
	mu      sync.Mutex
	enabled bool
	pending chan struct{}
}

// NewIRQLine returns a disabled IRQLine.
func NewIRQLine() *IRQLine {
	return &IRQLine{pending: make(chan struct{}, 1)}
}

// Enable unmasks the line. Matches enable_irq().
func (l *IRQLine) Enable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = true
}

// Disable masks the line. Matches disable_irq(). Post calls made
// while the line is disabled are dropped (see Post); a posting that
// was already pending before Disable is still observed by Wait.
func (l *IRQLine) Disable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = false
}

// Enabled reports whether the line is currently unmasked.
func (l *IRQLine) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Post is called from interrupt context to signal the line fired. It
// is a no-op if the line is masked, matching hardware interrupt
// masking semantics (a masked IRQ never reaches the core).
func (l *IRQLine) Post() {
	l.mu.Lock()
	enabled := l.enabled
	l.mu.Unlock()
	if !enabled {
		return
	}
	select {
	case l.pending <- struct{}{}:
	default:
	}
}

// Clear drops any pending, not-yet-observed posting (mirrors the
// firmware writing to the sticky IRQ clear CFG register).
func (l *IRQLine) Clear() {
	select {
	case <-l.pending:
	default:
	}
}

// Wait blocks until Post fires the line or ctx is cancelled.
func (l *IRQLine) Wait(ctx context.Context) error {
	select {
	case <-l.pending:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
