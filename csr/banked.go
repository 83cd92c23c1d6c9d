package csr

import "sync"

// MSR is the one-bit mode-set-register banking selector. Invariant
// (base spec §3): at any instant exactly one MSR is current; prep
// always targets the inactive one.
type MSR uint8

const (
	MSR0 MSR = 0
	MSR1 MSR = 1
)

// Other returns the complementary bank.
func (m MSR) Other() MSR {
	return m ^ 1
}

// Banked models a register group (or any per-frequency shadow state)
// that the PHY keeps in two copies, selected by MSR. It generalizes
// the ~2,000 lines of duplicated MSR arithmetic in the original
// firmware into one generic type (base spec Design Notes).
type Banked[T any] struct {
	mu      sync.Mutex
	current MSR
	bank    [2]T
}

// NewBanked constructs a Banked with MSR0 initially current.
func NewBanked[T any](msr0, msr1 T) *Banked[T] {
	return &Banked[T]{bank: [2]T{msr0, msr1}}
}

// MSR returns the bank currently driving hardware.
func (b *Banked[T]) MSR() MSR {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Current returns the bank currently driving hardware.
func (b *Banked[T]) Current() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bank[b.current]
}

// Other returns the inactive (staged) bank.
func (b *Banked[T]) Other() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bank[b.current.Other()]
}

// Swap flips which bank is current. Called when the hardware
// atomically swaps the shadow copies on a frequency switch fire.
func (b *Banked[T]) Swap() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.current.Other()
}

// Set replaces the contents of bank msr.
func (b *Banked[T]) Set(msr MSR, value T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bank[msr] = value
}

// With scopes fn to operate against bank msr: the selector is
// temporarily overridden for the duration of fn and restored on every
// exit path (including panic), matching the with_msr contract of base
// spec §4.1.
func (b *Banked[T]) With(msr MSR, fn func(current T)) {
	b.mu.Lock()
	saved := b.current
	b.current = msr
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.current = saved
		b.mu.Unlock()
	}()

	fn(b.bank[msr])
}

// NewBankedRegion returns a Banked[*Region] built from a single base Region
// plus the fixed MSR stride, matching "For a logical register R at
// offset o, MSR-1 lives at o + stride_R" (base spec §4.1).
func NewBankedRegion(base *Region, stride Addr) *Banked[*Region] {
	return NewBanked(base, base.Rebased(stride))
}
