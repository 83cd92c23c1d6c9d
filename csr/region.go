package csr

import "sync"

// Backend performs the actual register word access underneath a
// Region — a real memory-mapped I/O window on the wddr target, or a
// simulated backend for hosted tests (see the csr/backend package).
//
// A Backend does no locking of its own: Region serializes every
// access through its own mutex, which stands in for IRQ masking
// during a read-modify-write, since a hosted Go build has no IRQ
// controller to mask.
type Backend interface {
	Read(addr Addr) uint32
	Write(addr Addr, value uint32)
}

// Region is a typed read/modify/write accessor over one Backend,
// mirroring base spec §4.1's register accessor contract. All RMW
// updates are serialized through mu, standing in for the IRQ masking
// the real firmware does around a CSR shared with an interrupt
// handler.
type Region struct {
	mu      sync.Mutex
	backend Backend
	base    Addr
}

// NewRegion constructs a Region over backend, based at base.
func NewRegion(backend Backend, base Addr) *Region {
	return &Region{backend: backend, base: base}
}

// Read returns the raw 32-bit word at base+addr.
func (r *Region) Read(addr Addr) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Read(r.base + addr)
}

// Write stores the raw 32-bit word at base+addr.
func (r *Region) Write(addr Addr, value uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Write(r.base+addr, value)
}

// Update performs an atomic read-modify-write of the bits selected by
// mask (already shifted into position by shift) at base+addr.
func (r *Region) Update(addr Addr, mask uint32, shift uint, value uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw := r.backend.Read(r.base + addr)
	raw &^= mask << shift
	raw |= (value & mask) << shift
	r.backend.Write(r.base+addr, raw)
}

// Rebased returns a new Region over the same backend, based at
// base+offset. The new Region has its own mutex, so its accesses are
// not serialized against r's. NewBankedRegion uses it to build the
// MSR-1 shadow copy of a register group.
func (r *Region) Rebased(offset Addr) *Region {
	return &Region{backend: r.backend, base: r.base + offset}
}
