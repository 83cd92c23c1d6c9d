package backend

import (
	"fmt"

	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
	"periph.io/x/conn/v3/driver/driverreg"
)

// MMIO is the real register backend: a byte-addressable window
// directly over the PHY's memory-mapped register space. On the wddr
// target this window is placed at a fixed physical base by the
// linker script (there is no virtual memory, so no mmap syscall is
// involved, unlike periph-host's Linux /dev/mem-backed GPIO banks);
// the window is handed to NewMMIO as a pre-mapped []uint32 slice.
type MMIO struct {
	words []uint32
	base  csr.Addr
}

// NewMMIO wraps a pre-mapped register window. words[i] corresponds to
// byte address base + 4*i.
func NewMMIO(words []uint32, base csr.Addr) *MMIO {
	return &MMIO{words: words, base: base}
}

func (m *MMIO) index(addr csr.Addr) int {
	if addr < m.base {
		panic(fmt.Sprintf("csr/backend: address %#x below window base %#x", addr, m.base))
	}
	idx := int((addr - m.base) / 4)
	if idx >= len(m.words) {
		panic(fmt.Sprintf("csr/backend: address %#x outside mapped window", addr))
	}
	return idx
}

func (m *MMIO) Read(addr csr.Addr) uint32 {
	return m.words[m.index(addr)]
}

func (m *MMIO) Write(addr csr.Addr, value uint32) {
	m.words[m.index(addr)] = value
}

var _ csr.Backend = (*MMIO)(nil)

// Available reports whether a real MMIO window has been bound via
// BindMMIO. It mirrors periph-host/ftdi's d2xx.Available gate: the
// driver self-registers but only actually takes hold when hardware
// (here, a bound window) is present.
var Available bool

var boundMMIO *MMIO

// BindMMIO attaches the real register window. Called once at boot on
// the wddr target, before driverreg.Init() runs.
func BindMMIO(words []uint32, base csr.Addr) {
	boundMMIO = NewMMIO(words, base)
	Available = true
}

type mmioDriver struct{}

func (mmioDriver) String() string {
	return "wddr-csr-mmio"
}

func (mmioDriver) Prerequisites() []string {
	return nil
}

func (mmioDriver) After() []string {
	return []string{"wddr-csr-sim"}
}

func (mmioDriver) Init() (bool, error) {
	if !Available {
		return false, nil
	}
	return true, nil
}

// Bound returns the bound MMIO backend, or nil if none was bound.
func Bound() *MMIO {
	return boundMMIO
}

func init() {
	driverreg.MustRegister(mmioDriver{})
}
