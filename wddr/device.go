package wddr

import (
	"fmt"
	"log"
	"sync"

	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
)

// HaltHook is called by Fatal before the firmware halts. On the real
// wddr target this is wired to mask all interrupts and spin forever;
// on a hosted build it can be wired to panic or os.Exit for test
// visibility. A nil hook is a no-op, matching a nil *log.Logger being
// a silent logger.
type HaltHook func(signature uint32)

// Device is the single owning handle for one PHY instance (base spec
// Design Note "Global mutable PHY state": the Go port threads one
// owning handle through every call instead of keeping the device in
// a global). It owns the FrequencyTable, the current MSR/frequency,
// and the DRAM mirror state; forbidding multiple concurrent handles
// is achieved by construction (New returns the only handle, callers
// share a *Device the way periph-host's Dev is shared).
type Device struct {
	mu sync.Mutex

	Table *FrequencyTable
	Dram  DramState

	currentFreq PhyFrequencyId
	currentMSR  csr.MSR

	Logger *log.Logger
	Halt_  HaltHook

	name string
}

// New constructs a Device handle from a FrequencyTable, starting at
// the boot frequency with MSR0 current (the reset value of the FSW
// MSR status field).
func New(name string, table *FrequencyTable, opts ...Option) *Device {
	d := &Device{
		Table:       table,
		currentFreq: BootFrequencyId,
		currentMSR:  csr.MSR0,
		name:        name,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Option configures a Device at construction time.
type Option func(*Device)

// WithLogger attaches a logger for FSM transitions and training
// results. A nil logger (the default) discards everything.
func WithLogger(l *log.Logger) Option {
	return func(d *Device) { d.Logger = l }
}

// WithHaltHook attaches the hook Fatal invokes before halting.
func WithHaltHook(h HaltHook) Option {
	return func(d *Device) { d.Halt_ = h }
}

// Logf logs through d.Logger if one is attached; otherwise it is a
// no-op, matching the ambient logging contract in SPEC_FULL.md.
func (d *Device) Logf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
	}
}

// CurrentFrequency returns the PhyFrequencyId currently driving
// hardware.
func (d *Device) CurrentFrequency() PhyFrequencyId {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentFreq
}

// CurrentMSR returns the MSR bank currently driving hardware.
func (d *Device) CurrentMSR() csr.MSR {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentMSR
}

// CommitSwitch records that a frequency switch completed: the new
// frequency is current, and the MSR is flipped iff toggled is true.
// Called by freqswitch.FSM on POST_SWITCH exit (base spec Invariant 2).
func (d *Device) CommitSwitch(freq PhyFrequencyId, toggled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.currentFreq = freq
	if toggled {
		d.currentMSR = d.currentMSR.Other()
	}
}

// CurrentEntry returns the FrequencyTable row for the frequency
// currently driving hardware.
func (d *Device) CurrentEntry() *FrequencyEntry {
	return d.Table.Get(d.CurrentFrequency())
}

// String implements conn.Resource.
func (d *Device) String() string {
	return d.name
}

// Halt implements conn.Resource. It is a graceful stop (used by
// hosted tests and cmd/wddrbench); it is distinct from Fatal, which
// models an unrecoverable firmware halt.
func (d *Device) Halt() error {
	return nil
}

// Fatal writes a signature word via the halt hook and never returns
// control to the caller's caller in spirit — on the real target the
// hook masks interrupts and spins; here it is left to the hook. This
// models base spec §6's "Fatal assertions write a signature word
// (0x10001..0x40001) into a scratch CSR before halting."
func (d *Device) Fatal(signature uint32) {
	d.Logf("wddr: fatal, signature=%#x", signature)
	if d.Halt_ != nil {
		d.Halt_(signature)
	}
}

// Fatal signature words named in base spec §6.
const (
	SignatureAssertFailed  uint32 = 0x10001
	SignatureHeapExhausted uint32 = 0x20001
	SignatureStackOverflow uint32 = 0x30001
	SignatureUnreachable   uint32 = 0x40001
)

func (d *Device) errorf(format string, args ...any) error {
	return fmt.Errorf("wddr(%s): "+format, append([]any{d.name}, args...)...)
}
