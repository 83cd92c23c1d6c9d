package pll

import (
	"fmt"
	"sync"

	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// State is one of the PLL FSM's six states, ported from the state
// names in fsm/pll/fsm.c's state_table.
type State int

const (
	NotLocked State = iota
	Prep
	PrepDone
	Switch
	InitSwitchDone
	Locked
)

func (s State) String() string {
	switch s {
	case NotLocked:
		return "NOT_LOCKED"
	case Prep:
		return "PREP"
	case PrepDone:
		return "PREP_DONE"
	case Switch:
		return "SWITCH"
	case InitSwitchDone:
		return "INIT_SWITCH_DONE"
	case Locked:
		return "LOCKED"
	default:
		return "UNKNOWN"
	}
}

// Listener is notified on every state transition, the port of the
// registration pll_fsm_init exposes so the frequency-switch FSM (C5)
// can learn when its requested switch finally reaches LOCKED or falls
// back to NOT_LOCKED.
type Listener func(prev, next State)

// FSM is the PLL/VCO driver and state machine (base spec component
// C2). It owns three VCO instances and tracks which is current and
// which, if any, is being prepped as the next one.
type FSM struct {
	mu sync.Mutex

	state State
	vcos  [numVCOs]*vco

	current VCOId
	next    VCOId // UndefinedVCOId when none is being prepped

	isSwSwitch bool

	calTable  map[calKey]BandFine
	calibrate CalibrateFunc

	regs *Regs

	listeners []Listener
}

// New constructs an FSM with VCO0 locked at the boot frequency, the
// reset condition assumed by freqswitch on firmware start.
func New(bootFreq wddr.PhyFrequencyId) *FSM {
	f := &FSM{
		state:     Locked,
		current:   VCO0,
		next:      UndefinedVCOId,
		calTable:  make(map[calKey]BandFine),
		calibrate: defaultCalibrate,
	}
	for i := range f.vcos {
		f.vcos[i] = &vco{id: VCOId(i)}
	}
	f.vcos[VCO0].freqID = bootFreq
	f.vcos[VCO0].hasFreq = true
	f.vcos[VCO0].poweredUp = true
	return f
}

// WithCalibrateFunc overrides the band/fine sweep implementation,
// the seam base spec §9 Open Question 3 leaves for a hosted build.
func (f *FSM) WithCalibrateFunc(fn CalibrateFunc) *FSM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calibrate = fn
	return f
}

// WithRegs attaches the register interface the FSM programs band,
// fine, and FLL-enable through on Prep and powers VCOs up/down
// through on OnCoreLocked. Left nil (the default a hosted test gets
// from plain New) the FSM still tracks state transitions correctly
// but drives no hardware, matching how WithCalibrateFunc's default
// also stubs the driver half out until something wires a real one in.
func (f *FSM) WithRegs(regs *Regs) *FSM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs = regs
	if f.regs != nil {
		f.regs.SetEnable(f.current, true)
	}
	return f
}

// RegisterListener adds l to the set notified on every transition.
func (f *FSM) RegisterListener(l Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, l)
}

// State returns the FSM's current state.
func (f *FSM) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// CurrentFreq returns the frequency id the currently-locked VCO is
// driving, the port of pll_fsm_get_current_freq.
func (f *FSM) CurrentFreq() wddr.PhyFrequencyId {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vcos[f.current].freqID
}

// NextFreq returns the frequency id being prepped, and false if no
// prep is in flight (pll_fsm_get_next_freq's UNDEFINED_FREQ_ID case).
func (f *FSM) NextFreq() (wddr.PhyFrequencyId, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next == UndefinedVCOId {
		return 0, false
	}
	return f.vcos[f.next].freqID, true
}

// CurrentVCOId is the port of pll_fsm_get_current_vco_id.
func (f *FSM) CurrentVCOId() VCOId {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// NextVCOId is the port of pll_fsm_get_next_vco_id.
func (f *FSM) NextVCOId() (VCOId, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next == UndefinedVCOId {
		return UndefinedVCOId, false
	}
	return f.next, true
}

func (f *FSM) transition(next State) {
	prev := f.state
	f.state = next
	listeners := f.listeners
	f.mu.Unlock()
	for _, l := range listeners {
		l(prev, next)
	}
	f.mu.Lock()
}

// pickInactiveVCO returns the lowest-numbered VCO other than the
// current one.
func (f *FSM) pickInactiveVCO() VCOId {
	for i := VCOId(0); i < numVCOs; i++ {
		if i != f.current {
			return i
		}
	}
	return f.current
}

// Prep selects an inactive VCO, runs its FLL band/fine calibration
// sweep against cal, and advances PREP -> PREP_DONE. Allowed from
// NOT_LOCKED, LOCKED, or PREP_DONE (pll_prep_guard).
func (f *FSM) Prep(freqID wddr.PhyFrequencyId, cal FLLCalibration) wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != NotLocked && f.state != Locked && f.state != PrepDone {
		return wddr.StatusError
	}

	f.transition(Prep)

	id := f.pickInactiveVCO()
	v := f.vcos[id]

	key := calKey{freq: freqID, vco: id}
	bf, ok := f.calTable[key]
	if !ok {
		bf, ok = f.calibrate(id, freqID, cal)
		if !ok {
			f.transition(NotLocked)
			return wddr.StatusRetry
		}
		f.calTable[key] = bf
	}

	if f.regs != nil {
		f.regs.SetEnable(id, true)
		f.regs.SetFLLControl1(id, cal.BandStart, cal.FineStart, cal.LockCountThreshold)
		f.regs.SetFLLControl2(id, cal.RefclkCount, cal.VCOCountTarget)
		f.regs.SetBand(id, bf.Band, bf.Fine)
		f.regs.SetFLLEnable(id, true)
	}

	v.freqID = freqID
	v.hasFreq = true
	f.next = id

	f.transition(PrepDone)
	return wddr.StatusSuccess
}

// SwitchEvent requests the hardware mode switch from the prepped VCO.
// isSW records whether this was a software-forced switch (affects
// whether the prior VCO is powered down immediately on LOCKED entry).
// Allowed only from PREP_DONE.
func (f *FSM) SwitchEvent(isSW bool) wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != PrepDone {
		return wddr.StatusError
	}
	if f.next == UndefinedVCOId {
		return wddr.StatusError
	}

	f.isSwSwitch = isSW
	f.transition(Switch)
	f.transition(NotLocked)
	return wddr.StatusSuccess
}

// OnInitialSwitchDone delivers the INITIAL_SWITCH_DONE interrupt
// (hw_switch_mode's first completion signal). Allowed only out of
// NOT_LOCKED, following a SwitchEvent.
func (f *FSM) OnInitialSwitchDone() wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != NotLocked || f.next == UndefinedVCOId {
		return wddr.StatusError
	}
	f.transition(InitSwitchDone)
	return wddr.StatusSuccess
}

// OnCoreLocked delivers the CORE_LOCKED interrupt. It commits the
// prepped VCO as current, powers down the previous VCO (unless this
// was a software switch retaining it warm), and transitions to
// LOCKED.
func (f *FSM) OnCoreLocked() wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != InitSwitchDone {
		return wddr.StatusError
	}

	prevVCO := f.current
	f.current = f.next
	f.next = UndefinedVCOId
	f.vcos[f.current].poweredUp = true

	if prevVCO != f.current {
		f.vcos[prevVCO].poweredUp = f.isSwSwitch
		if f.regs != nil && !f.isSwSwitch {
			f.regs.SetFLLEnable(prevVCO, false)
			f.regs.SetEnable(prevVCO, false)
		}
	}

	f.transition(Locked)
	return wddr.StatusSuccess
}

// OnLossOfLock delivers the LOSS_OF_LOCK interrupt, which can arrive
// from any state and always drops the FSM back to NOT_LOCKED.
func (f *FSM) OnLossOfLock() wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transition(NotLocked)
	return wddr.StatusSuccess
}

// VCOPoweredUp reports whether vco id is currently powered, for
// tests and diagnostics.
func (f *FSM) VCOPoweredUp(id VCOId) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vcos[id].poweredUp
}

func (f *FSM) errorf(format string, args ...any) error {
	return fmt.Errorf("pll: "+format, args...)
}
