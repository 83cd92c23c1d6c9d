// Package freqswitch implements the frequency-switch state machine
// (base spec component C5): it sequences a PLL prep/switch pair
// through the DFI INIT_START/INIT_COMPLETE handshake, re-arming a
// watchdog at each step so a wedged hardware handshake fails the
// switch instead of hanging the coordinator forever.
package freqswitch

import (
	"sync"
	"time"

	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
	"github.com/waviousllc/wav-lpddr-sw-sub000/pll"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// State is one of the frequency-switch FSM's seven states, ported
// from fsm/freq_switch/fsm.c's state_table.
type State int

const (
	Idle State = iota
	Fail
	PrepSwitch
	WaitForSwitch
	Switch
	PostSwitch
	WaitForLock
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Fail:
		return "FAIL"
	case PrepSwitch:
		return "PREP_SWITCH"
	case WaitForSwitch:
		return "WAIT_FOR_SWITCH"
	case Switch:
		return "SWITCH"
	case PostSwitch:
		return "POST_SWITCH"
	case WaitForLock:
		return "WAIT_FOR_LOCK"
	default:
		return "UNKNOWN"
	}
}

// Notification topics this FSM publishes, ported from the
// WDDR_NOTIF_FSW_* notification identifiers.
const (
	NotifyPrepDone = "FSW_PREP_DONE"
	NotifyDone     = "FSW_DONE"
	NotifyFailed   = "FSW_FAILED"
)

// DefaultWatchdogPeriod is the Go analogue of WD_TIMER_PERIOD
// (1 FreeRTOS tick period plus one extra tick, to guarantee the
// timeout is strictly greater than 1ms on a 1ms tick period): a
// generous fixed margin over the minimum handshake time, not tied to
// any particular tick rate on a hosted build.
const DefaultWatchdogPeriod = 2 * time.Millisecond

// Notifier is the minimal publish capability this FSM needs from the
// notification bus (C9); notify.Bus satisfies it.
type Notifier interface {
	Notify(topic string)
}

// InitCompleteCallback is invoked from OnInitComplete before the FSM
// resumes its own state handling, the port of init_complete_cb_t.
// Base spec's "high priority, starves everything else" comment on the
// original is honored by running it synchronously, inline, before
// anything else OnInitComplete does.
type InitCompleteCallback func()

// FSM is the frequency-switch state machine.
type FSM struct {
	mu sync.Mutex

	state State
	pll   *pll.FSM
	regs  *Regs
	dev   *wddr.Device

	watchdog       *time.Timer
	watchdogPeriod time.Duration

	hwSwitchOnly     bool
	initStartEnabled bool
	pendingToggle    bool

	initCompleteCB InitCompleteCallback
	notifier       Notifier
}

// Option configures an FSM at construction time.
type Option func(*FSM)

// WithNotifier attaches the bus the FSM publishes FSW_* events to.
func WithNotifier(n Notifier) Option {
	return func(f *FSM) { f.notifier = n }
}

// WithWatchdogPeriod overrides DefaultWatchdogPeriod.
func WithWatchdogPeriod(d time.Duration) Option {
	return func(f *FSM) { f.watchdogPeriod = d }
}

// WithInitCompleteCallback registers the callback invoked on every
// INIT_COMPLETE interrupt, the port of
// freq_switch_register_init_complete_callback passed at construction
// time instead of after the fact.
func WithInitCompleteCallback(cb InitCompleteCallback) Option {
	return func(f *FSM) { f.initCompleteCB = cb }
}

// New constructs an FSM in IDLE, wired to pllFSM's state-change
// notifications the way freq_switch_fsm_init wires
// fsm_register_state_change_callback.
func New(pllFSM *pll.FSM, regs *Regs, dev *wddr.Device, opts ...Option) *FSM {
	f := &FSM{
		state:          Idle,
		pll:            pllFSM,
		regs:           regs,
		dev:            dev,
		watchdogPeriod: DefaultWatchdogPeriod,
	}
	for _, opt := range opts {
		opt(f)
	}
	pllFSM.RegisterListener(f.onPLLStateChange)
	return f
}

// RegisterInitCompleteCallback is the port of
// freq_switch_register_init_complete_callback for callers that need
// to attach it after construction.
func (f *FSM) RegisterInitCompleteCallback(cb InitCompleteCallback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCompleteCB = cb
}

// State returns the FSM's current state.
func (f *FSM) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *FSM) notify(topic string) {
	if f.notifier != nil {
		f.notifier.Notify(topic)
	}
}

func (f *FSM) stopWatchdog() {
	if f.watchdog != nil {
		f.watchdog.Stop()
	}
}

func (f *FSM) armWatchdog() {
	f.stopWatchdog()
	f.watchdog = time.AfterFunc(f.watchdogPeriod, f.watchdogExpired)
}

func (f *FSM) watchdogExpired() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initStartEnabled = false
	f.enterFail()
}

// waitInitStartDeasserted polls DDR_DFI_STATUS_IF_STA_REQ for it to
// drop, bounded by the watchdog period rather than spinning forever
// the way the original firmware's bare-metal busy-wait does; grounded
// on sysfs.Pin.WaitForEdge's timeout-bounded poll.
func (f *FSM) waitInitStartDeasserted() {
	deadline := time.Now().Add(f.watchdogPeriod)
	for f.regs.InitStartAsserted() && time.Now().Before(deadline) {
	}
}

func (f *FSM) enterFail() {
	f.state = Fail
	f.notify(NotifyFailed)
}

// prepGuard is the port of freq_switch_prep_guard: PREP is only
// accepted from IDLE or WAIT_FOR_SWITCH.
func (f *FSM) prepGuard() bool {
	return f.state == Idle || f.state == WaitForSwitch
}

// Prep starts a frequency switch: it prepares the PLL for req's
// target frequency and waits for the PLL prep-done callback to move
// the FSM to WAIT_FOR_SWITCH. Ported from freq_switch_event_prep plus
// the body of freq_switch_state_prep_switch.
func (f *FSM) Prep(req PrepRequest) wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.prepGuard() {
		return wddr.StatusError
	}
	f.stopWatchdog()

	if req.MSR == f.regs.CurrentMSR() {
		f.regs.SetMSRToggleEnable(false)
	}

	f.state = PrepSwitch
	// pll.Prep reports PREP_DONE through onPLLStateChange, which takes
	// f.mu itself, so the lock is released around the call.
	f.mu.Unlock()
	status := f.pll.Prep(req.FreqID, req.Cal)
	f.mu.Lock()
	if status != wddr.StatusSuccess {
		f.enterFail()
		return status
	}
	return wddr.StatusSuccess
}

// swSwitchGuard is the port of freq_switch_sw_switch_guard: a
// software-forced switch is only accepted from WAIT_FOR_SWITCH, and
// never once hw_switch_mode has committed the FSM to hardware-only
// switching.
func (f *FSM) swSwitchGuard() bool {
	return f.state == WaitForSwitch && !f.hwSwitchOnly
}

// SwSwitch requests a software-forced frequency switch, the port of
// freq_switch_event_sw_switch.
func (f *FSM) SwSwitch() wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.swSwitchGuard() {
		return wddr.StatusError
	}
	return f.doSwitch()
}

// doSwitch is the port of freq_switch_state_switch: commit the MSR/
// VCO override, toggling MSR only if hardware would have, then hand
// the PLL its hw_switch event and move to WAIT_FOR_LOCK.
func (f *FSM) doSwitch() wddr.Status {
	f.state = Switch
	f.stopWatchdog()

	nextVCO, ok := f.pll.NextVCOId()
	if !ok {
		f.enterFail()
		return wddr.StatusError
	}

	msr := f.regs.CurrentMSR()
	f.pendingToggle = f.regs.MSRToggleEnabled()
	if f.pendingToggle {
		msr = msr.Other()
	}
	f.regs.SetMSRVCOOverrideValue(msr, uint8(nextVCO))
	f.regs.SetMSRVCOOverride(true)

	// SwitchEvent's transitions reach onPLLStateChange, which takes
	// f.mu, so the caller's lock is released around the call.
	f.mu.Unlock()
	f.pll.SwitchEvent(true)
	f.mu.Lock()

	f.state = WaitForLock
	return f.enterWaitForLock()
}

// enterWaitForLock is the port of freq_switch_state_wait_for_lock: the
// PLL has been kicked into its own switch sequence and the FSM simply
// waits for the CORE_LOCKED callback to arrive, guarded by the
// watchdog in case it never does.
func (f *FSM) enterWaitForLock() wddr.Status {
	if f.pll.State() == pll.Locked {
		f.stopWatchdog()
		return f.enterPostSwitch()
	}
	f.armWatchdog()
	return wddr.StatusSuccess
}

// enterPostSwitch is the port of freq_switch_state_post_switch: it
// commits the new frequency/MSR to the device handle (base spec
// Invariant 2), re-arms the default toggle-enable config for the
// next prep, notifies FSW_DONE, and returns to IDLE.
func (f *FSM) enterPostSwitch() wddr.Status {
	f.state = PostSwitch

	f.regs.SetPostWorkDone(true)
	f.regs.SetPostWorkDone(false)
	f.regs.SetPostWorkDoneOverride(true)
	f.regs.SetPrepDone(false)
	f.dev.CommitSwitch(f.pll.CurrentFreq(), f.pendingToggle)

	f.regs.SetVCOToggleEnable(true)
	f.regs.SetMSRToggleEnable(true)

	f.notify(NotifyDone)
	f.state = Idle
	return wddr.StatusSuccess
}

// HwSwitchMode commits the FSM to hardware-autonomous switching for
// every subsequent frequency change: hardware, not software, issues
// the SWITCH event from then on. Ported from
// freq_switch_event_hw_switch_mode; requires the PHY to currently be
// on VCO1/MSR0, the reset condition the real hardware hw_switch path
// assumes.
func (f *FSM) HwSwitchMode() wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.regs.CurrentMSR() != csr.MSR0 || f.pll.CurrentVCOId() != pll.VCO1 {
		return wddr.StatusError
	}

	f.regs.SetMSRVCOOverrideValue(csr.MSR0, uint8(pll.VCO1))
	f.regs.SetMSRVCOOverride(false)
	f.regs.SetInitCompleteOverride(false)

	f.waitInitStartDeasserted()
	f.regs.SetInitStartOverride(false)

	f.hwSwitchOnly = true
	return wddr.StatusSuccess
}

// OnInitStart is the port of handle_phy_init_start: it fires once
// DFI's INIT_START handshake line asserts, masks itself, and — if an
// init-complete callback is registered — forces a software ACK so the
// MRW-driven portion of the switch can complete before INIT_COMPLETE
// arrives.
func (f *FSM) OnInitStart() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initStartEnabled {
		return
	}
	f.waitInitStartDeasserted()
	f.initStartEnabled = false

	if f.initCompleteCB != nil {
		f.regs.SetSWAck(true, true)
		f.regs.SetPostWorkDoneOverride(true)
	}
}

// OnInitComplete is the port of handle_phy_init_complete.
func (f *FSM) OnInitComplete() wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initCompleteCB != nil {
		f.initCompleteCB()
		f.regs.SetSWAck(false, false)
	}

	if f.state != WaitForSwitch {
		f.enterFail()
		return wddr.StatusError
	}
	f.state = WaitForLock
	return wddr.StatusSuccess
}

// onPLLStateChange is the port of pll_state_change_cb, registered
// against the PLL FSM's listener set in New.
func (f *FSM) onPLLStateChange(_, next pll.State) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case next == pll.Locked && f.state == WaitForLock:
		f.stopWatchdog()
		f.enterPostSwitch()

	case next == pll.PrepDone && f.state == PrepSwitch:
		f.regs.SetPrepDone(true)
		if f.initCompleteCB != nil {
			f.regs.SetPostWorkDoneOverride(false)
		}
		f.notify(NotifyPrepDone)
		f.state = WaitForSwitch
		f.initStartEnabled = true
		f.armWatchdog()

	case next == pll.NotLocked && f.state != Switch:
		f.enterFail()
	}
}

// PrepRequest carries the arguments freq_switch_event_prep's
// fs_prep_data_t bundled: the target frequency, its PLL calibration
// parameters, and the MSR bank the caller wants current once the
// switch lands.
type PrepRequest struct {
	MSR    csr.MSR
	FreqID wddr.PhyFrequencyId
	Cal    pll.FLLCalibration
}
