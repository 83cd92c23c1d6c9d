// Package dfiupdate implements the DFI CTRLUPD/PHYUPD update state
// machine (base spec component C6): it drives the software-initiated
// PHYUPD handshake used around frequency switches and calibration
// retraining, and owns (but, faithfully to the firmware this was
// ported from, leaves disabled unless EnableCtrlupd is called) the
// memory-controller-initiated CTRLUPD handshake.
package dfiupdate

import (
	"sync"
	"time"

	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// pollTimeout bounds the busy-waits this FSM ports from the original
// firmware's bare register polling loops (themselves unbounded,
// since on real hardware the memory controller always responds);
// grounded on sysfs.Pin.WaitForEdge's timeout-bounded poll.
const pollTimeout = 5 * time.Millisecond

func waitUntilFalse(cond func() bool) {
	deadline := time.Now().Add(pollTimeout)
	for cond() && time.Now().Before(deadline) {
	}
}

// State is one of the DFI-update FSM's seven states, ported from
// fsm/dfi_update/fsm.c's state_table.
type State int

const (
	Idle State = iota
	Req
	CtrlupdWait
	PhyupdWait
	Cal
	Update
	UpdateExit
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Req:
		return "REQ"
	case CtrlupdWait:
		return "CTRLUPD_WAIT"
	case PhyupdWait:
		return "PHYUPD_WAIT"
	case Cal:
		return "CAL"
	case Update:
		return "UPDATE"
	case UpdateExit:
		return "UPDATE_EXIT"
	default:
		return "UNKNOWN"
	}
}

// PhyupdType is the DFI PHYUPD type value carried on a software
// request, the port of dfi_phyupd_type_t.
type PhyupdType uint8

const (
	PhyupdType0 PhyupdType = iota
	PhyupdType1
	PhyupdType2
	PhyupdType3
)

// UpdatePHYFunc re-applies the PHY's current training/calibration
// state after a DFI update window, the port of iocal_update_phy_fn_t.
type UpdatePHYFunc func()

// CalibrateFunc runs the ZQ-style calibration routine a
// controller-initiated CTRLUPD window exists to make room for, the
// port of iocal_calibrate_fn_t.
type CalibrateFunc func()

// FSM is the DFI-update state machine.
type FSM struct {
	mu sync.Mutex

	state State
	regs  *Regs

	updatePHY UpdatePHYFunc
	calibrate CalibrateFunc

	// ctrlupdEnabled gates handle_dfi_ctrlupd_irq the same way the
	// original firmware's disable_irq(MCU_FAST_IRQ_CTRLUPD_REQ) does:
	// it starts false, so requests from the memory controller are
	// ignored, and only EnableCtrlupd turns it on, for a board
	// bring-up that does want the memory controller driving CTRLUPD.
	ctrlupdEnabled bool
	phyupdAckEnabled bool
}

// New constructs an FSM in IDLE. It forces the CTRLUPD software ACK
// low with the override asserted, the port of dfi_update_fsm_init's
// "force ACK low to ignore ctrlupd requests" register dance.
func New(regs *Regs, updatePHY UpdatePHYFunc, calibrate CalibrateFunc) *FSM {
	f := &FSM{
		state:     Idle,
		regs:      regs,
		updatePHY: updatePHY,
		calibrate: calibrate,
	}
	f.regs.SetCtrlupdAck(false, false)
	f.regs.SetCtrlupdAck(false, true)
	return f
}

// State returns the FSM's current state.
func (f *FSM) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// RequestUpdate is the port of dfi_update_event_req_update: a
// software-initiated PHYUPD request, only accepted from IDLE.
func (f *FSM) RequestUpdate(t PhyupdType) wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != Idle {
		return wddr.StatusError
	}

	f.state = Req
	f.regs.SetPhyupdRequest(t, true, true)

	// Wait for PHYUPD ACK IRQ.
	f.state = PhyupdWait
	f.phyupdAckEnabled = true
	return wddr.StatusSuccess
}

// OnPhyupdAck is the port of handle_dfi_phyupd_ack: the memory
// controller acknowledged the PHYUPD request, so the FSM runs the
// PHY-side update and starts exiting the window.
func (f *FSM) OnPhyupdAck() wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.phyupdAckEnabled {
		return wddr.StatusError
	}
	f.phyupdAckEnabled = false

	f.state = Update
	if f.updatePHY != nil {
		f.updatePHY()
	}
	return f.enterUpdateExit()
}

// enterUpdateExit is the port of dfi_update_state_update_exit: it
// deasserts PHYUPD_REQ, pulses SW_EVENT to signal exit, waits for the
// memory controller's ACK to drop, then returns to IDLE.
func (f *FSM) enterUpdateExit() wddr.Status {
	f.state = UpdateExit

	f.regs.SetPhyupdRequest(0, false, true)
	f.regs.SetPhyupdEvent(true, true)
	f.regs.SetPhyupdEvent(false, true)
	f.regs.SetPhyupdRequest(0, false, false)
	f.regs.SetPhyupdEvent(false, false)

	waitUntilFalse(f.regs.PhyupdAckAsserted)

	f.state = Idle
	return wddr.StatusSuccess
}

// OnCtrlupdAssert is the port of handle_dfi_ctrlupd_irq's assertion
// branch: the memory controller wants a CTRLUPD window. It returns
// StatusError unless EnableCtrlupd has been called (ctrlupdEnabled
// defaults false, and neither command in cmd/ calls EnableCtrlupd).
func (f *FSM) OnCtrlupdAssert() wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.ctrlupdEnabled {
		return wddr.StatusError
	}
	return f.enterCal()
}

// enterCal is the port of dfi_update_state_cal: run calibration and
// re-apply the PHY's training state, then deassert the CTRLUPD ACK
// with an SW_EVENT_1 pulse and wait for the controller to drop its
// request before parking in CTRLUPD_WAIT.
func (f *FSM) enterCal() wddr.Status {
	f.state = Cal

	if f.calibrate != nil {
		f.calibrate()
	}
	if f.updatePHY != nil {
		f.updatePHY()
	}

	f.regs.SetCtrlupdAck(false, false)
	f.regs.SetCtrlupdEvent1(true, true)
	f.regs.SetCtrlupdAck(false, true)
	waitUntilFalse(f.regs.CtrlupdReqAsserted)
	f.regs.SetCtrlupdEvent1(false, true)
	f.regs.SetCtrlupdEvent1(false, false)
	f.regs.SetCtrlupdAck(false, false)

	f.state = CtrlupdWait
	return wddr.StatusSuccess
}

// OnCtrlupdDeassert is the port of handle_dfi_ctrlupd_irq's
// deassertion branch: the controller dropped its CTRLUPD request, so
// the FSM returns to IDLE.
func (f *FSM) OnCtrlupdDeassert() wddr.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.ctrlupdEnabled {
		return wddr.StatusError
	}
	f.state = Idle
	return wddr.StatusSuccess
}

// EnableCtrlupd turns on the memory-controller-initiated CTRLUPD
// path, which the original firmware never does; exposed for a board
// variant that needs it, not exercised by the base spec's own switch
// sequencing.
func (f *FSM) EnableCtrlupd() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctrlupdEnabled = true
}
