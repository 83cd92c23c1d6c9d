package dfiupdate_test

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
	"github.com/waviousllc/wav-lpddr-sw-sub000/csr/backend"
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfiupdate"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

func newHarness(t *testing.T, updatePHY dfiupdate.UpdatePHYFunc, calibrate dfiupdate.CalibrateFunc) (*dfiupdate.FSM, *dfiupdate.Regs) {
	t.Helper()
	be := backend.NewSimulated()
	region := csr.NewRegion(be, 0)
	regs := dfiupdate.NewRegs(region)
	return dfiupdate.New(regs, updatePHY, calibrate), regs
}

func TestRequestUpdateMovesToPhyupdWait(t *testing.T) {
	fsm, _ := newHarness(t, nil, nil)

	if got := fsm.RequestUpdate(dfiupdate.PhyupdType1); got != wddr.StatusSuccess {
		t.Fatalf("RequestUpdate: %v, want StatusSuccess", got)
	}
	if got := fsm.State(); got != dfiupdate.PhyupdWait {
		t.Fatalf("state after RequestUpdate = %v, want PHYUPD_WAIT", got)
	}
}

func TestRequestUpdateRejectedOutsideIdle(t *testing.T) {
	fsm, _ := newHarness(t, nil, nil)
	fsm.RequestUpdate(dfiupdate.PhyupdType0)

	if got := fsm.RequestUpdate(dfiupdate.PhyupdType0); got != wddr.StatusError {
		t.Fatalf("second RequestUpdate = %v, want StatusError", got)
	}
}

func TestPhyupdAckRunsUpdateAndReturnsToIdle(t *testing.T) {
	updateCalls := 0
	fsm, _ := newHarness(t, func() { updateCalls++ }, nil)

	fsm.RequestUpdate(dfiupdate.PhyupdType2)
	if got := fsm.OnPhyupdAck(); got != wddr.StatusSuccess {
		t.Fatalf("OnPhyupdAck: %v, want StatusSuccess", got)
	}
	if got := fsm.State(); got != dfiupdate.Idle {
		t.Fatalf("state after OnPhyupdAck = %v, want IDLE", got)
	}
	if updateCalls != 1 {
		t.Fatalf("updatePHY called %d times, want 1", updateCalls)
	}
}

func TestPhyupdAckIgnoredWhenNotArmed(t *testing.T) {
	fsm, _ := newHarness(t, nil, nil)
	if got := fsm.OnPhyupdAck(); got != wddr.StatusError {
		t.Fatalf("OnPhyupdAck without a pending request = %v, want StatusError", got)
	}
}

func TestPhyupdAckOnlyConsumedOnce(t *testing.T) {
	fsm, _ := newHarness(t, nil, nil)
	fsm.RequestUpdate(dfiupdate.PhyupdType0)
	fsm.OnPhyupdAck()

	if got := fsm.OnPhyupdAck(); got != wddr.StatusError {
		t.Fatalf("second OnPhyupdAck = %v, want StatusError (ACK IRQ is masked after first fire)", got)
	}
}

func TestCtrlupdPathDisabledByDefault(t *testing.T) {
	fsm, _ := newHarness(t, nil, nil)
	if got := fsm.OnCtrlupdAssert(); got != wddr.StatusError {
		t.Fatalf("OnCtrlupdAssert with ctrlupd disabled = %v, want StatusError", got)
	}
}

func TestCtrlupdPathRunsCalibrateWhenEnabled(t *testing.T) {
	calibrateCalls, updateCalls := 0, 0
	fsm, _ := newHarness(t, func() { updateCalls++ }, func() { calibrateCalls++ })
	fsm.EnableCtrlupd()

	if got := fsm.OnCtrlupdAssert(); got != wddr.StatusSuccess {
		t.Fatalf("OnCtrlupdAssert: %v, want StatusSuccess", got)
	}
	if got := fsm.State(); got != dfiupdate.CtrlupdWait {
		t.Fatalf("state after OnCtrlupdAssert = %v, want CTRLUPD_WAIT", got)
	}
	if calibrateCalls != 1 || updateCalls != 1 {
		t.Fatalf("calibrateCalls=%d updateCalls=%d, want 1 and 1", calibrateCalls, updateCalls)
	}

	if got := fsm.OnCtrlupdDeassert(); got != wddr.StatusSuccess {
		t.Fatalf("OnCtrlupdDeassert: %v, want StatusSuccess", got)
	}
	if got := fsm.State(); got != dfiupdate.Idle {
		t.Fatalf("state after OnCtrlupdDeassert = %v, want IDLE", got)
	}
}
