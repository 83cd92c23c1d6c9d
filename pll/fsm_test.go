package pll_test

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/pll"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

func TestPrepSwitchLockSequence(t *testing.T) {
	f := pll.New(0)

	var transitions []pll.State
	f.RegisterListener(func(_, next pll.State) { transitions = append(transitions, next) })

	if got := f.Prep(1, pll.FLLCalibration{BandStart: 4, FineStart: 2}); got != wddr.StatusSuccess {
		t.Fatalf("Prep: %v, want StatusSuccess", got)
	}
	if got := f.State(); got != pll.PrepDone {
		t.Fatalf("state after Prep = %v, want PREP_DONE", got)
	}

	nextID, ok := f.NextVCOId()
	if !ok {
		t.Fatal("NextVCOId: no VCO prepped")
	}
	if nextID == f.CurrentVCOId() {
		t.Fatal("prepped VCO must differ from the current one")
	}

	if got := f.SwitchEvent(false); got != wddr.StatusSuccess {
		t.Fatalf("SwitchEvent: %v, want StatusSuccess", got)
	}
	if got := f.State(); got != pll.NotLocked {
		t.Fatalf("state after SwitchEvent = %v, want NOT_LOCKED", got)
	}

	if got := f.OnInitialSwitchDone(); got != wddr.StatusSuccess {
		t.Fatalf("OnInitialSwitchDone: %v", got)
	}
	if got := f.State(); got != pll.InitSwitchDone {
		t.Fatalf("state = %v, want INIT_SWITCH_DONE", got)
	}

	if got := f.OnCoreLocked(); got != wddr.StatusSuccess {
		t.Fatalf("OnCoreLocked: %v", got)
	}
	if got := f.State(); got != pll.Locked {
		t.Fatalf("state = %v, want LOCKED", got)
	}
	if f.CurrentFreq() != 1 {
		t.Fatalf("CurrentFreq = %v, want 1", f.CurrentFreq())
	}
	if f.CurrentVCOId() != nextID {
		t.Fatalf("CurrentVCOId = %v, want %v", f.CurrentVCOId(), nextID)
	}

	want := []pll.State{pll.Prep, pll.PrepDone, pll.Switch, pll.NotLocked, pll.InitSwitchDone, pll.Locked}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions[%d] = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestLossOfLockFromAnyState(t *testing.T) {
	f := pll.New(0)
	f.Prep(1, pll.FLLCalibration{})
	f.SwitchEvent(true)
	f.OnInitialSwitchDone()

	if got := f.OnLossOfLock(); got != wddr.StatusSuccess {
		t.Fatalf("OnLossOfLock: %v", got)
	}
	if got := f.State(); got != pll.NotLocked {
		t.Fatalf("state after loss of lock = %v, want NOT_LOCKED", got)
	}
}

func TestSwitchEventRejectedOutsidePrepDone(t *testing.T) {
	f := pll.New(0)
	if got := f.SwitchEvent(false); got != wddr.StatusError {
		t.Fatalf("SwitchEvent from LOCKED = %v, want StatusError", got)
	}
}

func TestCalibrationTableReusedForSameFreqAndVCO(t *testing.T) {
	calls := 0
	f := pll.New(0).WithCalibrateFunc(func(id pll.VCOId, freqID wddr.PhyFrequencyId, cal pll.FLLCalibration) (pll.BandFine, bool) {
		calls++
		return pll.BandFine{Band: cal.BandStart, Fine: cal.FineStart}, true
	})

	f.Prep(2, pll.FLLCalibration{BandStart: 1, FineStart: 1})
	f.SwitchEvent(false)
	f.OnInitialSwitchDone()
	f.OnCoreLocked()

	f.Prep(1, pll.FLLCalibration{})
	f.SwitchEvent(false)
	f.OnInitialSwitchDone()
	f.OnCoreLocked()

	f.Prep(2, pll.FLLCalibration{BandStart: 1, FineStart: 1})
	if calls != 2 {
		t.Fatalf("calibrate called %d times, want 2 (cached on repeat freq/vco)", calls)
	}
}
