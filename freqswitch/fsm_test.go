package freqswitch_test

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
	"github.com/waviousllc/wav-lpddr-sw-sub000/csr/backend"
	"github.com/waviousllc/wav-lpddr-sw-sub000/freqswitch"
	"github.com/waviousllc/wav-lpddr-sw-sub000/pll"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

func newHarness(t *testing.T) (*freqswitch.FSM, *pll.FSM, *freqswitch.Regs) {
	t.Helper()
	table := wddr.DeclareTable([]wddr.FrequencyEntry{{Id: 0}, {Id: 1}})
	dev := wddr.New("phy0", table)

	be := backend.NewSimulated()
	ctrl := csr.NewRegion(be, 0x000)
	dfiSta := csr.NewRegion(be, 0x100)
	regs := freqswitch.NewRegs(ctrl, dfiSta)

	pllFSM := pll.New(0)
	fsm := freqswitch.New(pllFSM, regs, dev)
	return fsm, pllFSM, regs
}

// driveToLocked drives the PLL's own interrupt sequence for a switch
// already started by Prep, mirroring what a coordinator would do on
// receiving the CORE_LOCKED/INITIAL_SWITCH_DONE interrupts.
func driveToLocked(t *testing.T, pllFSM *pll.FSM) {
	t.Helper()
	if got := pllFSM.OnInitialSwitchDone(); got != wddr.StatusSuccess {
		t.Fatalf("OnInitialSwitchDone: %v", got)
	}
	if got := pllFSM.OnCoreLocked(); got != wddr.StatusSuccess {
		t.Fatalf("OnCoreLocked: %v", got)
	}
}

func TestPrepMovesToWaitForSwitchOnPLLPrepDone(t *testing.T) {
	fsm, _, _ := newHarness(t)

	if got := fsm.Prep(freqswitch.PrepRequest{FreqID: 1}); got != wddr.StatusSuccess {
		t.Fatalf("Prep: %v, want StatusSuccess", got)
	}
	if got := fsm.State(); got != freqswitch.WaitForSwitch {
		t.Fatalf("state after Prep = %v, want WAIT_FOR_SWITCH", got)
	}
}

func TestSwSwitchRejectedOutsideWaitForSwitch(t *testing.T) {
	fsm, _, _ := newHarness(t)
	if got := fsm.SwSwitch(); got != wddr.StatusError {
		t.Fatalf("SwSwitch from IDLE = %v, want StatusError", got)
	}
}

func TestFullSoftwareSwitchReachesPostSwitchAndIdle(t *testing.T) {
	table := wddr.DeclareTable([]wddr.FrequencyEntry{{Id: 0}, {Id: 1}})
	dev := wddr.New("phy0", table)
	be := backend.NewSimulated()
	ctrl := csr.NewRegion(be, 0x000)
	dfiSta := csr.NewRegion(be, 0x100)
	regs := freqswitch.NewRegs(ctrl, dfiSta)
	pllFSM := pll.New(0)

	var notifications []string
	fsm := freqswitch.New(pllFSM, regs, dev,
		freqswitch.WithNotifier(notifyFunc(func(topic string) { notifications = append(notifications, topic) })))

	if got := fsm.Prep(freqswitch.PrepRequest{FreqID: 1}); got != wddr.StatusSuccess {
		t.Fatalf("Prep: %v", got)
	}
	if got := fsm.State(); got != freqswitch.WaitForSwitch {
		t.Fatalf("state after Prep = %v, want WAIT_FOR_SWITCH", got)
	}

	if got := fsm.SwSwitch(); got != wddr.StatusSuccess {
		t.Fatalf("SwSwitch: %v", got)
	}
	if got := fsm.State(); got != freqswitch.WaitForLock {
		t.Fatalf("state after SwSwitch = %v, want WAIT_FOR_LOCK", got)
	}

	driveToLocked(t, pllFSM)

	if got := fsm.State(); got != freqswitch.Idle {
		t.Fatalf("state after CORE_LOCKED = %v, want IDLE", got)
	}

	want := []string{freqswitch.NotifyPrepDone, freqswitch.NotifyDone}
	if len(notifications) != len(want) {
		t.Fatalf("notifications = %v, want %v", notifications, want)
	}
	for i := range want {
		if notifications[i] != want[i] {
			t.Fatalf("notifications[%d] = %q, want %q", i, notifications[i], want[i])
		}
	}
}

func TestLossOfLockFailsTheSwitch(t *testing.T) {
	fsm, pllFSM, _ := newHarness(t)

	fsm.Prep(freqswitch.PrepRequest{FreqID: 1})
	fsm.SwSwitch()

	if got := pllFSM.OnLossOfLock(); got != wddr.StatusSuccess {
		t.Fatalf("OnLossOfLock: %v", got)
	}
	if got := fsm.State(); got != freqswitch.Fail {
		t.Fatalf("state after loss of lock = %v, want FAIL", got)
	}
}

func TestHwSwitchModeRequiresVCO1MSR0Reset(t *testing.T) {
	fsm, _, _ := newHarness(t)
	if got := fsm.HwSwitchMode(); got != wddr.StatusError {
		t.Fatalf("HwSwitchMode before any switch = %v, want StatusError (not on VCO1/MSR0)", got)
	}
}

func TestHwSwitchModeDisablesSwSwitch(t *testing.T) {
	fsm, pllFSM, regs := newHarness(t)

	fsm.Prep(freqswitch.PrepRequest{FreqID: 1})
	fsm.SwSwitch()
	driveToLocked(t, pllFSM)

	// Now on VCO1 (the inactive VCO picked by the first Prep) at MSR0.
	if pllFSM.CurrentVCOId() != pll.VCO1 {
		t.Skip("harness landed on a VCO other than VCO1; hw_switch_mode precondition not met")
	}

	if got := fsm.HwSwitchMode(); got != wddr.StatusSuccess {
		t.Fatalf("HwSwitchMode: %v", got)
	}

	fsm.Prep(freqswitch.PrepRequest{FreqID: 0})
	if got := fsm.SwSwitch(); got != wddr.StatusError {
		t.Fatalf("SwSwitch after HwSwitchMode = %v, want StatusError", got)
	}
}

func TestOnInitStartNoOpWhenNotArmed(t *testing.T) {
	fsm, _, _ := newHarness(t)
	fsm.OnInitStart()
	if got := fsm.State(); got != freqswitch.Idle {
		t.Fatalf("state after an unarmed INIT_START = %v, want IDLE", got)
	}
}

func TestOnInitCompleteMovesToWaitForLock(t *testing.T) {
	fsm, _, _ := newHarness(t)
	fsm.Prep(freqswitch.PrepRequest{FreqID: 1})
	fsm.OnInitStart()

	if got := fsm.OnInitComplete(); got != wddr.StatusSuccess {
		t.Fatalf("OnInitComplete: %v, want StatusSuccess", got)
	}
	if got := fsm.State(); got != freqswitch.WaitForLock {
		t.Fatalf("state after INIT_COMPLETE = %v, want WAIT_FOR_LOCK", got)
	}
}

func TestOnInitCompleteFailsOutsideWaitForSwitch(t *testing.T) {
	fsm, _, _ := newHarness(t)
	if got := fsm.OnInitComplete(); got != wddr.StatusError {
		t.Fatalf("OnInitComplete from IDLE = %v, want StatusError", got)
	}
	if got := fsm.State(); got != freqswitch.Fail {
		t.Fatalf("state = %v, want FAIL", got)
	}
}

func TestOnInitCompleteInvokesRegisteredCallback(t *testing.T) {
	table := wddr.DeclareTable([]wddr.FrequencyEntry{{Id: 0}, {Id: 1}})
	dev := wddr.New("phy0", table)
	be := backend.NewSimulated()
	regs := freqswitch.NewRegs(csr.NewRegion(be, 0x000), csr.NewRegion(be, 0x100))
	pllFSM := pll.New(0)

	called := false
	fsm := freqswitch.New(pllFSM, regs, dev,
		freqswitch.WithInitCompleteCallback(func() { called = true }))

	fsm.Prep(freqswitch.PrepRequest{FreqID: 1})
	fsm.OnInitStart()
	fsm.OnInitComplete()

	if !called {
		t.Fatal("init-complete callback was not invoked")
	}
}

type notifyFunc func(topic string)

func (f notifyFunc) Notify(topic string) { f(topic) }
