package training

import (
	"testing"
	"time"

	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
	"github.com/waviousllc/wav-lpddr-sw-sub000/csr/backend"
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
	"github.com/waviousllc/wav-lpddr-sw-sub000/freqswitch"
	"github.com/waviousllc/wav-lpddr-sw-sub000/notify"
	"github.com/waviousllc/wav-lpddr-sw-sub000/pll"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// newTestSession builds a Session with a Simulated-backed FIFO on each
// channel and no fsw/pll/notifier wiring (mode-register/training
// routines that don't exercise frequency switching never touch those
// fields).
func newTestSession(t *testing.T, entries []wddr.FrequencyEntry) (*Session, *backend.Simulated) {
	t.Helper()
	be := backend.NewSimulated()
	table := wddr.DeclareTable(entries)
	dev := wddr.New("phy0", table)

	fifoRegion := csr.NewRegion(be, 0x4000)
	engine := dfi.NewEngine(dfi.NewFIFO(fifoRegion))

	regs := NewRegs(csr.NewRegion(be, 0))
	s := &Session{
		Dev:     dev,
		Engines: [wddr.NumChannels]*dfi.Engine{engine, dfi.NewEngine(dfi.NewFIFO(csr.NewRegion(be, 0x5000)))},
		Regs:    regs,
	}
	return s, be
}

func TestMR13BitPackingThroughFspAndCBT(t *testing.T) {
	s, _ := newTestSession(t, []wddr.FrequencyEntry{{Id: 0}})

	if st := s.SetFspWr(1); st != wddr.StatusSuccess {
		t.Fatalf("SetFspWr: %v", st)
	}
	if st := s.EnterCBT(); st != wddr.StatusSuccess {
		t.Fatalf("EnterCBT: %v", st)
	}
	if st := s.EnableVrcg(); st != wddr.StatusSuccess {
		t.Fatalf("EnableVrcg: %v", st)
	}
	if st := s.SetFspOp(1); st != wddr.StatusSuccess {
		t.Fatalf("SetFspOp: %v", st)
	}

	if s.Dev.Dram.FspWr != 1 || s.Dev.Dram.FspOp != 1 || !s.Dev.Dram.Vrcg || !s.Dev.Dram.CBTEnter {
		t.Fatalf("Dram state = %+v, want FspWr=1 FspOp=1 Vrcg=true CBTEnter=true", s.Dev.Dram)
	}

	got := s.mr13Value()
	want := mr13BitFspWr | mr13BitFspOp | mr13BitVrcg | mr13BitCBT
	if got != want {
		t.Fatalf("mr13Value = %#x, want %#x", got, want)
	}

	if st := s.ExitCBT(); st != wddr.StatusSuccess {
		t.Fatalf("ExitCBT: %v", st)
	}
	if s.Dev.Dram.CBTEnter {
		t.Fatalf("CBTEnter still set after ExitCBT")
	}
	if got := s.mr13Value(); got&mr13BitCBT != 0 {
		t.Fatalf("mr13Value = %#x, CBT bit should be clear after ExitCBT", got)
	}
}

func TestDisableVrcgClearsOnlyVrcgBit(t *testing.T) {
	s, _ := newTestSession(t, []wddr.FrequencyEntry{{Id: 0}})
	s.SetFspWr(1)
	s.EnableVrcg()
	s.DisableVrcg()

	if s.Dev.Dram.Vrcg {
		t.Fatalf("Vrcg still set after DisableVrcg")
	}
	if s.Dev.Dram.FspWr != 1 {
		t.Fatalf("DisableVrcg disturbed FspWr: got %d, want 1", s.Dev.Dram.FspWr)
	}
}

func TestFrequencyInitWritesEveryModeRegister(t *testing.T) {
	entry := wddr.FrequencyEntry{
		Id: 1,
		Dram: wddr.DramModeRegs{
			MR1: 1, MR2: 2, MR11: 11, MR12: 12, MR13: 13, MR14: 14,
		},
	}
	s, _ := newTestSession(t, []wddr.FrequencyEntry{{Id: 0}, entry})

	if st := s.FrequencyInit(1); st != wddr.StatusSuccess {
		t.Fatalf("FrequencyInit: %v, want StatusSuccess", st)
	}
}

func TestFrequencyInitUnknownFrequencyErrors(t *testing.T) {
	s, _ := newTestSession(t, []wddr.FrequencyEntry{{Id: 0}})
	if st := s.FrequencyInit(5); st != wddr.StatusError {
		t.Fatalf("FrequencyInit(unknown) = %v, want StatusError", st)
	}
}

// TestSwitchFrequencyBlocksUntilCoordinatorDrivesPLLLock exercises the
// full async path SwitchFrequency now waits on: SwSwitch only reaches
// WAIT_FOR_LOCK synchronously, and a separate goroutine (standing in
// for the coordinator reacting to PLL interrupts) must drive the PLL
// FSM's own interrupt sequence before SwitchFrequency unblocks.
func TestSwitchFrequencyBlocksUntilCoordinatorDrivesPLLLock(t *testing.T) {
	be := backend.NewSimulated()
	table := wddr.DeclareTable([]wddr.FrequencyEntry{{Id: 0}, {Id: 1}})
	dev := wddr.New("phy0", table)

	ctrl := csr.NewRegion(be, 0x1000)
	dfiSta := csr.NewRegion(be, 0x1100)
	regs := freqswitch.NewRegs(ctrl, dfiSta)
	pllFSM := pll.New(0)
	bus := notify.NewBus()
	fsw := freqswitch.New(pllFSM, regs, dev, freqswitch.WithNotifier(bus))

	fifoRegion := csr.NewRegion(be, 0x4000)
	engine := dfi.NewEngine(dfi.NewFIFO(fifoRegion))
	trainingRegs := NewRegs(csr.NewRegion(be, 0))
	s := &Session{
		Dev:     dev,
		Engines: [wddr.NumChannels]*dfi.Engine{engine, dfi.NewEngine(dfi.NewFIFO(csr.NewRegion(be, 0x5000)))},
		Regs:    trainingRegs,
	}
	s.fsw = fsw
	s.pll = pllFSM
	s.notifier = bus

	done := make(chan wddr.Status, 1)
	go func() { done <- s.SwitchFrequency(1) }()

	// Give SwitchFrequency time to reach WAIT_FOR_LOCK and subscribe
	// before the interrupt sequence fires.
	time.Sleep(20 * time.Millisecond)
	if got := fsw.State(); got != freqswitch.WaitForLock {
		t.Fatalf("fsw state before PLL interrupts = %v, want WAIT_FOR_LOCK", got)
	}

	if got := pllFSM.OnInitialSwitchDone(); got != wddr.StatusSuccess {
		t.Fatalf("OnInitialSwitchDone: %v", got)
	}
	if got := pllFSM.OnCoreLocked(); got != wddr.StatusSuccess {
		t.Fatalf("OnCoreLocked: %v", got)
	}

	select {
	case st := <-done:
		if st != wddr.StatusSuccess {
			t.Fatalf("SwitchFrequency = %v, want StatusSuccess", st)
		}
	case <-time.After(time.Second):
		t.Fatalf("SwitchFrequency never unblocked after the PLL lock sequence")
	}
	if fsw.State() != freqswitch.Idle {
		t.Fatalf("fsw state after switch = %v, want IDLE", fsw.State())
	}
}

func TestRatioReflectsCurrentEntry(t *testing.T) {
	entries := []wddr.FrequencyEntry{
		{Id: 0, PLL: wddr.PllConfig{Ratio: wddr.Ratio1to2}},
	}
	s, _ := newTestSession(t, entries)
	if got := s.ratio(); got != wddr.Ratio1to2 {
		t.Fatalf("ratio() = %v, want Ratio1to2", got)
	}
}
