// Command wddrbench exercises the firmware core entirely on the
// simulated register backend: boot, prep and switch to a target
// frequency, request PHYMSTR and run the baseline write/read check,
// then release PHYMSTR — printing the status of each step. It has no
// board or real hardware dependency, the bench-rig analogue of
// ftdismoketest: something to run against the simulated backend to
// confirm the coordinator's wiring is sane before trying it against
// real silicon.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/waviousllc/wav-lpddr-sw-sub000/coordinator"
	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
	"github.com/waviousllc/wav-lpddr-sw-sub000/csr/backend"
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfiupdate"
	"github.com/waviousllc/wav-lpddr-sw-sub000/freqswitch"
	"github.com/waviousllc/wav-lpddr-sw-sub000/notify"
	"github.com/waviousllc/wav-lpddr-sw-sub000/pll"
	"github.com/waviousllc/wav-lpddr-sw-sub000/training"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

const (
	addrFreqSwitchCtrl   csr.Addr = 0x0000
	addrFreqSwitchDfiSta csr.Addr = 0x0100
	addrDfiUpdate        csr.Addr = 0x0200
	addrPLL              csr.Addr = 0x0300
	addrTrainingCh0      csr.Addr = 0x1000
	addrFIFOCh0          csr.Addr = 0x4000
	addrFIFOCh1          csr.Addr = 0x5000
)

const phymstrAckWait = 50 * time.Millisecond

func main() {
	targetFreq := flag.Int("freq", 1, "PhyFrequencyId to switch to and validate")
	flag.Parse()

	logger := log.New(os.Stdout, "wddrbench: ", 0)

	be := backend.NewSimulated()
	table := wddr.DeclareTable([]wddr.FrequencyEntry{{Id: 0}, {Id: 1}, {Id: 2}, {Id: 3}})
	dev := wddr.New("phy0-bench", table, wddr.WithLogger(logger))

	bus := notify.NewBus()
	pllRegs := pll.NewRegs(csr.NewRegion(be, addrPLL))
	pllFSM := pll.New(wddr.BootFrequencyId).WithRegs(pllRegs)

	fswRegs := freqswitch.NewRegs(csr.NewRegion(be, addrFreqSwitchCtrl), csr.NewRegion(be, addrFreqSwitchDfiSta))
	fswFSM := freqswitch.New(pllFSM, fswRegs, dev, freqswitch.WithNotifier(bus))

	engines := [wddr.NumChannels]*dfi.Engine{
		dfi.NewEngine(dfi.NewFIFO(csr.NewRegion(be, addrFIFOCh0))),
		dfi.NewEngine(dfi.NewFIFO(csr.NewRegion(be, addrFIFOCh1))),
	}
	trainingRegs := training.NewRegs(csr.NewRegion(be, addrTrainingCh0))
	session := training.NewSession(dev, engines, trainingRegs, fswFSM, pllFSM, bus)

	dfiUpdRegs := dfiupdate.NewRegs(csr.NewRegion(be, addrDfiUpdate))
	dfiUpdFSM := dfiupdate.New(dfiUpdRegs,
		func() { session.FrequencyInit(dev.CurrentFrequency()) },
		func() { session.BaselineWriteRead(0, dev.CurrentFrequency()) },
	)

	task := coordinator.New(fswFSM, pllFSM, dfiUpdFSM, bus)
	go task.Run()
	defer task.Stop()

	step := func(name string, status wddr.Status) {
		logger.Printf("%-28s %s", name, status)
	}

	step("boot", task.Post(coordinator.Message{Event: coordinator.EventBoot}))

	freqID := wddr.PhyFrequencyId(*targetFreq)
	step("prep", task.Post(coordinator.Message{Event: coordinator.EventPrep, FreqID: freqID}))
	if fswFSM.State() == freqswitch.WaitForSwitch {
		step("sw-switch", fswFSM.SwSwitch())
	}
	driveSwitchToLock(task, pllFSM, logger)

	if err := requestAndRunBaseline(task, bus, session, freqID, logger); err != nil {
		logger.Printf("baseline validation: %v", err)
		os.Exit(1)
	}

	logger.Printf("bench run complete, now running at frequency %d (MSR%d)", dev.CurrentFrequency(), dev.CurrentMSR())
}

// driveSwitchToLock drives the PLL's own interrupt sequence the way a
// real board's PLL_INITIAL_SWITCH_DONE/PLL_CORE_LOCKED IRQ lines would,
// since the simulated backend never raises those on its own.
func driveSwitchToLock(task *coordinator.Task, pllFSM *pll.FSM, logger *log.Logger) {
	if pllFSM.State() != pll.Switch {
		return
	}
	logger.Printf("%-28s %s", "pll-init-switch-done", task.Post(coordinator.Message{Event: coordinator.EventPLLInitLock}))
	logger.Printf("%-28s %s", "pll-core-locked", task.Post(coordinator.Message{Event: coordinator.EventPLLLock}))
}

// requestAndRunBaseline requests PHYMSTR, delivers the PHYMSTR_ACK
// itself (the simulated backend has no memory controller to raise
// it), waits for the grant notification, runs the baseline write/read
// check, then releases PHYMSTR.
func requestAndRunBaseline(task *coordinator.Task, bus *notify.Bus, session *training.Session, freqID wddr.PhyFrequencyId, logger *log.Logger) error {
	status := task.Post(coordinator.Message{Event: coordinator.EventPhymstrReq})
	logger.Printf("%-28s %s", "phymstr-req", status)
	if status != wddr.StatusSuccess {
		return nil
	}

	granted := bus.Subscribe(coordinator.NotifyPhymstrAck)
	defer bus.Unsubscribe(coordinator.NotifyPhymstrAck, granted)
	logger.Printf("%-28s %s", "phymstr-ack", task.Post(coordinator.Message{Event: coordinator.EventPhymstrAck}))

	select {
	case <-granted:
	case <-time.After(phymstrAckWait):
		task.PostAsync(coordinator.Message{Event: coordinator.EventPhymstrAbort})
		return errBenchTimeout("PHYMSTR_ACK")
	}

	result := session.BaselineWriteRead(0, freqID)
	logger.Printf("%-28s %s", "baseline-write-read", result)

	task.PostAsync(coordinator.Message{Event: coordinator.EventPhymstrExit})
	return nil
}

type errBenchTimeout string

func (e errBenchTimeout) Error() string {
	return "timed out waiting for " + string(e)
}
