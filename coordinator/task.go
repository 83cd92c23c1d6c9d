// Package coordinator implements the PHY top-level coordinator (base
// spec component C8): a single event-driven task that consumes a
// command queue, routes each event into the right sub-state-machine,
// and enforces the cross-protocol mutual exclusion between the
// frequency-switch protocol (C5) and the DFI sideband protocols
// (PHYUPD/PHYMSTR/CTRLUPD, C6) that share the same signalling pins.
//
// Grounded directly on original_source/firmware/phy_task.c: the fixed
// event routing table, the bounded message queue plus retry-queue
// drain loop (rq_ready), and the optional periodic calibration task.
package coordinator

import (
	"time"

	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfiupdate"
	"github.com/waviousllc/wav-lpddr-sw-sub000/freqswitch"
	"github.com/waviousllc/wav-lpddr-sw-sub000/notify"
	"github.com/waviousllc/wav-lpddr-sw-sub000/pll"
	"github.com/waviousllc/wav-lpddr-sw-sub000/training"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// Event is one of the coordinator's fixed routing-table events, the
// port of fw_phy_event_t.
type Event int

const (
	EventBoot Event = iota
	EventPrep
	EventInitStart
	EventInitComplete
	EventPLLInitLock
	EventPLLLock
	EventPLLLossLock
	EventPhyupdReq
	EventPhymstrReq
	EventPhymstrExit
	EventPhymstrAck
	EventPhymstrAbort
	EventPhyupdAck
	EventPhyupdAbort
	EventCtrlupdAssert
	EventCtrlupdDeassert
	EventLPDataReq
	EventLPCtrlReq
)

// Message is one entry on the coordinator's message or retry queue,
// the port of fw_msg_t: an event plus whatever data it carries and,
// for a caller that wants to block for the result, a reply channel.
type Message struct {
	Event Event

	FreqID     wddr.PhyFrequencyId
	MSR        csr.MSR
	PhyupdType dfiupdate.PhyupdType

	reply chan wddr.Status
}

// Task is the PHY coordinator: message pump, retry queue, and the two
// sub-FSMs (freq-switch, dfi-update) it arbitrates between, plus the
// PHYMSTR request/grant tracking the dfiupdate port doesn't itself
// model (phy_task.c's dfiIdle/dfiPhyMstrPending/dfiPhyMstr states).
type Task struct {
	fsw    *freqswitch.FSM
	pll    *pll.FSM
	dfiUpd *dfiupdate.FSM
	bus    *notify.Bus

	mainQueue  chan *Message
	retryQueue []*Message
	rqReady    bool

	phymstr phymstrState
	ready   bool

	stop chan struct{}
}

type phymstrState int

const (
	phymstrIdle phymstrState = iota
	phymstrPending
	phymstrGranted
)

// Notification topics the PHYMSTR sub-state publishes, analogous to
// the freqswitch FSW_* topics.
const (
	NotifyPhymstrAck  = "PHYMSTR_ACK"
	NotifyPhymstrExit = "PHYMSTR_EXIT"
)

// queueDepth is the Go analogue of the original's bounded FreeRTOS
// message queue length; a depth beyond what one event burst needs
// just delays back-pressure, so this is kept small and deliberate
// rather than unbounded.
const queueDepth = 8

// New constructs a Task wired to the frequency-switch FSM, the PLL
// FSM it feeds lock interrupts to, the dfi-update FSM, and the bus it
// publishes PHYMSTR notifications to. Callers should already have
// wired fsw's own FSW_* notifications to the same bus via
// freqswitch.WithNotifier.
func New(fsw *freqswitch.FSM, pllFSM *pll.FSM, dfiUpd *dfiupdate.FSM, bus *notify.Bus) *Task {
	return &Task{
		fsw:       fsw,
		pll:       pllFSM,
		dfiUpd:    dfiUpd,
		bus:       bus,
		mainQueue: make(chan *Message, queueDepth),
		stop:      make(chan struct{}),
	}
}

// Run is the coordinator's message pump, the port of firmwareTask: it
// drains the retry queue to exhaustion whenever rqReady is flagged,
// then blocks for the next main-queue message. Run returns when Stop
// is called.
func (t *Task) Run() {
	for {
		if t.rqReady {
			t.drainRetryQueue()
		}
		select {
		case <-t.stop:
			return
		case msg := <-t.mainQueue:
			t.handle(msg)
		}
	}
}

// Stop ends Run's loop after its current iteration.
func (t *Task) Stop() {
	close(t.stop)
}

// drainRetryQueue is the port of firmwareTask's "exhaust the retry
// queue" block: every queued message is re-dispatched; any that still
// retry are pushed back onto the tail, same as the original's FIFO
// requeue via xQueueSendToBack, by virtue of this running before any
// new message from this pass is considered.
func (t *Task) drainRetryQueue() {
	pending := t.retryQueue
	t.retryQueue = nil
	for _, msg := range pending {
		t.handle(msg)
	}
	t.rqReady = false
}

// Post enqueues msg and blocks until the coordinator has processed it
// (including any retry-queue cycles), returning its final status. The
// port of fw_phy_task_notify followed by the caller's
// xTaskNotifyWait.
func (t *Task) Post(msg Message) wddr.Status {
	msg.reply = make(chan wddr.Status, 1)
	t.mainQueue <- &msg
	return <-msg.reply
}

// PostAsync enqueues msg without waiting for a reply, the port of a
// fw_msg_t with xSender == NULL (the periodic calibration task's
// PHYMSTR_EXIT notification, which nothing waits on).
func (t *Task) PostAsync(msg Message) {
	t.mainQueue <- &msg
}

// handle is the port of firmwareHandleMessage: route the event,
// requeue on StatusRetry, otherwise reply to the sender if one is
// waiting.
func (t *Task) handle(msg *Message) {
	status := t.route(msg)
	if status == wddr.StatusRetry {
		t.retryQueue = append(t.retryQueue, msg)
		return
	}
	if msg.reply != nil {
		msg.reply <- status
	}
}

// route implements the fixed event routing table from base spec
// §4.8.
func (t *Task) route(msg *Message) wddr.Status {
	switch msg.Event {
	case EventBoot:
		return t.handleBoot()

	case EventPrep, EventInitStart, EventInitComplete,
		EventPLLInitLock, EventPLLLock, EventPLLLossLock:
		if t.dfiInCtrlupd() {
			return wddr.StatusRetry
		}
		return t.handleFreqSwitchEvent(msg)

	case EventPhyupdReq, EventPhymstrReq, EventPhymstrExit, EventPhymstrAck,
		EventPhymstrAbort, EventPhyupdAck, EventPhyupdAbort,
		EventCtrlupdAssert, EventCtrlupdDeassert:
		if t.fsw.State() != freqswitch.Idle {
			return wddr.StatusRetry
		}
		return t.handleDFIEvent(msg)

	case EventLPDataReq, EventLPCtrlReq:
		return wddr.StatusError

	default:
		return wddr.StatusError
	}
}

// dfiInCtrlupd reports whether the dfi-update FSM is inside a
// CTRLUPD window (base spec §4.8: "dfi.state == CTRLUPD → retry"),
// blocking freq-switch events until the controller-initiated window
// finishes.
func (t *Task) dfiInCtrlupd() bool {
	switch t.dfiUpd.State() {
	case dfiupdate.Cal, dfiupdate.CtrlupdWait:
		return true
	default:
		return false
	}
}

// handleBoot is the port of handle_start_event: BOOT is a one-shot,
// a second call is a hard rejection.
func (t *Task) handleBoot() wddr.Status {
	if t.ready {
		return wddr.StatusError
	}
	t.ready = true
	return wddr.StatusSuccess
}

func (t *Task) handleFreqSwitchEvent(msg *Message) wddr.Status {
	switch msg.Event {
	case EventPrep:
		return t.fsw.Prep(freqswitch.PrepRequest{FreqID: msg.FreqID, MSR: msg.MSR})
	case EventInitStart:
		t.fsw.OnInitStart()
		return wddr.StatusSuccess
	case EventInitComplete:
		return t.fsw.OnInitComplete()
	case EventPLLInitLock:
		return t.pll.OnInitialSwitchDone()
	case EventPLLLock:
		status := t.pll.OnCoreLocked()
		if status == wddr.StatusSuccess {
			// Port of fsw_post_switch_handler: entering POST_SWITCH
			// flags rq_ready so anything retry-blocked on fsw not being
			// IDLE (the DFI-sideband events) gets another look.
			t.rqReady = true
		}
		return status
	case EventPLLLossLock:
		return t.pll.OnLossOfLock()
	default:
		return wddr.StatusError
	}
}

func (t *Task) handleDFIEvent(msg *Message) wddr.Status {
	switch msg.Event {
	case EventPhyupdReq:
		return t.dfiUpd.RequestUpdate(msg.PhyupdType)
	case EventPhyupdAck:
		return t.dfiUpd.OnPhyupdAck()
	case EventCtrlupdAssert:
		return t.dfiUpd.OnCtrlupdAssert()
	case EventCtrlupdDeassert:
		status := t.dfiUpd.OnCtrlupdDeassert()
		if status == wddr.StatusSuccess {
			// Port of dfi_ctrlupd_exit_handler: leaving CTRLUPD flags
			// rq_ready so anything retry-blocked on dfiUpd being in
			// CAL/CTRLUPD_WAIT (the freq-switch events) gets another
			// look.
			t.rqReady = true
		}
		return status
	case EventPhymstrReq:
		return t.onPhymstrReq()
	case EventPhymstrAck:
		return t.onPhymstrAck()
	case EventPhymstrAbort:
		return t.onPhymstrAbort()
	case EventPhymstrExit:
		return t.onPhymstrExit()
	case EventPhyupdAbort:
		// phy_task.c's dfi FSM has no software abort path for an
		// in-flight PHYUPD request distinct from the controller's own
		// ACK/timeout; treated as a hard rejection rather than
		// fabricating a transition the ported dfiupdate.FSM doesn't
		// have.
		return wddr.StatusError
	default:
		return wddr.StatusError
	}
}

// onPhymstrReq is the port of entering dfiPhyMstrPending: only legal
// from IDLE (the PLL interrupt lines this FSM shares with PHYUPD must
// be quiescent — already guaranteed by route's fsw.State() guard).
func (t *Task) onPhymstrReq() wddr.Status {
	if t.phymstr != phymstrIdle {
		return wddr.StatusError
	}
	t.phymstr = phymstrPending
	return wddr.StatusSuccess
}

// onPhymstrAck is the port of dfiPhyMstrPending's PHYMSTR_ACK
// transition into dfiPhyMstr, notifying any waiter (the periodic
// calibration task's vWaitForCompletion).
func (t *Task) onPhymstrAck() wddr.Status {
	if t.phymstr != phymstrPending {
		return wddr.StatusError
	}
	t.phymstr = phymstrGranted
	if t.bus != nil {
		t.bus.Notify(NotifyPhymstrAck)
	}
	return wddr.StatusSuccess
}

// onPhymstrAbort is the port of dfi_phymstr_abort: the memory
// controller couldn't grant PHYMSTR (init_start raced phymstr_req),
// so the request is withdrawn back to IDLE.
func (t *Task) onPhymstrAbort() wddr.Status {
	if t.phymstr == phymstrIdle {
		return wddr.StatusError
	}
	t.phymstr = phymstrIdle
	return wddr.StatusSuccess
}

// onPhymstrExit is the port of dfi_phymstr_exit_handler: leave
// PHYMSTR back to IDLE once the caller (training, in practice) is
// done using the bus.
func (t *Task) onPhymstrExit() wddr.Status {
	if t.phymstr != phymstrGranted {
		return wddr.StatusError
	}
	t.phymstr = phymstrIdle
	if t.bus != nil {
		t.bus.Notify(NotifyPhymstrExit)
	}
	return wddr.StatusSuccess
}

// InPhymstr reports whether the coordinator currently holds PHYMSTR
// control, the Go analogue of phy_task.c's
// "fw_manager.fsm.dfi.currentState != &dfiPhyMstr" checks.
func (t *Task) InPhymstr() bool {
	return t.phymstr == phymstrGranted
}

// PeriodicCalConfig configures RunPeriodicCal.
type PeriodicCalConfig struct {
	// Period between calibration attempts, the port of
	// PERIODIC_CAL_PERIOD.
	Period time.Duration
	// Session runs the baseline write/read check once PHYMSTR is
	// granted.
	Session *training.Session
	// Channel/FreqID identify what BaselineWriteRead checks
	// post-calibration, this port's stand-in for the original's
	// "TODO: DRAM Calibration or Training goes here".
	Channel int
	FreqID  wddr.PhyFrequencyId
}

// RunPeriodicCal is the optional periodic calibration task (base spec
// §4.8, CONFIG_CAL_PERIODIC), the port of firmwarePeriodicCalTask: on
// every tick, request PHYMSTR, and if granted, run a baseline
// write/read check before exiting PHYMSTR. It returns when stop is
// closed.
func RunPeriodicCal(t *Task, cfg PeriodicCalConfig, stop <-chan struct{}) {
	ticker := time.NewTicker(cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			runPeriodicCalCycle(t, cfg)
		}
	}
}

// phymstrAckTimeout bounds runPeriodicCalCycle's wait for the memory
// controller's PHYMSTR_ACK, the port of vWaitForCompletion's
// otherwise-unbounded wait — bounded here so a controller that never
// acknowledges doesn't wedge the calibration ticker forever.
const phymstrAckTimeout = 50 * time.Millisecond

func runPeriodicCalCycle(t *Task, cfg PeriodicCalConfig) {
	// Try again later (port of the dfi-FSM-not-IDLE continue).
	if t.fsw.State() != freqswitch.Idle {
		return
	}

	status := t.Post(Message{Event: EventPhymstrReq})
	if status != wddr.StatusSuccess {
		return
	}

	// Block until PHYMSTR_ACK actually lands (the port of
	// vWaitForCompletion), not just until the request was accepted
	// into the pending sub-state.
	if t.bus == nil || !t.bus.Wait(NotifyPhymstrAck, phymstrAckTimeout) {
		return
	}
	if !t.InPhymstr() {
		// Aborted before the controller acknowledged.
		return
	}

	if cfg.Session != nil {
		cfg.Session.BaselineWriteRead(cfg.Channel, cfg.FreqID)
	}

	t.PostAsync(Message{Event: EventPhymstrExit})
}
