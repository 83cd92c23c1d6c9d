package training

import (
	"time"

	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
	"github.com/waviousllc/wav-lpddr-sw-sub000/freqswitch"
	"github.com/waviousllc/wav-lpddr-sw-sub000/notify"
	"github.com/waviousllc/wav-lpddr-sw-sub000/pll"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// switchWaitTimeout bounds how long SwitchFrequency blocks waiting for
// the frequency-switch FSM to reach FSW_DONE/FSW_FAILED after handing
// it a software switch. The FSM's own watchdog
// (freqswitch.DefaultWatchdogPeriod, base spec §5)
// already bounds the hardware handshake; this is a second, generous
// backstop against a caller that forgot to wire interrupt delivery at
// all, so the training routine fails instead of hanging forever.
const switchWaitTimeout = 500 * time.Millisecond

// LPDDR4 mode-register numbers this package writes directly, the
// port of the register arguments dram_frequency_init/dram_cbt_enter/
// dram_vrcg_enable thread down to create_mrw_packet_sequence.
const (
	mr2  uint8 = 2
	mr12 uint8 = 12
	mr13 uint8 = 13
	mr14 uint8 = 14
)

// MR13 OP/WR-FSP, VRCG, and CBT bit positions (JEDEC 209-4C §4.3,
// MR13 "DBI-RD, CBT, VRCG, FSP-WR, FSP-OP").
const (
	mr13BitCBT   uint8 = 1 << 0
	mr13BitVrcg  uint8 = 1 << 3
	mr13BitFspWr uint8 = 1 << 6
	mr13BitFspOp uint8 = 1 << 7
)

// Session bundles everything a training routine needs: the device
// handle (for the frequency table and DRAM mirror state), one DFI
// packet engine per channel, the channel/byte register interface, and
// the frequency-switch machinery every routine uses to move between
// the boot frequency (stable command/MRW traffic) and the frequency
// under training.
type Session struct {
	Dev     *wddr.Device
	Engines [wddr.NumChannels]*dfi.Engine
	Regs    *Regs

	fsw      *freqswitch.FSM
	pll      *pll.FSM
	notifier *notify.Bus
}

// NewSession constructs a training session. bus must be the same
// notify.Bus fsw was constructed with via freqswitch.WithNotifier, so
// SwitchFrequency can block on the FSW_DONE/FSW_FAILED topics fsw
// publishes.
func NewSession(dev *wddr.Device, engines [wddr.NumChannels]*dfi.Engine, regs *Regs, fsw *freqswitch.FSM, p *pll.FSM, bus *notify.Bus) *Session {
	return &Session{Dev: dev, Engines: engines, Regs: regs, fsw: fsw, pll: p, notifier: bus}
}

func (s *Session) ratio() wddr.FreqRatio {
	return s.Dev.CurrentEntry().PLL.Ratio
}

// flush replaces channel ch's pending TX queue with list and sends it,
// the port of dfi_buffer_fill_packets + dfi_buffer_send_packets.
func (s *Session) flush(ch int, list *dfi.PacketList) wddr.Status {
	s.Engines[ch].TX = list
	return s.Engines[ch].Flush()
}

// resetRxFIFO is the port of reset_rx_fifo: drain and discard whatever
// the EG FIFO is currently holding before a fresh sweep step.
func (s *Session) resetRxFIFO(ch int) {
	s.Engines[ch].DrainEG()
	s.Engines[ch].ClearReceived()
}

// writeModeRegister is the port of the create_mrw_packet_sequence +
// create_cke_packet_sequence pair every dram_* helper in the original
// builds before handing the buffer to dfi_buffer_fill_and_send_packets.
func (s *Session) writeModeRegister(mr, op uint8) wddr.Status {
	list := dfi.NewPacketList()
	if st := list.CreateMRWPacketSequence(s.ratio(), dfi.CS0, mr, op, 1); st != wddr.StatusSuccess {
		return st
	}
	list.CreateCKEPacketSequence(1)
	return s.flush(0, list)
}

func (s *Session) mr13Value() uint8 {
	d := s.Dev.Dram
	var v uint8
	if d.FspWr != 0 {
		v |= mr13BitFspWr
	}
	if d.FspOp != 0 {
		v |= mr13BitFspOp
	}
	if d.Vrcg {
		v |= mr13BitVrcg
	}
	if d.CBTEnter {
		v |= mr13BitCBT
	}
	return v
}

// SetFspOp is the port of dram_set_fsp_op.
func (s *Session) SetFspOp(op uint8) wddr.Status {
	s.Dev.Dram.FspOp = op
	return s.writeModeRegister(mr13, s.mr13Value())
}

// SetFspWr is the port of dram_set_fsp_wr.
func (s *Session) SetFspWr(wr uint8) wddr.Status {
	s.Dev.Dram.FspWr = wr
	return s.writeModeRegister(mr13, s.mr13Value())
}

// EnableVrcg/DisableVrcg are the ports of dram_vrcg_enable/disable,
// used by DQ-DQS training to improve mode-register write margin.
func (s *Session) EnableVrcg() wddr.Status {
	s.Dev.Dram.Vrcg = true
	return s.writeModeRegister(mr13, s.mr13Value())
}

func (s *Session) DisableVrcg() wddr.Status {
	s.Dev.Dram.Vrcg = false
	return s.writeModeRegister(mr13, s.mr13Value())
}

// EnterCBT/ExitCBT are the ports of dram_cbt_enter/dram_cbt_exit.
func (s *Session) EnterCBT() wddr.Status {
	s.Dev.Dram.CBTEnter = true
	return s.writeModeRegister(mr13, s.mr13Value())
}

func (s *Session) ExitCBT() wddr.Status {
	s.Dev.Dram.CBTEnter = false
	return s.writeModeRegister(mr13, s.mr13Value())
}

// WriteModeRegister2 is the port of dram_write_mode_register_2, used
// by write-level training to set/clear the WRLVL enable bit.
func (s *Session) WriteModeRegister2(value uint8) wddr.Status {
	return s.writeModeRegister(mr2, value)
}

// WriteModeRegister14 is the port of dram_write_mode_register_14,
// used by DQ/DQS training to step the DRAM's receive VREF.
func (s *Session) WriteModeRegister14(value uint8) wddr.Status {
	return s.writeModeRegister(mr14, value)
}

// FrequencyInit is the port of dram_frequency_init: re-send every mode
// register for freq_id's table entry so the DRAM picks up calibrated
// values after a sweep.
func (s *Session) FrequencyInit(id wddr.PhyFrequencyId) wddr.Status {
	entry := s.Dev.Table.Get(id)
	if entry == nil {
		return wddr.StatusError
	}
	regs := []struct {
		mr, val uint8
	}{
		{1, entry.Dram.MR1}, {mr2, entry.Dram.MR2}, {11, entry.Dram.MR11},
		{mr12, entry.Dram.MR12}, {mr13, entry.Dram.MR13}, {mr14, entry.Dram.MR14},
	}
	for _, r := range regs {
		if st := s.writeModeRegister(r.mr, r.val); st != wddr.StatusSuccess {
			return st
		}
	}
	return wddr.StatusSuccess
}

// powerDown is the port of dram_power_down: stop toggling CKE (a
// CK-only packet leaves CKE low on every frame).
func (s *Session) powerDown(ch int) wddr.Status {
	list := dfi.NewPacketList()
	list.CreateCKPacketSequence(1)
	return s.flush(ch, list)
}

// idle is the port of dram_idle: resume normal CKE-high traffic.
func (s *Session) idle(ch int) wddr.Status {
	list := dfi.NewPacketList()
	list.CreateCKEPacketSequence(1)
	return s.flush(ch, list)
}

// SwitchFrequency is the port of switch_frequency, minus the overlay
// plumbing (callers apply CBT/BSCAN register overlays themselves via
// Regs before calling this): power the DRAM down, prep and fire the
// frequency-switch FSM, and block on the notification bus until it
// settles in IDLE (FSW_DONE) or the error sink (FSW_FAILED) — the
// port of switch_frequency's blocking xWaitForNotification on the FSW
// completion topics, base spec §5 suspension point (b). The actual
// PLL lock interrupts that drive the FSM out of WAIT_FOR_LOCK arrive
// asynchronously from the coordinator, not from this call.
func (s *Session) SwitchFrequency(id wddr.PhyFrequencyId) wddr.Status {
	s.powerDown(0)

	req := freqswitch.PrepRequest{MSR: s.Dev.CurrentMSR().Other(), FreqID: id}
	if st := s.fsw.Prep(req); st != wddr.StatusSuccess {
		return st
	}
	if st := s.fsw.SwSwitch(); st != wddr.StatusSuccess {
		return st
	}
	if st := s.waitForSwitchDone(); st != wddr.StatusSuccess {
		return st
	}

	if s.Dev.Dram.CBTEnter {
		return s.powerDown(0)
	}
	return s.idle(0)
}

// waitForSwitchDone blocks until fsw publishes FSW_DONE or FSW_FAILED,
// or switchWaitTimeout elapses. A nil notifier (no bus wired) falls
// back to the FSM's already-settled state, for callers exercising the
// FSM fully synchronously.
func (s *Session) waitForSwitchDone() wddr.Status {
	if s.notifier == nil {
		if s.fsw.State() == freqswitch.Idle {
			return wddr.StatusSuccess
		}
		return wddr.StatusError
	}

	done := s.notifier.Subscribe(freqswitch.NotifyDone)
	defer s.notifier.Unsubscribe(freqswitch.NotifyDone, done)
	failed := s.notifier.Subscribe(freqswitch.NotifyFailed)
	defer s.notifier.Unsubscribe(freqswitch.NotifyFailed, failed)

	timer := time.NewTimer(switchWaitTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return wddr.StatusSuccess
	case <-failed:
		return wddr.StatusError
	case <-timer.C:
		return wddr.StatusError
	}
}
