package dfi

import "github.com/waviousllc/wav-lpddr-sw-sub000/wddr"

// Engine is the per-channel DFI packet/FIFO engine (base spec
// component C3): it owns the TX PacketList software queue and drives
// packets through the hardware IG FIFO, then drains the EG FIFO back
// into an RX buffer for training comparisons.
type Engine struct {
	TX  *PacketList
	FIFO *FIFO

	rx []RxPacket
}

// NewEngine constructs an Engine bound to one channel's FIFO register
// interface.
func NewEngine(fifo *FIFO) *Engine {
	return &Engine{TX: NewPacketList(), FIFO: fifo}
}

// Flush pushes every packet currently queued in TX into the IG FIFO
// in timestamp order, then strobes SendPackets, the port of the
// phy_task-level call sequence around dfi_fifo_write_ig_reg_if and
// dfi_fifo_send_packets_reg_if.
func (e *Engine) Flush() wddr.Status {
	for _, p := range e.TX.Packets() {
		if err := e.FIFO.WriteIG(p.Encode()); err != nil {
			return wddr.StatusRetry
		}
	}
	e.FIFO.SendPackets()
	e.TX.Reset()
	return wddr.StatusSuccess
}

// DrainEG reads every packet currently available in the EG FIFO into
// the engine's RX buffer, stopping at ErrFIFOEmpty or FIFODepth
// packets, whichever comes first.
func (e *Engine) DrainEG() wddr.Status {
	for i := 0; i < FIFODepth; i++ {
		words, err := e.FIFO.ReadEG()
		if err == ErrFIFOEmpty {
			break
		}
		if err != nil {
			return wddr.StatusError
		}
		e.rx = append(e.rx, DecodeRxPacket(words))
	}
	return wddr.StatusSuccess
}

// Received returns the RX packets accumulated by DrainEG since the
// last ClearReceived.
func (e *Engine) Received() []RxPacket {
	return e.rx
}

// ClearReceived discards the accumulated RX buffer, readying the
// engine for the next training comparison.
func (e *Engine) ClearReceived() {
	e.rx = nil
}
