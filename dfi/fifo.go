package dfi

import (
	"errors"

	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// FIFODepth is the hardware IG/EG FIFO depth in packets, the port of
// DFI_FIFO_DEPTH.
const FIFODepth = 64

// dfiFifoStateEmpty/Full are the status-register bit values read back
// from the FIFO state field, ported from DFI_FIFO_STATE_EMPTY/FULL.
const (
	dfiFifoStateEmpty = 1
	dfiFifoStateFull  = 2
)

// cmdWords is the number of 32-bit words the CA-bus frame portion of
// a packet occupies: one word of DCE/CKE/CS bits, one word of
// 4x7-bit address fields, one word of the 16-bit timestamp.
const cmdWords = 3

// TxPacketSizeWords/RxPacketSizeWords are the number of 32-bit words
// one encoded packet occupies in the hardware FIFO: cmdWords command
// words plus one word per (DQ byte, phase) data slot. The original
// firmware DMAs dfi_tx_packet_t's raw_data union member directly;
// this port replaces that bit-packed union with an explicit word
// encoding (Encode/Decode below) since nothing outside this package
// ever needs the exact HW bit layout.
const (
	TxPacketSizeWords = cmdWords + wddr.NumDqBytes*NumPhases
	RxPacketSizeWords = cmdWords + wddr.NumDqBytes*NumPhases
)

// Encode packs a TxPacket into its FIFO word representation.
func (p *TxPacket) Encode() [TxPacketSizeWords]uint32 {
	var words [TxPacketSizeWords]uint32

	var w0 uint32
	for i := 0; i < MaxCommandFrames; i++ {
		if p.DCE[i] {
			w0 |= 1 << uint(i)
		}
		w0 |= uint32(p.CKE[i]&0x3) << uint(4+2*i)
		w0 |= uint32(p.CS[i]&0x3) << uint(12+2*i)
	}
	words[0] = w0

	var w1 uint32
	for i := 0; i < MaxCommandFrames; i++ {
		w1 |= uint32(p.Address[i]&0x7F) << uint(7*i)
	}
	words[1] = w1

	words[2] = uint32(p.Time)

	idx := cmdWords
	for b := 0; b < wddr.NumDqBytes; b++ {
		for ph := 0; ph < NumPhases; ph++ {
			w := uint32(p.WrData[b][ph])
			if p.WrDataMask[b][ph] {
				w |= 1 << 8
			}
			if p.WrDataEn[ph] {
				w |= 1 << 9
			}
			w |= uint32(p.WrDataCS[ph]&0x3) << 10
			if p.RdDataEn[ph] {
				w |= 1 << 12
			}
			w |= uint32(p.RdDataCS[ph]&0x3) << 13
			words[idx] = w
			idx++
		}
	}
	return words
}

// DecodeRxPacket unpacks a FIFO word representation back into an
// RxPacket.
func DecodeRxPacket(words [RxPacketSizeWords]uint32) RxPacket {
	var rx RxPacket
	rx.Time = uint16(words[2] & 0xFFFF)

	idx := cmdWords
	for b := 0; b < wddr.NumDqBytes; b++ {
		for ph := 0; ph < NumPhases; ph++ {
			w := words[idx]
			rx.RdData[b][ph] = uint8(w & 0xFF)
			rx.RdDataDBI[b][ph] = w&(1<<8) != 0
			rx.RdDataValid[b][ph] = w&(1<<9) != 0
			idx++
		}
	}
	return rx
}

// ErrFIFOFull and ErrFIFOEmpty report the HW FIFO status-register
// conditions dfi_fifo_write_ig_reg_if / dfi_fifo_read_eg_reg_if poll
// for before transferring data.
var (
	ErrFIFOFull  = errors.New("dfi: IG FIFO full")
	ErrFIFOEmpty = errors.New("dfi: EG FIFO empty")
)

// FIFO is the register interface to one channel's DFI hardware FIFO,
// the port of dfi_fifo.h's *_reg_if functions.
type FIFO struct {
	region *csr.Region

	fieldCARdataLoopback csr.Field
	fieldRdoutOvrSel     csr.Field
	fieldRdoutOvr        csr.Field
	fieldClockEn         csr.Field
	fieldBufferMode      csr.Field
	fieldWDataHold       csr.Field
	fieldSendPackets     csr.Field
	fieldStatus          csr.Field

	igBase csr.Addr
	egBase csr.Addr
}

// NewFIFO constructs a FIFO register interface over region, using the
// layout offsets below — relative to the channel's DFICH register
// block the way every other csr.Field in this module is.
func NewFIFO(region *csr.Region) *FIFO {
	return &FIFO{
		region:               region,
		fieldCARdataLoopback: csr.NewField(0x00, 0, 0),
		fieldRdoutOvrSel:     csr.NewField(0x00, 1, 1),
		fieldRdoutOvr:        csr.NewField(0x00, 2, 2),
		fieldClockEn:         csr.NewField(0x04, 0, 0),
		fieldBufferMode:      csr.NewField(0x04, 1, 1),
		fieldWDataHold:       csr.NewField(0x04, 2, 2),
		fieldSendPackets:     csr.NewField(0x08, 0, 0),
		fieldStatus:          csr.NewField(0x0C, 0, 1),
		igBase:               0x10,
		egBase:               0x10 + TxPacketSizeWords*4,
	}
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// EnableCARDataLoopback is the port of
// dfi_fifo_enable_ca_rdata_loopback_reg_if.
func (f *FIFO) EnableCARDataLoopback(enable bool) {
	f.fieldCARdataLoopback.Write(f.region, b2u(enable))
}

// SetRdoutEnOverride is the port of dfi_fifo_rdout_en_ovr_reg_if.
func (f *FIFO) SetRdoutEnOverride(sel, ovr bool) {
	f.fieldRdoutOvrSel.Write(f.region, b2u(sel))
	f.fieldRdoutOvr.Write(f.region, b2u(ovr))
}

// EnableClock is the port of dfi_fifo_enable_clock_reg_if. It resets
// the HW FIFO state.
func (f *FIFO) EnableClock() {
	f.fieldClockEn.Write(f.region, 1)
}

// SetMode is the port of dfi_fifo_set_mode_reg_if.
func (f *FIFO) SetMode(enable bool) {
	f.fieldBufferMode.Write(f.region, b2u(enable))
}

// SetWriteDataHold is the port of dfi_fifo_set_wdata_hold_reg_if:
// holds DFI signals at their last-sent packet's state while software
// prepares the next packet sequence.
func (f *FIFO) SetWriteDataHold(enable bool) {
	f.fieldWDataHold.Write(f.region, b2u(enable))
}

// SendPackets is the port of dfi_fifo_send_packets_reg_if. It sets
// the send bit and returns without polling for the IG FIFO to drain.
func (f *FIFO) SendPackets() {
	f.fieldSendPackets.Write(f.region, 1)
}

// WriteIG pushes one encoded TX packet into the IG FIFO, returning
// ErrFIFOFull if the status register reports FULL, the port of
// dfi_fifo_write_ig_reg_if.
func (f *FIFO) WriteIG(words [TxPacketSizeWords]uint32) error {
	if f.fieldStatus.Read(f.region) == dfiFifoStateFull {
		return ErrFIFOFull
	}
	for i, w := range words {
		f.region.Write(f.igBase+csr.Addr(i*4), w)
	}
	return nil
}

// ReadEG pops one encoded RX packet from the EG FIFO, returning
// ErrFIFOEmpty if the status register reports EMPTY, the port of
// dfi_fifo_read_eg_reg_if.
func (f *FIFO) ReadEG() ([RxPacketSizeWords]uint32, error) {
	var words [RxPacketSizeWords]uint32
	if f.fieldStatus.Read(f.region) == dfiFifoStateEmpty {
		return words, ErrFIFOEmpty
	}
	for i := range words {
		words[i] = f.region.Read(f.egBase + csr.Addr(i*4))
	}
	return words, nil
}
