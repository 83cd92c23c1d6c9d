package dfi

import (
	"sync"

	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// NumPhases is the maximum number of DFI sub-phases a TX/RX data
// packet can carry, the port of PACKET_MAX_NUM_PHASES.
const NumPhases = 8

// dfiPackCKEVal is the CKE pattern driven on CK/CKE packets, the port
// of DFI_PACK_CKE_VAL = (WDDR_PHY_RANK << 1) - 1.
const dfiPackCKEVal = uint8(wddr.NumRanks<<1) - 1

// TxPacket is one DFI TX packet: a CA-bus command frame plus the
// per-phase write-data payload for both DQ bytes. Ported from
// dfi_tx_packet_desc_t, with the raw bitfield layout replaced by
// plain per-phase arrays — this firmware never DMAs the struct
// directly to the FIFO the way the C port does, so there is no
// packing requirement to preserve.
type TxPacket struct {
	Time uint16

	DCE     [MaxCommandFrames]bool
	CKE     [MaxCommandFrames]uint8
	CS      [MaxCommandFrames]uint8
	Address [MaxCommandFrames]uint8

	WrData     [wddr.NumDqBytes][NumPhases]uint8
	WrDataMask [wddr.NumDqBytes][NumPhases]bool
	WrDataEn   [NumPhases]bool
	WrDataCS   [NumPhases]uint8

	RdDataEn [NumPhases]bool
	RdDataCS [NumPhases]uint8
}

// RxPacket is one received DFI RX packet: per-phase read data, DBI,
// and valid bits for both DQ bytes. Ported from dfi_rx_packet_desc_t.
type RxPacket struct {
	Time uint16

	RdData      [wddr.NumDqBytes][NumPhases]uint8
	RdDataDBI   [wddr.NumDqBytes][NumPhases]bool
	RdDataValid [wddr.NumDqBytes][NumPhases]bool
}

// DataMask selects which phases dfi_rx_packet_buffer_data_compare's
// Go port, CompareReceivedData, should check — ported from
// packet_data_mask_t.
type DataMask uint8

const (
	MaskEven DataMask = 1 << iota
	MaskOdd
	MaskBoth = MaskEven | MaskOdd
)

// PacketList is an in-memory, time-ordered queue of TX packets
// awaiting flush to the DFI hardware FIFO, the Go port of
// dfi_tx_packet_buffer_t (a FreeRTOS linked list here replaced with a
// plain slice — single-owner, coordinator-context only, so no
// concurrent-list discipline is needed beyond the mutex already
// guarding every mutation).
//
// tsLastPacket caches the last appended packet's timestamp so that
// append-relative offsets compose. Timestamps within one list increase
// strictly only while every timeOffset is at least 1: a timeOffset of
// 0 is not rejected, and the appended packet then reuses the previous
// packet's timestamp.
type PacketList struct {
	mu           sync.Mutex
	packets      []*TxPacket
	tsLastPacket uint16
}

// NewPacketList returns an empty list, the port of
// dfi_tx_packet_buffer_init.
func NewPacketList() *PacketList {
	return &PacketList{tsLastPacket: 1}
}

// Reset discards every queued packet, the port of
// dfi_tx_packet_buffer_free.
func (l *PacketList) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.packets = nil
	l.tsLastPacket = 1
}

// Packets returns the queued packets in timestamp order. The returned
// slice aliases the list's storage and must not be mutated by the
// caller.
func (l *PacketList) Packets() []*TxPacket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.packets
}

func (l *PacketList) push(p *TxPacket) {
	l.packets = append(l.packets, p)
}

// CreateCKPacketSequence appends a single CK-toggle-only packet
// (DCE asserted on every frame, no command), the port of
// create_ck_packet_sequence.
func (l *PacketList) CreateCKPacketSequence(timeOffset uint16) wddr.Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := &TxPacket{}
	t := timeOffset + l.tsLastPacket
	for i := range p.DCE {
		p.DCE[i] = true
	}
	p.Time = t
	l.tsLastPacket = t
	l.push(p)
	return wddr.StatusSuccess
}

// CreateCKEPacketSequence appends a packet asserting both DCE and CKE
// on every frame, the port of create_cke_packet_sequence.
func (l *PacketList) CreateCKEPacketSequence(timeOffset uint16) wddr.Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := &TxPacket{}
	t := timeOffset + l.tsLastPacket
	for i := range p.DCE {
		p.DCE[i] = true
		p.CKE[i] = dfiPackCKEVal
	}
	p.Time = t
	l.tsLastPacket = t
	l.push(p)
	return wddr.StatusSuccess
}

// CreateAddressPacketSequence lays a Command's CA frames out into
// ratio-dependent DFI packets (one packet per DRAM cycle at 1:1,
// folding two CA frames per packet at 1:2/1:4), the port of
// create_address_packet_sequence.
func (l *PacketList) CreateAddressPacketSequence(ratio wddr.FreqRatio, cmd Command, timeOffset uint16) wddr.Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	numPackets := ratio.NumCommandFrames()
	t := timeOffset + l.tsLastPacket
	phaseOffset := 0

	for i := 0; i < numPackets; i++ {
		p := &TxPacket{}
		for f := range p.DCE {
			p.DCE[f] = true
			p.CKE[f] = dfiPackCKEVal
		}

		p.CS[0] = cmd.Address[phaseOffset].CS
		p.CS[1] = cmd.Address[phaseOffset].CS
		p.Address[0] = cmd.Address[phaseOffset].CAPins
		phaseOffset++

		if ratio == wddr.Ratio1to2 {
			p.CS[2] = cmd.Address[phaseOffset].CS
			p.CS[3] = cmd.Address[phaseOffset].CS
			p.Address[2] = cmd.Address[phaseOffset].CAPins
			phaseOffset++
		}

		p.Time = t
		l.push(p)
		t++
	}

	l.tsLastPacket = t - 1
	return wddr.StatusSuccess
}

// CreateMRWPacketSequence builds a MODE REGISTER WRITE command and
// lays it into the packet list, the port of
// create_mrw_packet_sequence.
func (l *PacketList) CreateMRWPacketSequence(ratio wddr.FreqRatio, cs ChipSelect, register, op uint8, timeOffset uint16) wddr.Status {
	cmd, ok := NewMRWCommand(cs, register, op)
	if !ok {
		return wddr.StatusError
	}
	return l.CreateAddressPacketSequence(ratio, cmd, timeOffset)
}

// extractPacketData pulls one DQ byte's per-phase read data out of an
// RxPacket, the port of extract_packet_data.
func extractPacketData(rx *RxPacket, dqByte int, phases int) [NumPhases]uint8 {
	var out [NumPhases]uint8
	for i := 0; i < phases; i++ {
		out[i] = rx.RdData[dqByte][i]
	}
	return out
}

// compareReceivedData checks received against expected over the
// phases data_mask selects, the port of compare_received_data.
func compareReceivedData(received [NumPhases]uint8, expected []uint8, phases int, mask DataMask) bool {
	step := 2
	if mask == MaskBoth {
		step = 1
	}
	start := 1
	if mask&MaskEven != 0 {
		start = 0
	}
	for i := start; i < phases; i += step {
		if i >= len(expected) {
			break
		}
		if expected[i] != received[i] {
			return false
		}
	}
	return true
}

// CompareReceivedData compares a buffer of received RX packets
// against expected per-phase data for one DQ byte, the port of
// dfi_rx_packet_buffer_data_compare.
func CompareReceivedData(buf []RxPacket, expected []uint8, dqByte int, mask DataMask, phases int) bool {
	for i, rx := range buf {
		off := i * phases
		if off >= len(expected) {
			break
		}
		got := extractPacketData(&rx, dqByte, phases)
		end := off + phases
		if end > len(expected) {
			end = len(expected)
		}
		if !compareReceivedData(got, expected[off:end], phases, mask) {
			return false
		}
	}
	return true
}
