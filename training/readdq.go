package training

import (
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// Shared write/read FIFO timing constants, the port of
// WRITE_LATENCY/BL/TWTR (read.c and write.c both define and use the
// same values around their WRFIFO/RDFIFO sequences).
const (
	writeLatency = 4
	burstLength  = 16
	twtr         = 8
)

// testPattern32 is the 32-byte incrementing test pattern every
// FIFO-based training routine writes and checks for, the port of
// rd_dq_src/dq_dqs_src.
var testPattern32 = func() []uint8 {
	p := make([]uint8, 32)
	for i := range p {
		p[i] = uint8(i)
	}
	return p
}()

// DefaultRDDQVrefRange/DefaultRDDQRcvrRange/DefaultRDDQCycRange are
// the default Read DQ training sweep axes.
var (
	DefaultRDDQVrefRange = Range{Start: 0, Stop: 64, Step: 2}
	DefaultRDDQRcvrRange = Range{Start: 0, Stop: 64, Step: 2}
	DefaultRDDQCycRange  = Range{Start: 0, Stop: 4, Step: 1}
)

// fillWriteData stamps pattern into the WrData phases of the
// numCmdPackets packets a WRFIFO CreateAddressPacketSequence call just
// pushed, the port of create_data_frame + create_wrfifo_packet_sequence's
// data-phase fill.
func fillWriteData(list *dfi.PacketList, dqByte int, pattern []uint8, numCmdPackets int) {
	packets := list.Packets()
	start := len(packets) - numCmdPackets
	if start < 0 {
		start = 0
	}
	idx := 0
	for i := start; i < len(packets); i++ {
		p := packets[i]
		for ph := 0; ph < dfi.NumPhases && idx < len(pattern); ph++ {
			p.WrData[dqByte][ph] = pattern[idx]
			p.WrDataEn[ph] = true
			idx++
		}
	}
}

// writeReadFIFOSequence is the port of the WRFIFO+CKE+RDFIFO+CKE
// packet quartet every FIFO-pattern training routine builds
// (create_wrfifo_packet_sequence/create_rdfifo_packet_sequence).
func (s *Session) writeReadFIFOSequence(dqByte int, wrOffset uint16) *dfi.PacketList {
	ratio := s.ratio()
	numCmdPackets := ratio.NumCommandFrames()

	list := dfi.NewPacketList()
	list.CreateAddressPacketSequence(ratio, dfi.NewWriteFIFOCommand(dfi.CS0), wrOffset)
	fillWriteData(list, dqByte, testPattern32, numCmdPackets)
	list.CreateCKEPacketSequence(1)
	list.CreateAddressPacketSequence(ratio, dfi.NewReadFIFOCommand(dfi.CS0), writeLatency+burstLength+twtr+1)
	list.CreateCKEPacketSequence(1)
	return list
}

func (s *Session) numReadPackets() int {
	if s.ratio() == wddr.Ratio1to1 {
		return 8
	}
	return 4
}

// readDqSweep drives the receiver-delay x VREF grid for one cycle
// offset and records where the read-back FIFO pattern matches what
// was written, the port of read_dq_sweep.
func (s *Session) readDqSweep(ch, dqByte int, vrefRange, rcvrRange Range) Bitmap {
	cols := rcvrRange.StepCount()
	result := NewBitmap(vrefRange.StepCount())
	list := s.writeReadFIFOSequence(dqByte, 0)
	numPackets := s.numReadPackets()

	for row, vref := 0, vrefRange.Start; vref < vrefRange.Stop; row, vref = row+1, vref+vrefRange.Step {
		s.Regs.SetVrefCode(ch, dqByte, uint16(vref))

		for x, rcvr := 0, rcvrRange.Start; x < cols && rcvr < rcvrRange.Stop; x, rcvr = x+1, rcvr+rcvrRange.Step {
			s.Regs.SetReceiverDelay(ch, dqByte, true, uint16(rcvr))
			s.Regs.SetReceiverDelay(ch, dqByte, false, uint16(rcvr))

			s.resetRxFIFO(ch)
			s.flush(ch, list)
			s.Engines[ch].DrainEG()

			if dfi.CompareReceivedData(s.Engines[ch].Received(), testPattern32, dqByte, dfi.MaskBoth, numPackets) {
				result.Set(row, x)
			}
			s.Engines[ch].ClearReceived()
		}
	}
	return result
}

// ReadDQTrain finds the receiver-delay/VREF operating point with the
// widest passing eye, the port of read_dq_training. It repeats the
// same fixed-timing sweep once per step of cycRange; the cycle offset
// is not applied to the read sequence, and no cycle offset is chosen
// or committed.
func (s *Session) ReadDQTrain(ch, dqByte int, freqID wddr.PhyFrequencyId, vrefRange, rcvrRange, cycRange Range) wddr.Status {
	entry := s.Dev.Table.Get(freqID)
	if entry == nil {
		return wddr.StatusError
	}

	var bestFOM int
	var bestRcvr, bestVref int
	first := true

	for cyc := cycRange.Start; cyc < cycRange.Stop<<uint(s.ratio()); cyc += cycRange.Step {
		// cyc folds into the WRFIFO command's timeOffset in the
		// original (dq_dqs_sweep's wr_offset); read_dq_sweep here
		// instead re-runs the fixed-timing sequence once per step and
		// keeps the receiver/VREF point of the widest eye seen.
		result := s.readDqSweep(ch, dqByte, vrefRange, rcvrRange)
		rect := MaxRect(result, rcvrRange.StepCount())
		if first || rect.Area() >= bestFOM {
			first = false
			bestFOM = rect.Area()
			bestRcvr = rcvrRange.Midpoint(rect.OriginX, rect.W)
			bestVref = vrefRange.Midpoint(rect.OriginY, rect.H)
		}
	}

	byteState := entry.Channels[ch].Byte(dqByte)
	byteState.Receiver[0].DelayT = uint16(bestRcvr)
	byteState.Receiver[0].DelayC = uint16(bestRcvr)
	byteState.VrefCode = uint16(bestVref)

	s.Regs.SetReceiverDelay(ch, dqByte, true, uint16(bestRcvr))
	s.Regs.SetReceiverDelay(ch, dqByte, false, uint16(bestRcvr))
	s.Regs.SetVrefCode(ch, dqByte, uint16(bestVref))

	// The original mirrors Channel 0's result onto Channel 1 rather
	// than training it independently ("TODO: remove hack" in
	// read_dq_training); preserved here for fidelity.
	if ch == 0 {
		mirror := entry.Channels[1].Byte(dqByte)
		mirror.Receiver[0].DelayT = uint16(bestRcvr)
		mirror.Receiver[0].DelayC = uint16(bestRcvr)
		mirror.VrefCode = uint16(bestVref)
		s.Regs.SetReceiverDelay(1, dqByte, true, uint16(bestRcvr))
		s.Regs.SetReceiverDelay(1, dqByte, false, uint16(bestRcvr))
		s.Regs.SetVrefCode(1, dqByte, uint16(bestVref))
	}

	return wddr.StatusSuccess
}
