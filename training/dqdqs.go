package training

import (
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// DefaultDQDQSVrefRange/DefaultDQDQSPIRange/DefaultDQDQSCycRange are
// the default DQ/DQS training sweep axes.
var (
	DefaultDQDQSVrefRange = Range{Start: 0, Stop: 64, Step: 2}
	DefaultDQDQSPIRange   = Range{Start: 0, Stop: 128, Step: 4}
	DefaultDQDQSCycRange  = Range{Start: 0, Stop: 4, Step: 1}
)

// dqDqsSweep drives the DQ-VREF x DQ-PI grid for one write-to-read
// cycle offset, recording where the FIFO read-back matches the
// pattern written at that offset, the port of dq_dqs_sweep.
func (s *Session) dqDqsSweep(ch, dqByte int, wrOffset uint16, vrefRange, piRange Range) Bitmap {
	cols := piRange.StepCount()
	result := NewBitmap(vrefRange.StepCount())
	numPackets := s.numReadPackets()
	list := s.writeReadFIFOSequence(dqByte, wrOffset)

	for row, vref := 0, vrefRange.Start; vref < vrefRange.Stop; row, vref = row+1, vref+vrefRange.Step {
		s.WriteModeRegister14(uint8(vref))

		for x, pi := 0, piRange.Start; x < cols && pi < piRange.Stop; x, pi = x+1, pi+piRange.Step {
			s.Regs.SetDqPICode(ch, dqByte, uint16(pi))

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

// DQDQSTrain finds the DQ PI code and write-data pipeline delay that
// together produce the widest passing DQ-VREF x DQ-PI eye across a
// small range of write/read cycle offsets, the port of
// dq_dqs_training.
func (s *Session) DQDQSTrain(ch, dqByte int, freqID wddr.PhyFrequencyId, vrefRange, piRange, cycRange Range) wddr.Status {
	entry := s.Dev.Table.Get(freqID)
	if entry == nil {
		return wddr.StatusError
	}

	s.EnableVrcg()

	var bestFOM, bestDelay, bestPI int
	first := true
	for offset := cycRange.Start; offset < cycRange.Stop<<uint(s.ratio()); offset += cycRange.Step {
		result := s.dqDqsSweep(ch, dqByte, uint16(offset), vrefRange, piRange)
		rect := MaxRect(result, piRange.StepCount())
		if first || rect.Area() >= bestFOM {
			first = false
			bestFOM = rect.Area()
			bestDelay = offset
			bestPI = piRange.Midpoint(rect.OriginX, rect.W)
		}
	}

	s.DisableVrcg()

	s.Regs.SetDqPICode(ch, dqByte, uint16(bestPI))
	byteState := entry.Channels[ch].Byte(dqByte)
	byteState.DqPI.Domain(piDomainForRatio(s.ratio())).Code = uint16(bestPI)

	delay := bestDelay
	if delay < 0 {
		delay = 0
	}
	pipeEn, xSel := ConvertDRAMDelayToSDRDelay(delay, s.ratio().CyclesPerPacket())
	fcDelay := uint8(delay)

	byteState.WritePipeline = wddr.SDRPipeline{FCDelay: fcDelay, PipeEn: pipeEn, XSel: xSel}
	s.Regs.SetWritePipelineDelay(ch, dqByte, fcDelay, pipeEn, xSel)

	// Mirrored onto Channel 1 in the original rather than trained
	// independently ("TODO: Remove; this is a hack..." in
	// dq_dqs_training).
	if ch == 0 {
		mirror := entry.Channels[1].Byte(dqByte)
		mirror.DqPI.Domain(piDomainForRatio(s.ratio())).Code = uint16(bestPI)
		mirror.WritePipeline = byteState.WritePipeline
		s.Regs.SetDqPICode(1, dqByte, uint16(bestPI))
		s.Regs.SetWritePipelineDelay(1, dqByte, fcDelay, pipeEn, xSel)
	}
	return wddr.StatusSuccess
}
