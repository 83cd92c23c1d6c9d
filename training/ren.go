package training

import (
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// renPICodeMax bounds the REN phase interpolator's code space; the
// original header declaring the real hardware constant was not part
// of the retrieval pack, so this is inferred from every REN sweep
// wrapping its relative PI offset modulo "the PI code range" and
// chosen to match the other PI domains' 0-127 code width.
const renPICodeMax = 128

// DefaultRENCycRange/DefaultRENPIRange are the default REN training
// sweep axes: cycle offset (DRAM-domain delay) and PI code relative to
// the alignment point alignRenPI finds.
var (
	DefaultRENCycRange = Range{Start: 0, Stop: 4, Step: 1}
	DefaultRENPIRange  = Range{Start: -16, Stop: 16, Step: 1}
)

// alignRenPI walks the REN PI code forward until the PHY samples the
// REN window's rising edge, then continues until it samples the
// falling edge again, the port of align_ren_pi. The falling-edge code
// is the sweep's center reference point.
func (s *Session) alignRenPI(ch, dqByte int) uint16 {
	var code uint16
	for !s.Regs.RenPIPhaseHigh(ch, dqByte) && code < renPICodeMax {
		code++
		s.Regs.SetRenPICode(ch, dqByte, code)
	}
	for s.Regs.RenPIPhaseHigh(ch, dqByte) && code < 2*renPICodeMax {
		code++
		s.Regs.SetRenPICode(ch, dqByte, code%renPICodeMax)
	}
	return code % renPICodeMax
}

// renSweep sweeps REN PI code relative to baseCode across a small
// window, for each of a handful of cycle offsets, recording where an
// RDDQ read-back matches the test pattern, the port of ren_sweep.
func (s *Session) renSweep(ch, dqByte int, baseCode uint16, cycRange, piRange Range) Bitmap {
	cols := piRange.StepCount()
	result := NewBitmap(cycRange.StepCount())
	numPackets := s.numReadPackets()

	for row, cyc := 0, cycRange.Start; cyc < cycRange.Stop; row, cyc = row+1, cyc+cycRange.Step {
		list := dfi.NewPacketList()
		list.CreateAddressPacketSequence(s.ratio(), dfi.NewReadDQCommand(dfi.CS0), uint16(cyc+1))
		list.CreateCKEPacketSequence(1)

		for x, pi := 0, piRange.Start; x < cols && pi < piRange.Stop; x, pi = x+1, pi+piRange.Step {
			code := (int(baseCode) + pi + renPICodeMax) % renPICodeMax
			s.Regs.SetRenPICode(ch, dqByte, uint16(code))

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

// RENTrain aligns the REN (read-enable) strobe against the DRAM's
// read data by locating the PI edge alignment and then the cycle
// offset whose 1-D eye window is widest, converting that winning
// delay into the PHY's SDR pipeline encoding, the port of
// ren_training.
func (s *Session) RENTrain(ch, dqByte int, freqID wddr.PhyFrequencyId, cycRange, piRange Range) wddr.Status {
	entry := s.Dev.Table.Get(freqID)
	if entry == nil {
		return wddr.StatusError
	}

	baseCode := s.alignRenPI(ch, dqByte)
	result := s.renSweep(ch, dqByte, baseCode, cycRange, piRange)

	var bestRow, bestW int
	best := Rect{}
	for row := range result {
		w := Window(result[row], piRange.StepCount())
		if w.W > best.W {
			best = w
			bestRow = row
			bestW = w.W
		}
	}
	_ = bestW

	renCode := (int(baseCode) + piRange.Midpoint(best.OriginX, best.W) + renPICodeMax) % renPICodeMax
	delayCycles := cycRange.Start + bestRow*cycRange.Step
	if delayCycles < 0 {
		delayCycles = 0
	}
	pipeEn, xSel := ConvertDRAMDelayToSDRDelay(delayCycles, s.ratio().CyclesPerPacket())
	fcDelay := uint8(delayCycles)

	apply := func(c, d int) {
		byteState := entry.Channels[c].Byte(d)
		byteState.Pipeline.IE = wddr.SDRPipeline{FCDelay: fcDelay, PipeEn: pipeEn, XSel: xSel}
		byteState.Pipeline.RE = wddr.SDRPipeline{FCDelay: fcDelay, PipeEn: pipeEn, XSel: xSel}
		byteState.Pipeline.REN = wddr.SDRPipeline{FCDelay: fcDelay, PipeEn: pipeEn, XSel: xSel}
		byteState.DqsPI.Domain(wddr.PIDomainREN).Code = uint16(renCode)

		s.Regs.SetPipelineDelay(c, d, SliceIE, fcDelay, pipeEn, xSel)
		s.Regs.SetPipelineDelay(c, d, SliceRE, fcDelay, pipeEn, xSel)
		s.Regs.SetPipelineDelay(c, d, SliceREN, fcDelay, pipeEn, xSel)
		s.Regs.SetRenPICode(c, d, uint16(renCode))
	}

	apply(ch, dqByte)
	// Mirrored onto Channel 1 in the original rather than trained
	// independently ("TODO: remove hack" in ren_training).
	if ch == 0 {
		apply(1, dqByte)
	}
	return wddr.StatusSuccess
}
