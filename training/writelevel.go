package training

import (
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// writeLevelBitMask is the MR2 bit the DRAM uses to enter write
// leveling mode, the port of WRITE_LEVEL_BIT_MASK (bit 7).
const writeLevelBitMask uint8 = 1 << 7

// DefaultWriteLevelPIRange is the default DQS PI sweep axis for write
// leveling.
var DefaultWriteLevelPIRange = Range{Start: 0, Stop: 128, Step: 2}

// writeLevelSweep steps the DQS PI code and records, at each step,
// whether the DRAM's BSCAN readback samples all-ones (DQS captured
// high at the CK edge, the training's target alignment), the port of
// write_level_sweep.
func (s *Session) writeLevelSweep(ch, dqByte int, piRange Range) Bitmap {
	cols := piRange.StepCount()
	result := NewBitmap(1)

	list := dfi.NewPacketList()
	list.CreateCKEPacketSequence(1)

	for x, pi := 0, piRange.Start; x < cols && pi < piRange.Stop; x, pi = x+1, pi+piRange.Step {
		s.Regs.SetDqsPICode(ch, dqByte, uint16(pi))
		s.flush(ch, list)

		if s.Regs.ReadBscan(ch, dqByte) == 0xFF {
			result.Set(0, x)
		}
	}
	return result
}

// WriteLevelTrain aligns CK to DQS so DRAM samples DQS high at the CK
// edge (JEDEC write-leveling Case 1), the port of
// write_level_training.
func (s *Session) WriteLevelTrain(ch, dqByte int, freqID wddr.PhyFrequencyId, piRange Range) wddr.Status {
	entry := s.Dev.Table.Get(freqID)
	if entry == nil {
		return wddr.StatusError
	}
	mr2 := entry.Dram.MR2

	s.Regs.SetDriverDiffMode(ch, dqByte, true)
	s.Regs.SetDriverHiZ(ch, dqByte, true)
	s.Regs.SetDriverLoopback(ch, dqByte, true)

	if st := s.WriteModeRegister2(writeLevelBitMask | mr2); st != wddr.StatusSuccess {
		return st
	}

	result := s.writeLevelSweep(ch, dqByte, piRange)

	if st := s.WriteModeRegister2(mr2); st != wddr.StatusSuccess {
		return st
	}
	s.Regs.SetDriverLoopback(ch, dqByte, false)
	s.Regs.SetDriverHiZ(ch, dqByte, false)

	window := Window(result[0], piRange.StepCount())
	piCode := piRange.Midpoint(window.OriginX, window.W)
	s.Regs.SetDqsPICode(ch, dqByte, uint16(piCode))

	byteState := entry.Channels[ch].Byte(dqByte)
	byteState.DqsPI.Domain(piDomainForRatio(s.ratio())).Code = uint16(piCode)

	// Mirrored onto Channel 1 in the original rather than trained
	// independently ("TODO: Remove; this is a hack..." in
	// write_level_training).
	if ch == 0 {
		s.Regs.SetDqsPICode(1, dqByte, uint16(piCode))
		entry.Channels[1].Byte(dqByte).DqsPI.Domain(piDomainForRatio(s.ratio())).Code = uint16(piCode)
	}
	return wddr.StatusSuccess
}
