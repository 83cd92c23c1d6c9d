package training

import (
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// caTestData is the CBT training pattern driven onto CA during the
// sweep, inverted every VREF step to exercise both command-bus
// polarities; the port of CA_TEST_DATA / command_address.
const caTestData uint8 = 0xA5

// caWidth/caMask are the CA bus width and its mask, the port of
// CA_WIDTH/CA_MASK.
const (
	caWidth = 6
	caMask  = 1<<caWidth - 1
)

// DefaultCBTPIRange/DefaultCBTVrefRange are the default command-bus
// training sweep axes; callers may override via CommandBusTrain's
// range arguments for a narrower bring-up sweep.
var (
	DefaultCBTPIRange   = Range{Start: 0, Stop: 64, Step: 2}
	DefaultCBTVrefRange = Range{Start: 0, Stop: 64, Step: 2}
)

// piDomainForRatio picks the DDR or QDR phase-interpolator domain a
// 1:1 vs 1:2 DFI ratio's PI code belongs in. Shared by every training
// routine that programs a CA/DQ/DQS PI code (command_bus_training,
// write_level_training both switch on wddr->dram.cfg->ratio the same
// way).
func piDomainForRatio(ratio wddr.FreqRatio) wddr.PIDomain {
	if ratio == wddr.Ratio1to1 {
		return wddr.PIDomainDDR
	}
	return wddr.PIDomainQDR
}

// commandBusSweep drives the CA PI x DRAM-VREF grid and records, for
// every point, whether the DRAM's BSCAN readback on DQ byte 1 matched
// the (polarity-inverted) CA test pattern driven that VREF step. The
// port of command_bus_sweep.
func (s *Session) commandBusSweep(ch int, piRange, vrefRange Range) Bitmap {
	cols := piRange.StepCount()
	result := NewBitmap(vrefRange.StepCount())
	address := caTestData

	for row, vref := 0, vrefRange.Start; vref < vrefRange.Stop; row, vref = row+1, vref+vrefRange.Step {
		address &= caMask

		for bit := 0; bit < 8; bit++ {
			s.Regs.SetDriverVrefOverride(0, 0, (uint8(vref)>>uint(bit))&0x1)
		}

		list := dfi.NewPacketList()
		list.CreateCKPacketSequence(1)
		cbtCmd := dfi.NewCBTCommand(dfi.CS0, address)
		list.CreateAddressPacketSequence(s.ratio(), cbtCmd, 1)

		for x, pi := 0, piRange.Start; x < cols && pi < piRange.Stop; x, pi = x+1, pi+piRange.Step {
			s.Regs.SetCaPICode(ch, uint16(pi))
			s.flush(ch, list)

			val := s.Regs.ReadBscan(ch, 1) & caMask
			if val == address {
				result.Set(row, x)
			}
		}
		address = ^address
	}
	return result
}

// CommandBusTrain aligns CK to CA by sweeping the CA-bus PI code
// against the DRAM's CA VREF setting and finding the widest eye where
// BSCAN readback matches the driven pattern, the port of
// command_bus_training.
func (s *Session) CommandBusTrain(ch int, freqID wddr.PhyFrequencyId, piRange, vrefRange Range) wddr.Status {
	entry := s.Dev.Table.Get(freqID)
	if entry == nil {
		return wddr.StatusError
	}

	currentFreq := s.Dev.CurrentFrequency()
	s.SetFspOp(0)
	if currentFreq != wddr.BootFrequencyId {
		if st := s.SwitchFrequency(wddr.BootFrequencyId); st != wddr.StatusSuccess {
			return st
		}
	}

	s.SetFspWr(1)
	if st := s.FrequencyInit(freqID); st != wddr.StatusSuccess {
		return st
	}

	for _, c := range [wddr.NumChannels]int{0, 1} {
		s.Regs.SetDriverHiZ(c, 1, true)
	}

	if st := s.EnterCBT(); st != wddr.StatusSuccess {
		return st
	}

	s.Regs.SetDriverDiffMode(0, 0, true)
	s.Regs.SetDriverDiffMode(0, 1, true)
	s.Regs.SetDriverLoopback(0, 1, true)

	if st := s.SwitchFrequency(freqID); st != wddr.StatusSuccess {
		return st
	}

	result := s.commandBusSweep(ch, piRange, vrefRange)

	if st := s.SwitchFrequency(wddr.BootFrequencyId); st != wddr.StatusSuccess {
		return st
	}
	if st := s.ExitCBT(); st != wddr.StatusSuccess {
		return st
	}

	rect := MaxRect(result, piRange.StepCount())
	caPICode := piRange.Midpoint(rect.OriginX, rect.W)
	caVref := vrefRange.Midpoint(rect.OriginY, rect.H)

	s.Regs.SetCaPICode(ch, uint16(caPICode))
	entry.Channels[ch].CaPI.Domain(piDomainForRatio(s.ratio())).Code = uint16(caPICode)
	entry.Dram.MR12 = uint8(caVref)

	if st := s.FrequencyInit(freqID); st != wddr.StatusSuccess {
		return st
	}
	s.SetFspOp(1)
	return s.SwitchFrequency(freqID)
}
