package training

import (
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// DefaultReadWindowRange is the default IE/RE pulse-extension offset
// sweep: read_window_training walks this down from its widest value
// toward zero, the port of pext_cfg.rd.fields.ie/re.
var DefaultReadWindowRange = Range{Start: 0, Stop: 16, Step: 1}

// ReadWindowTrain finds the largest IE/RE pulse-extension offset that
// still reads the FIFO test pattern back correctly, then backs both
// fields off by the eye's midpoint for margin, the port of
// read_window_training.
//
// The original sweeps a dedicated "paden pext" register pair that had
// no declaring header in this port's source material; this reuses the
// IE/RE SDR pipeline's FCDelay field as the swept quantity, since it
// plays the same role (an input-side timing offset applied equally to
// both IE and RE).
func (s *Session) ReadWindowTrain(ch, dqByte int, freqID wddr.PhyFrequencyId, pextRange Range) wddr.Status {
	entry := s.Dev.Table.Get(freqID)
	if entry == nil {
		return wddr.StatusError
	}
	byteState := entry.Channels[ch].Byte(dqByte)

	cols := pextRange.StepCount()
	result := NewBitmap(1)
	numPackets := s.numReadPackets()
	list := s.writeReadFIFOSequence(dqByte, 1)

	for x, offset := 0, pextRange.Start; x < cols && offset < pextRange.Stop; x, offset = x+1, offset+pextRange.Step {
		fc := uint8(pextRange.Stop - offset - pextRange.Step)
		s.Regs.SetPipelineDelay(ch, dqByte, SliceIE, fc, byteState.Pipeline.IE.PipeEn, byteState.Pipeline.IE.XSel)
		s.Regs.SetPipelineDelay(ch, dqByte, SliceRE, fc, byteState.Pipeline.RE.PipeEn, byteState.Pipeline.RE.XSel)

		s.resetRxFIFO(ch)
		s.flush(ch, list)
		s.Engines[ch].DrainEG()
		ok := dfi.CompareReceivedData(s.Engines[ch].Received(), testPattern32, dqByte, dfi.MaskBoth, numPackets)
		s.Engines[ch].ClearReceived()
		if !ok {
			break
		}
		result.Set(0, x)
	}

	window := Window(result[0], cols)
	offset := pextRange.Midpoint(window.OriginX, window.W)
	fc := uint8(pextRange.Stop - offset - pextRange.Step)
	if fc > byteState.Pipeline.IE.FCDelay {
		fc = byteState.Pipeline.IE.FCDelay
	}

	byteState.Pipeline.IE.FCDelay = fc
	byteState.Pipeline.RE.FCDelay = fc
	s.Regs.SetPipelineDelay(ch, dqByte, SliceIE, fc, byteState.Pipeline.IE.PipeEn, byteState.Pipeline.IE.XSel)
	s.Regs.SetPipelineDelay(ch, dqByte, SliceRE, fc, byteState.Pipeline.RE.PipeEn, byteState.Pipeline.RE.XSel)
	return wddr.StatusSuccess
}
