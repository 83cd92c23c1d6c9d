package training

import (
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// BaselineWriteRead issues a write/read FIFO round trip to both DQ
// bytes on channel ch and checks the data read back matches what was
// written, validating that write-level/DQ-DQS training actually
// produced a working data path at freqID. The port of
// baseline_write_read, called post-training as a correctness check.
func (s *Session) BaselineWriteRead(ch int, freqID wddr.PhyFrequencyId) wddr.Status {
	if s.Dev.Table.Get(freqID) == nil {
		return wddr.StatusError
	}
	numPackets := s.numReadPackets()

	for dq := 0; dq < wddr.NumDqBytes; dq++ {
		list := s.writeReadFIFOSequence(dq, 1)

		s.resetRxFIFO(ch)
		s.flush(ch, list)
		s.Engines[ch].DrainEG()
		ok := dfi.CompareReceivedData(s.Engines[ch].Received(), testPattern32, dq, dfi.MaskBoth, numPackets)
		s.Engines[ch].ClearReceived()

		if !ok {
			return wddr.StatusError
		}
	}
	return wddr.StatusSuccess
}
