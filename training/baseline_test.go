package training

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

func TestBaselineWriteReadFailsWithoutConfiguredHardwareResponse(t *testing.T) {
	s, _ := newTestSession(t, []wddr.FrequencyEntry{
		{Id: 0, PLL: wddr.PllConfig{Ratio: wddr.Ratio1to1}},
	})
	// The Simulated backend never returns the test pattern, so the
	// round-trip check on the first byte must fail and the routine
	// must stop rather than checking remaining bytes.
	if st := s.BaselineWriteRead(0, 0); st != wddr.StatusError {
		t.Fatalf("BaselineWriteRead = %v, want StatusError", st)
	}
}

func TestBaselineWriteReadUnknownFrequencyErrors(t *testing.T) {
	s, _ := newTestSession(t, []wddr.FrequencyEntry{{Id: 0}})
	if st := s.BaselineWriteRead(0, 9); st != wddr.StatusError {
		t.Fatalf("BaselineWriteRead(unknown freq) = %v, want StatusError", st)
	}
}
