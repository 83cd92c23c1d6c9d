package training

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

func TestAlignRenPIWrapsWhenPhaseNeverReportsHigh(t *testing.T) {
	s, _ := newTestSession(t, []wddr.FrequencyEntry{{Id: 0}})
	// The simulated REN phase-status register never reports high, so
	// the first search loop runs to its renPICodeMax bound and the
	// second (which requires the phase to already read high) never
	// advances: the code wraps back to 0.
	if got := s.alignRenPI(0, 0); got != 0 {
		t.Fatalf("alignRenPI = %d, want 0 when phase status never reports high", got)
	}
}

func TestRenSweepNoHardwareMatchStaysEmpty(t *testing.T) {
	s, _ := newTestSession(t, []wddr.FrequencyEntry{
		{Id: 0, PLL: wddr.PllConfig{Ratio: wddr.Ratio1to1}},
	})
	cycRange := Range{Start: 0, Stop: 2, Step: 1}
	piRange := Range{Start: -2, Stop: 2, Step: 1}

	result := s.renSweep(0, 0, 0, cycRange, piRange)
	if len(result) != cycRange.StepCount() {
		t.Fatalf("result rows = %d, want %d", len(result), cycRange.StepCount())
	}
	for y, row := range result {
		if row != 0 {
			t.Fatalf("row %d = %#b, want 0 (no hardware match configured)", y, row)
		}
	}
}

func TestRENTrainUnknownFrequencyErrors(t *testing.T) {
	s, _ := newTestSession(t, []wddr.FrequencyEntry{{Id: 0}})
	st := s.RENTrain(0, 0, 9, DefaultRENCycRange, DefaultRENPIRange)
	if st != wddr.StatusError {
		t.Fatalf("RENTrain(unknown freq) = %v, want StatusError", st)
	}
}
