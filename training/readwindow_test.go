package training

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

func TestReadWindowTrainNoHardwareMatchFallsBackToNarrowestOffset(t *testing.T) {
	entry := wddr.FrequencyEntry{Id: 0}
	s, _ := newTestSession(t, []wddr.FrequencyEntry{entry})

	st := s.ReadWindowTrain(0, 0, 0, DefaultReadWindowRange)
	if st != wddr.StatusSuccess {
		t.Fatalf("ReadWindowTrain = %v, want StatusSuccess", st)
	}
	// With no sweep step matching, Window() reports a zero-width run at
	// the origin; the midpoint-derived fc must not exceed the byte's
	// starting FCDelay (0, since the default entry never sets one).
	byteState := s.Dev.Table.Get(0).Channels[0].Byte(0)
	if byteState.Pipeline.IE.FCDelay != 0 {
		t.Fatalf("IE.FCDelay = %d, want 0 (no pre-existing delay to clamp below)", byteState.Pipeline.IE.FCDelay)
	}
	if byteState.Pipeline.RE.FCDelay != byteState.Pipeline.IE.FCDelay {
		t.Fatalf("RE.FCDelay (%d) must mirror IE.FCDelay (%d)", byteState.Pipeline.RE.FCDelay, byteState.Pipeline.IE.FCDelay)
	}
}

func TestReadWindowTrainUnknownFrequencyErrors(t *testing.T) {
	s, _ := newTestSession(t, []wddr.FrequencyEntry{{Id: 0}})
	st := s.ReadWindowTrain(0, 0, 9, DefaultReadWindowRange)
	if st != wddr.StatusError {
		t.Fatalf("ReadWindowTrain(unknown freq) = %v, want StatusError", st)
	}
}
