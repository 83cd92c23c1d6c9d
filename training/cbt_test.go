package training

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

func TestPiDomainForRatio(t *testing.T) {
	if got := piDomainForRatio(wddr.Ratio1to1); got != wddr.PIDomainDDR {
		t.Fatalf("piDomainForRatio(1:1) = %v, want PIDomainDDR", got)
	}
	if got := piDomainForRatio(wddr.Ratio1to2); got != wddr.PIDomainQDR {
		t.Fatalf("piDomainForRatio(1:2) = %v, want PIDomainQDR", got)
	}
}

// TestCommandBusSweepMatchesOnlyAtForcedBscanValue drives
// commandBusSweep against a BSCAN register forced to a fixed value:
// every (vref, pi) grid point either matches (if the sweep's expected
// pattern at that row equals the forced value) or doesn't, letting the
// test assert the bitmap shape without needing a real DRAM model.
func TestCommandBusSweepMatchesOnlyAtForcedBscanValue(t *testing.T) {
	s, _ := newTestSession(t, []wddr.FrequencyEntry{{Id: 0}})

	// Row 0 drives caTestData unmodified (address inverted at the end
	// of each row, starting un-inverted); force BSCAN to read back
	// exactly caTestData&caMask so only row 0 matches.
	region := s.Regs.dqByte(0, 1)
	s.Regs.fieldBscanSta.Write(region, uint32(caTestData&caMask))

	piRange := Range{Start: 0, Stop: 4, Step: 1}
	vrefRange := Range{Start: 0, Stop: 2, Step: 1}
	result := s.commandBusSweep(0, piRange, vrefRange)

	if len(result) != 2 {
		t.Fatalf("result rows = %d, want 2", len(result))
	}
	wantRow0 := Row(0)
	for x := 0; x < piRange.StepCount(); x++ {
		wantRow0 |= 1 << uint(x)
	}
	if result[0] != wantRow0 {
		t.Fatalf("row 0 = %#b, want every column set (%#b)", result[0], wantRow0)
	}
	if result[1] != 0 {
		t.Fatalf("row 1 = %#b, want no columns set (polarity inverted, no longer matches forced BSCAN value)", result[1])
	}
}
