package training

import "testing"

func TestBitmapSetAndMaxRectSingleRow(t *testing.T) {
	b := NewBitmap(1)
	for x := 2; x < 6; x++ {
		b.Set(0, x)
	}
	rect := MaxRect(b, 8)
	if rect.OriginX != 2 || rect.W != 4 || rect.H != 1 {
		t.Fatalf("MaxRect = %+v, want origin 2 width 4 height 1", rect)
	}
}

func TestMaxRectPicksLargestAreaAcrossRows(t *testing.T) {
	// col:    0 1 2 3 4 5
	b := NewBitmap(4)
	for _, row := range []int{0, 1, 2, 3} {
		b.Set(row, 0)
		b.Set(row, 1)
	}
	// A narrower but taller block (cols 0-1, all 4 rows, area 8) beats
	// the widest single-row run (row 0 only, area 6).
	b.Set(0, 2)
	b.Set(0, 3)
	b.Set(0, 4)
	b.Set(0, 5)

	rect := MaxRect(b, 6)
	if rect.Area() != 8 {
		t.Fatalf("MaxRect area = %d, want 8 (got %+v)", rect.Area(), rect)
	}
	if rect.W != 2 || rect.H != 4 {
		t.Fatalf("MaxRect = %+v, want width 2 height 4", rect)
	}
}

func TestMaxRectEmptyBitmap(t *testing.T) {
	if rect := MaxRect(NewBitmap(0), 8); rect.Area() != 0 {
		t.Fatalf("MaxRect on empty bitmap = %+v, want zero rect", rect)
	}
	if rect := MaxRect(NewBitmap(4), 0); rect.Area() != 0 {
		t.Fatalf("MaxRect with zero cols = %+v, want zero rect", rect)
	}
}

func TestMaxRectAllZeroRow(t *testing.T) {
	b := NewBitmap(3)
	if rect := MaxRect(b, 8); rect.Area() != 0 {
		t.Fatalf("MaxRect on all-zero bitmap = %+v, want zero area", rect)
	}
}

func TestWindowFindsLongestRun(t *testing.T) {
	var row Row
	row |= 1 << 1
	row |= 1 << 2
	row |= 1 << 5
	row |= 1 << 6
	row |= 1 << 7

	w := Window(row, 8)
	if w.OriginX != 5 || w.W != 3 {
		t.Fatalf("Window = %+v, want origin 5 width 3", w)
	}
}

func TestWindowNoSetBits(t *testing.T) {
	if w := Window(0, 8); w.W != 0 {
		t.Fatalf("Window on empty row = %+v, want zero width", w)
	}
}

func TestWindowRunAtEnd(t *testing.T) {
	var row Row
	row |= 1 << 6
	row |= 1 << 7
	w := Window(row, 8)
	if w.OriginX != 6 || w.W != 2 {
		t.Fatalf("Window = %+v, want origin 6 width 2", w)
	}
}

func TestRangeStepCount(t *testing.T) {
	r := Range{Start: 0, Stop: 64, Step: 2}
	if got := r.StepCount(); got != 32 {
		t.Fatalf("StepCount = %d, want 32", got)
	}
	if got := (Range{}).StepCount(); got != 0 {
		t.Fatalf("StepCount with zero step = %d, want 0", got)
	}
}

func TestRangeMidpoint(t *testing.T) {
	r := Range{Start: 10, Stop: 74, Step: 2}
	// window: origin 4, size 6 steps -> codes 18,20,...,28; midpoint
	// step index 4+3=7 -> 10+7*2=24.
	if got := r.Midpoint(4, 6); got != 24 {
		t.Fatalf("Midpoint = %d, want 24", got)
	}
	if got := r.Midpoint(0, 0); got != r.Start {
		t.Fatalf("Midpoint with zero-size window = %d, want Start (%d)", got, r.Start)
	}
}

func TestConvertDRAMDelayToSDRDelay(t *testing.T) {
	cases := []struct {
		delay, cyclesPerPacket int
		wantEn                 bool
		wantXSel               uint8
	}{
		{0, 2, false, 0},
		{-1, 2, false, 0},
		{1, 2, false, 1},
		{2, 2, true, 0},
		{5, 2, true, 1},
	}
	for _, c := range cases {
		en, xsel := ConvertDRAMDelayToSDRDelay(c.delay, c.cyclesPerPacket)
		if en != c.wantEn || xsel != c.wantXSel {
			t.Fatalf("ConvertDRAMDelayToSDRDelay(%d, %d) = (%v, %d), want (%v, %d)",
				c.delay, c.cyclesPerPacket, en, xsel, c.wantEn, c.wantXSel)
		}
	}
}
