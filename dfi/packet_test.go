package dfi_test

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

func TestPacketListTimestampsMonotonic(t *testing.T) {
	l := dfi.NewPacketList()
	l.CreateCKPacketSequence(4)
	l.CreateCKEPacketSequence(4)

	cmd, _ := dfi.NewMRWCommand(dfi.CS0, 1, 0x20)
	l.CreateAddressPacketSequence(wddr.Ratio1to2, cmd, 4)

	packets := l.Packets()
	if len(packets) < 2 {
		t.Fatalf("expected multiple packets, got %d", len(packets))
	}
	for i := 1; i < len(packets); i++ {
		if packets[i].Time <= packets[i-1].Time {
			t.Fatalf("packet %d time %d not > previous %d", i, packets[i].Time, packets[i-1].Time)
		}
	}
}

func TestPacketListAppendRelativeOffsets(t *testing.T) {
	l := dfi.NewPacketList()
	l.CreateCKPacketSequence(5)
	l.CreateCKEPacketSequence(3)

	packets := l.Packets()
	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 2", len(packets))
	}
	if packets[0].Time != 6 {
		t.Fatalf("first packet time = %d, want 6", packets[0].Time)
	}
	if packets[1].Time != 9 {
		t.Fatalf("second packet time = %d, want 9", packets[1].Time)
	}
}

func TestAddressPacketSequenceFramesPerRatio(t *testing.T) {
	cmd, _ := dfi.NewMRWCommand(dfi.CS0, 1, 0x20)

	l1 := dfi.NewPacketList()
	l1.CreateAddressPacketSequence(wddr.Ratio1to1, cmd, 1)
	if got := len(l1.Packets()); got != wddr.Ratio1to1.NumCommandFrames() {
		t.Fatalf("1:1 packet count = %d, want %d", got, wddr.Ratio1to1.NumCommandFrames())
	}

	l2 := dfi.NewPacketList()
	l2.CreateAddressPacketSequence(wddr.Ratio1to2, cmd, 1)
	if got := len(l2.Packets()); got != wddr.Ratio1to2.NumCommandFrames() {
		t.Fatalf("1:2 packet count = %d, want %d", got, wddr.Ratio1to2.NumCommandFrames())
	}
}

func TestCompareReceivedDataRespectsMask(t *testing.T) {
	var buf []dfi.RxPacket
	var rx dfi.RxPacket
	rx.RdData[0][0] = 0xAA
	rx.RdData[0][1] = 0xBB
	buf = append(buf, rx)

	expectedEven := []uint8{0xAA, 0x00}
	if !dfi.CompareReceivedData(buf, expectedEven, 0, dfi.MaskEven, 2) {
		t.Fatal("MaskEven compare should ignore the odd phase mismatch")
	}

	expectedBoth := []uint8{0xAA, 0xBB}
	if !dfi.CompareReceivedData(buf, expectedBoth, 0, dfi.MaskBoth, 2) {
		t.Fatal("MaskBoth compare should match identical data")
	}

	expectedBad := []uint8{0xAA, 0x00}
	if dfi.CompareReceivedData(buf, expectedBad, 0, dfi.MaskBoth, 2) {
		t.Fatal("MaskBoth compare should catch the odd phase mismatch")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var tx dfi.TxPacket
	tx.Time = 0x1234
	tx.DCE[0] = true
	tx.Address[1] = 0x2A
	tx.WrData[0][3] = 0x55
	tx.WrDataMask[1][2] = true

	words := tx.Encode()
	rx := dfi.DecodeRxPacket(words)
	if rx.Time != tx.Time {
		t.Fatalf("Time round-trip = %#x, want %#x", rx.Time, tx.Time)
	}
}
