package dfi_test

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
	"github.com/waviousllc/wav-lpddr-sw-sub000/csr/backend"
	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
)

func TestFIFOWriteIGRejectsWhenFull(t *testing.T) {
	be := backend.NewSimulated()
	region := csr.NewRegion(be, 0)
	f := dfi.NewFIFO(region)

	region.Write(0x0C, 2) // DFI_FIFO_STATE_FULL
	var words [dfi.TxPacketSizeWords]uint32
	if err := f.WriteIG(words); err != dfi.ErrFIFOFull {
		t.Fatalf("WriteIG on a full FIFO: err = %v, want ErrFIFOFull", err)
	}
}

func TestFIFOReadEGRejectsWhenEmpty(t *testing.T) {
	be := backend.NewSimulated()
	region := csr.NewRegion(be, 0)
	f := dfi.NewFIFO(region)

	region.Write(0x0C, 1) // DFI_FIFO_STATE_EMPTY
	if _, err := f.ReadEG(); err != dfi.ErrFIFOEmpty {
		t.Fatalf("ReadEG on an empty FIFO: err = %v, want ErrFIFOEmpty", err)
	}
}

func TestFIFOWriteIGPersistsEncodedWords(t *testing.T) {
	be := backend.NewSimulated()
	region := csr.NewRegion(be, 0)
	f := dfi.NewFIFO(region)

	region.Write(0x0C, 0) // neither full nor empty
	var tx dfi.TxPacket
	tx.Time = 7
	words := tx.Encode()
	if err := f.WriteIG(words); err != nil {
		t.Fatalf("WriteIG: %v", err)
	}
	if got := region.Read(0x10 + 2*4); got != uint32(tx.Time) {
		t.Fatalf("IG FIFO word[2] (time) = %#x, want %#x", got, tx.Time)
	}
}

func TestFIFOReadEGReturnsWhatHardwareDelivered(t *testing.T) {
	be := backend.NewSimulated()
	region := csr.NewRegion(be, 0)
	f := dfi.NewFIFO(region)

	egBase := uint32(0x10 + dfi.TxPacketSizeWords*4)
	region.Write(csr.Addr(egBase+2*4), 0xBEEF)
	region.Write(0x0C, 0) // neither full nor empty

	got, err := f.ReadEG()
	if err != nil {
		t.Fatalf("ReadEG: %v", err)
	}
	rx := dfi.DecodeRxPacket(got)
	if rx.Time != 0xBEEF {
		t.Fatalf("Time = %#x, want %#x", rx.Time, 0xBEEF)
	}
}
