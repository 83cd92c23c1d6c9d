package dfi_test

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/dfi"
)

func TestMRWCommandRejectsOutOfRangeRegister(t *testing.T) {
	if _, ok := dfi.NewMRWCommand(dfi.CS0, dfi.MaxModeRegister+1, 0); ok {
		t.Fatal("NewMRWCommand: want rejection for register above MaxModeRegister")
	}
}

func TestMRWCommandEncodesOpBits(t *testing.T) {
	cmd, ok := dfi.NewMRWCommand(dfi.CS0, 0x13, 0xC1)
	if !ok {
		t.Fatal("NewMRWCommand rejected a valid register")
	}
	if cmd.Type != dfi.TypeMRW {
		t.Fatalf("Type = %v, want TypeMRW", cmd.Type)
	}
	if cmd.Address[1].CAPins != 0x13 {
		t.Fatalf("mode address frame = %#x, want %#x", cmd.Address[1].CAPins, 0x13)
	}
	// OP7 rides on CA5 of frame 0, OP6 on CA5 of frame 2, OP[5:0] on frame 3.
	if cmd.Address[0].CAPins != 0x26 {
		t.Fatalf("MRW-1 frame = %#x, want %#x", cmd.Address[0].CAPins, 0x26)
	}
	if cmd.Address[2].CAPins != 0x36 {
		t.Fatalf("MRW-2 frame = %#x, want %#x", cmd.Address[2].CAPins, 0x36)
	}
	if cmd.Address[3].CAPins != 0x01 {
		t.Fatalf("op low frame = %#x, want %#x", cmd.Address[3].CAPins, 0x01)
	}
}

func TestCommandChipSelectPattern(t *testing.T) {
	cmd := NewWriteForTest(dfi.CS1)
	if cmd.Address[0].CS == 0 || cmd.Address[1].CS != 0 || cmd.Address[2].CS == 0 || cmd.Address[3].CS != 0 {
		t.Fatalf("CS pattern = %+v, want high/low/high/low", cmd.Address)
	}
}

func NewWriteForTest(cs dfi.ChipSelect) dfi.Command {
	return dfi.NewWriteCommand(cs, 0, 0, 0, dfi.BL16)
}

func TestCBTCommandDrivesCAOnSecondFrameOnly(t *testing.T) {
	cmd := dfi.NewCBTCommand(dfi.CS0, 0x2A)
	if cmd.Address[0].CS != 0 || cmd.Address[1].CS == 0 {
		t.Fatalf("CBT command must assert CS only on frame 1: %+v", cmd.Address)
	}
	if cmd.Address[1].CAPins != 0x2A {
		t.Fatalf("CBT CA value = %#x, want %#x", cmd.Address[1].CAPins, 0x2A)
	}
}
