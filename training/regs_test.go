package training

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
	"github.com/waviousllc/wav-lpddr-sw-sub000/csr/backend"
)

func newTestRegs() (*Regs, *backend.Simulated) {
	be := backend.NewSimulated()
	base := csr.NewRegion(be, 0)
	return NewRegs(base), be
}

func TestRegsChannelAndDqByteAddressing(t *testing.T) {
	regs, be := newTestRegs()

	regs.SetCaPICode(0, 0x12)
	regs.SetCaPICode(1, 0x34)
	if got := regs.fieldCaPICode.Read(regs.channel(0)); got != 0x12 {
		t.Fatalf("channel 0 CA PI = %#x, want 0x12", got)
	}
	if got := regs.fieldCaPICode.Read(regs.channel(1)); got != 0x34 {
		t.Fatalf("channel 1 CA PI = %#x, want 0x34", got)
	}

	regs.SetDqPICode(0, 0, 10)
	regs.SetDqPICode(0, 1, 20)
	regs.SetDqPICode(1, 0, 30)
	if got := regs.fieldDqPICode.Read(regs.dqByte(0, 0)); got != 10 {
		t.Fatalf("ch0/dq0 DQ PI = %d, want 10", got)
	}
	if got := regs.fieldDqPICode.Read(regs.dqByte(0, 1)); got != 20 {
		t.Fatalf("ch0/dq1 DQ PI = %d, want 20", got)
	}
	if got := regs.fieldDqPICode.Read(regs.dqByte(1, 0)); got != 30 {
		t.Fatalf("ch1/dq0 DQ PI = %d, want 30", got)
	}

	// Channel 1 / DQ byte 1 must land at its own register block,
	// distinct from every other (channel, byte) pair.
	regs.SetDqPICode(1, 1, 0x7F)
	if got := be.Read(channelStride + dqByteStride); got != 0x7F {
		t.Fatalf("ch1/dq1 DQ PI landed at %#x, want value 0x7f at offset %#x", got, channelStride+dqByteStride)
	}
	if got := regs.fieldDqPICode.Read(regs.dqByte(0, 0)); got != 10 {
		t.Fatalf("ch0/dq0 DQ PI disturbed by ch1/dq1 write: got %d, want 10", got)
	}
}

func TestRegsReceiverDelayTrueAndComplementSidesIndependent(t *testing.T) {
	regs, _ := newTestRegs()
	regs.SetReceiverDelay(0, 0, true, 100)
	regs.SetReceiverDelay(0, 0, false, 200)

	if got := regs.fieldRcvrDelayT.Read(regs.dqByte(0, 0)); got != 100 {
		t.Fatalf("true-side delay = %d, want 100", got)
	}
	if got := regs.fieldRcvrDelayC.Read(regs.dqByte(0, 0)); got != 200 {
		t.Fatalf("complement-side delay = %d, want 200", got)
	}
}

func TestRegsDriverOverrideBits(t *testing.T) {
	regs, _ := newTestRegs()
	regs.SetDriverHiZ(0, 1, true)
	regs.SetDriverLoopback(0, 1, true)
	regs.SetDriverDiffMode(0, 1, true)

	region := regs.dqByte(0, 1)
	if regs.fieldDriverHiZ.Read(region) != 1 {
		t.Fatalf("HiZ bit not set")
	}
	if regs.fieldDriverLoop.Read(region) != 1 {
		t.Fatalf("loopback bit not set")
	}
	if regs.fieldDriverDiff.Read(region) != 1 {
		t.Fatalf("diff-mode bit not set")
	}

	regs.SetDriverHiZ(0, 1, false)
	if regs.fieldDriverHiZ.Read(region) != 0 {
		t.Fatalf("HiZ bit not cleared")
	}
	// Loopback/diff bits are independent fields in the same register
	// word; clearing HiZ must not disturb them.
	if regs.fieldDriverLoop.Read(region) != 1 {
		t.Fatalf("loopback bit disturbed by clearing HiZ")
	}
}

func TestRegsPipelineSlicesAreIndependent(t *testing.T) {
	regs, _ := newTestRegs()
	regs.SetPipelineDelay(0, 0, SliceIE, 3, true, 5)
	regs.SetPipelineDelay(0, 0, SliceRE, 1, false, 2)
	regs.SetPipelineDelay(0, 0, SliceREN, 7, true, 6)

	region := regs.dqByte(0, 0)
	if got := regs.fieldIEFcDelay.Read(region); got != 3 {
		t.Fatalf("IE fc_delay = %d, want 3", got)
	}
	if got := regs.fieldREFcDelay.Read(region); got != 1 {
		t.Fatalf("RE fc_delay = %d, want 1", got)
	}
	if got := regs.fieldRENFcDelay.Read(region); got != 7 {
		t.Fatalf("REN fc_delay = %d, want 7", got)
	}
	if got := regs.fieldRENPipeEn.Read(region); got != 1 {
		t.Fatalf("REN pipe_en = %d, want 1", got)
	}
}

func TestRegsWritePipelineDelayDistinctFromReadPipelines(t *testing.T) {
	regs, _ := newTestRegs()
	regs.SetPipelineDelay(0, 0, SliceIE, 1, true, 1)
	regs.SetWritePipelineDelay(0, 0, 9, true, 4)

	region := regs.dqByte(0, 0)
	if got := regs.fieldWrFcDelay.Read(region); got != 9 {
		t.Fatalf("write pipeline fc_delay = %d, want 9", got)
	}
	if got := regs.fieldIEFcDelay.Read(region); got != 1 {
		t.Fatalf("IE fc_delay disturbed by SetWritePipelineDelay: got %d, want 1", got)
	}
}

func TestRegsReadBscanAndRenPIPhase(t *testing.T) {
	regs, _ := newTestRegs()
	region := regs.dqByte(1, 0)
	regs.fieldBscanSta.Write(region, 0xA5)
	if got := regs.ReadBscan(1, 0); got != 0xA5 {
		t.Fatalf("ReadBscan = %#x, want 0xa5", got)
	}

	if regs.RenPIPhaseHigh(1, 0) {
		t.Fatalf("RenPIPhaseHigh before any write = true, want false")
	}
	regs.fieldRenPIPhaseSta.Write(region, 1)
	if !regs.RenPIPhaseHigh(1, 0) {
		t.Fatalf("RenPIPhaseHigh after setting status bit = false, want true")
	}
}
