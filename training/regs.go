package training

import "github.com/waviousllc/wav-lpddr-sw-sub000/csr"

// Channel/DQ-byte register map strides, the port of
// WDDR_MEMORY_MAP_PHY_CH_OFFSET / WDDR_MEMORY_MAP_PHY_DQ_OFFSET: each
// channel and each DQ byte within it gets an identical register block
// at a fixed stride from the PHY's base address.
const (
	channelStride csr.Addr = 0x1000
	dqByteStride  csr.Addr = 0x0100
)

// Regs is the register interface every training routine drives: CA/DQ/
// DQS phase-interpolator codes, driver overrides, receiver trims,
// BSCAN readback, and SDR pipeline delay fields. Grounded on the
// register call sites spread across command_bus.c, read.c and
// write.c (pi_set_code_reg_if, driver_override, read_bscan_result,
// receiver_delay_set_delay_code_reg_if, sdr_pipeline_set_*_reg_if).
type Regs struct {
	base *csr.Region

	fieldCaPICode csr.Field

	fieldDqPICode      csr.Field
	fieldDqsPICode     csr.Field
	fieldRenPICode     csr.Field
	fieldRenPIPhaseSta csr.Field
	fieldBscanSta      csr.Field
	fieldDriverVrefOvr csr.Field
	fieldDriverHiZ     csr.Field
	fieldDriverLoop    csr.Field
	fieldDriverDiff    csr.Field
	fieldRcvrDelayT    csr.Field
	fieldRcvrDelayC    csr.Field
	fieldVrefCode      csr.Field

	fieldIEFcDelay, fieldIEPipeEn, fieldIEXSel    csr.Field
	fieldREFcDelay, fieldREPipeEn, fieldREXSel    csr.Field
	fieldRENFcDelay, fieldRENPipeEn, fieldRENXSel csr.Field
	fieldWrFcDelay, fieldWrPipeEn, fieldWrXSel    csr.Field
}

// NewRegs constructs the register interface over the PHY's base
// address; per-channel/per-byte offsets are computed on access.
func NewRegs(base *csr.Region) *Regs {
	return &Regs{
		base: base,

		fieldCaPICode: csr.NewField(0x00, 0, 7),

		fieldDqPICode:      csr.NewField(0x00, 0, 7),
		fieldDqsPICode:     csr.NewField(0x04, 0, 7),
		fieldRenPICode:     csr.NewField(0x08, 0, 7),
		fieldRenPIPhaseSta: csr.NewField(0x0C, 0, 0),
		fieldBscanSta:      csr.NewField(0x10, 0, 7),
		fieldDriverVrefOvr: csr.NewField(0x14, 0, 7),
		fieldDriverHiZ:     csr.NewField(0x18, 0, 0),
		fieldDriverLoop:    csr.NewField(0x18, 1, 1),
		fieldDriverDiff:    csr.NewField(0x18, 2, 2),
		fieldRcvrDelayT:    csr.NewField(0x1C, 0, 9),
		fieldRcvrDelayC:    csr.NewField(0x1C, 10, 19),
		fieldVrefCode:      csr.NewField(0x20, 0, 7),

		fieldIEFcDelay: csr.NewField(0x24, 0, 3),
		fieldIEPipeEn:  csr.NewField(0x24, 4, 4),
		fieldIEXSel:    csr.NewField(0x24, 5, 7),

		fieldREFcDelay: csr.NewField(0x28, 0, 3),
		fieldREPipeEn:  csr.NewField(0x28, 4, 4),
		fieldREXSel:    csr.NewField(0x28, 5, 7),

		fieldRENFcDelay: csr.NewField(0x2C, 0, 3),
		fieldRENPipeEn:  csr.NewField(0x2C, 4, 4),
		fieldRENXSel:    csr.NewField(0x2C, 5, 7),

		fieldWrFcDelay: csr.NewField(0x30, 0, 3),
		fieldWrPipeEn:  csr.NewField(0x30, 4, 4),
		fieldWrXSel:    csr.NewField(0x30, 5, 7),
	}
}

func (r *Regs) channel(ch int) *csr.Region {
	return r.base.Rebased(csr.Addr(ch) * channelStride)
}

func (r *Regs) dqByte(ch, dq int) *csr.Region {
	return r.channel(ch).Rebased(csr.Addr(dq) * dqByteStride)
}

// PipelineSlice selects which of a DQ byte's three SDR pipelines a
// delay-conversion result is applied to, the port of the
// DQS_SLICE_OE/DQS_SLICE_DQS/REN distinction write.c and read.c make.
type PipelineSlice int

const (
	SliceIE PipelineSlice = iota
	SliceRE
	SliceREN
)

func (r *Regs) pipelineFields(slice PipelineSlice) (fc, pipeEn, xSel csr.Field) {
	switch slice {
	case SliceRE:
		return r.fieldREFcDelay, r.fieldREPipeEn, r.fieldREXSel
	case SliceREN:
		return r.fieldRENFcDelay, r.fieldRENPipeEn, r.fieldRENXSel
	default:
		return r.fieldIEFcDelay, r.fieldIEPipeEn, r.fieldIEXSel
	}
}

// SetCaPICode is the port of pi_set_code_reg_if for the channel's CA
// PI.
func (r *Regs) SetCaPICode(ch int, code uint16) {
	r.fieldCaPICode.Write(r.channel(ch), uint32(code))
}

// SetDqPICode is the port of pi_set_code_reg_if for a DQ byte's DQ PI.
func (r *Regs) SetDqPICode(ch, dq int, code uint16) {
	r.fieldDqPICode.Write(r.dqByte(ch, dq), uint32(code))
}

// SetDqsPICode is the port of pi_set_code_reg_if for a DQ byte's DQS
// PI (used for write leveling).
func (r *Regs) SetDqsPICode(ch, dq int, code uint16) {
	r.fieldDqsPICode.Write(r.dqByte(ch, dq), uint32(code))
}

// SetRenPICode programs the REN phase-interpolator code, the port of
// pi_set_code_reg_if applied to dqs.pi.ren.
func (r *Regs) SetRenPICode(ch, dq int, code uint16) {
	r.fieldRenPICode.Write(r.dqByte(ch, dq), uint32(code))
}

// RenPIPhaseHigh is the port of reading
// DDR_DQ_DQS_RX_PI_STA_REN_PI_PHASE, the sampled edge align_ren_pi
// walks the REN PI code against.
func (r *Regs) RenPIPhaseHigh(ch, dq int) bool {
	return r.fieldRenPIPhaseSta.Read(r.dqByte(ch, dq)) != 0
}

// ReadBscan is the port of read_bscan_result.
func (r *Regs) ReadBscan(ch, dq int) uint8 {
	return uint8(r.fieldBscanSta.Read(r.dqByte(ch, dq)))
}

// SetDriverVrefOverride drives bits [7:0] of a DQ byte's TX driver
// with the CBT VREF setting under test, the port of the
// driver_override loop command_bus_sweep runs per VREF step.
func (r *Regs) SetDriverVrefOverride(ch, dq int, bits uint8) {
	r.fieldDriverVrefOvr.Write(r.dqByte(ch, dq), uint32(bits))
}

// SetDriverHiZ is the port of driver_set_impedance_all_bits(...,
// DRIVER_IMPEDANCE_HIZ, DRIVER_IMPEDANCE_HIZ), used to park a DQ/DQS
// lane during CBT and write-level training.
func (r *Regs) SetDriverHiZ(ch, dq int, hiZ bool) {
	r.fieldDriverHiZ.Write(r.dqByte(ch, dq), b2u(hiZ))
}

// SetDriverLoopback is the port of driver_cmn_set_loopback_reg_if.
func (r *Regs) SetDriverLoopback(ch, dq int, enable bool) {
	r.fieldDriverLoop.Write(r.dqByte(ch, dq), b2u(enable))
}

// SetDriverDiffMode is the port of driver_cmn_set_mode_reg_if(...,
// DRIVER_MODE_DIFF).
func (r *Regs) SetDriverDiffMode(ch, dq int, diff bool) {
	r.fieldDriverDiff.Write(r.dqByte(ch, dq), b2u(diff))
}

// SetReceiverDelay is the port of
// receiver_delay_set_delay_code_reg_if for one rx side (true/
// complement).
func (r *Regs) SetReceiverDelay(ch, dq int, trueSide bool, code uint16) {
	region := r.dqByte(ch, dq)
	if trueSide {
		r.fieldRcvrDelayT.Write(region, uint32(code))
		return
	}
	r.fieldRcvrDelayC.Write(region, uint32(code))
}

// SetVrefCode is the port of vref_set_code, programming the common
// receiver VREF DAC for a DQ byte.
func (r *Regs) SetVrefCode(ch, dq int, code uint16) {
	r.fieldVrefCode.Write(r.dqByte(ch, dq), uint32(code))
}

// SetPipelineDelay applies a converted SDR pipeline delay (fc_delay/
// pipe_en/x_sel) to one of a DQ byte's three pipelines, the port of
// sdr_pipeline_set_fc_delay/pipe_en/x_sel_reg_if.
func (r *Regs) SetPipelineDelay(ch, dq int, slice PipelineSlice, fcDelay uint8, pipeEn bool, xSel uint8) {
	fc, pe, xs := r.pipelineFields(slice)
	region := r.dqByte(ch, dq)
	fc.Write(region, uint32(fcDelay))
	pe.Write(region, b2u(pipeEn))
	xs.Write(region, uint32(xSel))
}

// SetWritePipelineDelay applies a converted SDR pipeline delay to a DQ
// byte's write path (DQS output-enable, DQS data, and every DQ bit's
// pipeline alike take the same value), the port of dq_dqs_training's
// sdr_pipeline_set_*_reg_if calls across DQS_SLICE_OE/DQS_SLICE_DQS
// and WDDR_PHY_DQ_SLICE_NUM DQ bit pipelines.
func (r *Regs) SetWritePipelineDelay(ch, dq int, fcDelay uint8, pipeEn bool, xSel uint8) {
	region := r.dqByte(ch, dq)
	r.fieldWrFcDelay.Write(region, uint32(fcDelay))
	r.fieldWrPipeEn.Write(region, b2u(pipeEn))
	r.fieldWrXSel.Write(region, uint32(xSel))
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
