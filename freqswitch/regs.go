package freqswitch

import "github.com/waviousllc/wav-lpddr-sw-sub000/csr"

// Regs is the register interface the frequency-switch FSM drives
// directly (outside of the pll/dfi packages it also depends on),
// grounded on the DDR_FSW_CTRL_CFG/STA and DDR_DFI_STATUS_IF_CFG/STA
// register names referenced throughout
// original_source/fsm/freq_switch/fsm.c.
type Regs struct {
	ctrl   *csr.Region
	dfiSta *csr.Region

	fieldCtrlStaMSR       csr.Field
	fieldCtrlCfgMSRVal    csr.Field
	fieldCtrlCfgVCOVal    csr.Field
	fieldCtrlCfgMSRVCOOvr csr.Field
	fieldCtrlCfgMSRToggle csr.Field
	fieldCtrlCfgVCOToggle csr.Field
	fieldCtrlCfgPrepDone  csr.Field
	fieldCtrlCfgPstDone   csr.Field
	fieldCtrlCfgPstDoneOvr csr.Field

	fieldDfiInitStartReq    csr.Field
	fieldDfiInitStartOvr    csr.Field
	fieldDfiInitCompleteOvr csr.Field
	fieldDfiSWAckVal        csr.Field
	fieldDfiSWAckOvr        csr.Field
}

// NewRegs constructs the register interface over the FSW control
// region and the DFI status-interface region (two distinct CSR
// blocks on the real part, per WDDR_MEMORY_MAP_FSW / WDDR_MEMORY_MAP_DFI).
func NewRegs(ctrl, dfiSta *csr.Region) *Regs {
	return &Regs{
		ctrl:                   ctrl,
		dfiSta:                 dfiSta,
		fieldCtrlStaMSR:        csr.NewField(0x00, 0, 0),
		fieldCtrlCfgMSRVal:     csr.NewField(0x04, 0, 0),
		fieldCtrlCfgVCOVal:     csr.NewField(0x04, 1, 2),
		fieldCtrlCfgMSRVCOOvr:  csr.NewField(0x04, 3, 3),
		fieldCtrlCfgMSRToggle:  csr.NewField(0x04, 4, 4),
		fieldCtrlCfgVCOToggle:  csr.NewField(0x04, 5, 5),
		fieldCtrlCfgPrepDone:   csr.NewField(0x04, 6, 6),
		fieldCtrlCfgPstDone:    csr.NewField(0x04, 7, 7),
		fieldCtrlCfgPstDoneOvr: csr.NewField(0x04, 8, 8),

		fieldDfiInitStartReq:    csr.NewField(0x00, 0, 0),
		fieldDfiInitStartOvr:    csr.NewField(0x04, 0, 0),
		fieldDfiInitCompleteOvr: csr.NewField(0x04, 1, 1),
		fieldDfiSWAckVal:        csr.NewField(0x04, 2, 2),
		fieldDfiSWAckOvr:        csr.NewField(0x04, 3, 3),
	}
}

// CurrentMSR is the port of reading DDR_FSW_CTRL_STA_CMN_MSR.
func (r *Regs) CurrentMSR() csr.MSR {
	if r.fieldCtrlStaMSR.Read(r.ctrl) != 0 {
		return csr.MSR1
	}
	return csr.MSR0
}

// SetMSRVCOOverrideValue is the port of
// fsw_ctrl_set_msr_vco_ovr_val_reg_if.
func (r *Regs) SetMSRVCOOverrideValue(msr csr.MSR, vco uint8) {
	v := uint32(0)
	if msr == csr.MSR1 {
		v = 1
	}
	r.fieldCtrlCfgMSRVal.Write(r.ctrl, v)
	r.fieldCtrlCfgVCOVal.Write(r.ctrl, uint32(vco))
}

// SetMSRVCOOverride is the port of fsw_ctrl_set_msr_vco_ovr_reg_if.
func (r *Regs) SetMSRVCOOverride(enable bool) {
	r.fieldCtrlCfgMSRVCOOvr.Write(r.ctrl, b2u(enable))
}

// SetMSRToggleEnable toggles DDR_FSW_CTRL_CFG_MSR_TOGGLE_EN.
func (r *Regs) SetMSRToggleEnable(enable bool) {
	r.fieldCtrlCfgMSRToggle.Write(r.ctrl, b2u(enable))
}

// MSRToggleEnabled reads DDR_FSW_CTRL_CFG_MSR_TOGGLE_EN.
func (r *Regs) MSRToggleEnabled() bool {
	return r.fieldCtrlCfgMSRToggle.Read(r.ctrl) != 0
}

// SetVCOToggleEnable toggles DDR_FSW_CTRL_CFG_VCO_TOGGLE_EN.
func (r *Regs) SetVCOToggleEnable(enable bool) {
	r.fieldCtrlCfgVCOToggle.Write(r.ctrl, b2u(enable))
}

// SetPrepDone toggles DDR_FSW_CTRL_CFG_PREP_DONE.
func (r *Regs) SetPrepDone(done bool) {
	r.fieldCtrlCfgPrepDone.Write(r.ctrl, b2u(done))
}

// SetPostWorkDone toggles DDR_FSW_CTRL_CFG_PSTWORK_DONE.
func (r *Regs) SetPostWorkDone(done bool) {
	r.fieldCtrlCfgPstDone.Write(r.ctrl, b2u(done))
}

// SetPostWorkDoneOverride toggles DDR_FSW_CTRL_CFG_PSTWORK_DONE_OVR.
func (r *Regs) SetPostWorkDoneOverride(enable bool) {
	r.fieldCtrlCfgPstDoneOvr.Write(r.ctrl, b2u(enable))
}

// InitStartAsserted is the port of dfi_get_init_start_status_reg_if,
// DDR_DFI_STATUS_IF_STA_REQ.
func (r *Regs) InitStartAsserted() bool {
	return r.fieldDfiInitStartReq.Read(r.dfiSta) != 0
}

// SetInitStartOverride is the port of dfi_set_init_start_ovr_reg_if.
func (r *Regs) SetInitStartOverride(enable bool) {
	r.fieldDfiInitStartOvr.Write(r.dfiSta, b2u(enable))
}

// SetInitCompleteOverride is the port of
// dfi_set_init_complete_ovr_reg_if.
func (r *Regs) SetInitCompleteOverride(enable bool) {
	r.fieldDfiInitCompleteOvr.Write(r.dfiSta, b2u(enable))
}

// SetSWAck forces the DFI status-interface software-acknowledge value
// and override enable together, the port of the two
// DDR_DFI_STATUS_IF_CFG_SW_ACK_* field writes in handle_phy_init_start.
func (r *Regs) SetSWAck(value, override bool) {
	r.fieldDfiSWAckVal.Write(r.dfiSta, b2u(value))
	r.fieldDfiSWAckOvr.Write(r.dfiSta, b2u(override))
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
