package dfiupdate

import "github.com/waviousllc/wav-lpddr-sw-sub000/csr"

// Regs is the register interface the DFI-update FSM drives, grounded
// on the DDR_DFI_CTRLUPD_IF_CFG/STA and DDR_DFI_PHYUPD_IF_CFG/STA
// register groups referenced throughout
// original_source/fsm/dfi_update/fsm.c. Both groups live in the same
// DFI memory-map window, so a single Region backs them.
type Regs struct {
	dfi *csr.Region

	fieldCtrlupdAckVal   csr.Field
	fieldCtrlupdAckOvr   csr.Field
	fieldCtrlupdEvt1Val  csr.Field
	fieldCtrlupdEvt1Ovr  csr.Field
	fieldCtrlupdReqSta   csr.Field

	fieldPhyupdType     csr.Field
	fieldPhyupdReqVal   csr.Field
	fieldPhyupdReqOvr   csr.Field
	fieldPhyupdEvtVal   csr.Field
	fieldPhyupdEvtOvr   csr.Field
	fieldPhyupdAckSta   csr.Field
}

// NewRegs constructs the register interface over the DFI CTRLUPD/
// PHYUPD windows.
func NewRegs(dfi *csr.Region) *Regs {
	return &Regs{
		dfi: dfi,

		fieldCtrlupdAckVal:  csr.NewField(0x00, 0, 0),
		fieldCtrlupdAckOvr:  csr.NewField(0x00, 1, 1),
		fieldCtrlupdEvt1Val: csr.NewField(0x00, 2, 2),
		fieldCtrlupdEvt1Ovr: csr.NewField(0x00, 3, 3),
		fieldCtrlupdReqSta:  csr.NewField(0x04, 0, 0),

		fieldPhyupdType:   csr.NewField(0x08, 0, 1),
		fieldPhyupdReqVal: csr.NewField(0x08, 2, 2),
		fieldPhyupdReqOvr: csr.NewField(0x08, 3, 3),
		fieldPhyupdEvtVal: csr.NewField(0x08, 4, 4),
		fieldPhyupdEvtOvr: csr.NewField(0x08, 5, 5),
		fieldPhyupdAckSta: csr.NewField(0x0C, 0, 0),
	}
}

// SetCtrlupdAck is the port of the DDR_DFI_CTRLUPD_IF_CFG_SW_ACK_*
// field-pair writes: value first, override second.
func (r *Regs) SetCtrlupdAck(value, override bool) {
	r.fieldCtrlupdAckVal.Write(r.dfi, b2u(value))
	r.fieldCtrlupdAckOvr.Write(r.dfi, b2u(override))
}

// SetCtrlupdEvent1 is the port of the SW_EVENT_1 assert-then-deassert
// pulse dfi_update_state_cal drives around the ACK deassertion.
func (r *Regs) SetCtrlupdEvent1(value, override bool) {
	r.fieldCtrlupdEvt1Val.Write(r.dfi, b2u(value))
	r.fieldCtrlupdEvt1Ovr.Write(r.dfi, b2u(override))
}

// CtrlupdReqAsserted is the port of reading
// DDR_DFI_CTRLUPD_IF_STA_REQ.
func (r *Regs) CtrlupdReqAsserted() bool {
	return r.fieldCtrlupdReqSta.Read(r.dfi) != 0
}

// SetPhyupdRequest is the port of dfi_set_phyupd_req_reg_if: the
// update type, then the override enable, then the request value, the
// exact write order dfi_update_state_req uses.
func (r *Regs) SetPhyupdRequest(t PhyupdType, value, override bool) {
	r.fieldPhyupdType.Write(r.dfi, uint32(t))
	r.fieldPhyupdReqOvr.Write(r.dfi, b2u(override))
	r.fieldPhyupdReqVal.Write(r.dfi, b2u(value))
}

// SetPhyupdEvent is the port of the SW_EVENT/SW_EVENT_OVR pulse
// dfi_update_state_update_exit drives to signal PHYUPD exit.
func (r *Regs) SetPhyupdEvent(value, override bool) {
	r.fieldPhyupdEvtOvr.Write(r.dfi, b2u(override))
	r.fieldPhyupdEvtVal.Write(r.dfi, b2u(value))
}

// PhyupdAckAsserted is the port of reading DDR_DFI_PHYUPD_IF_STA_ACK.
func (r *Regs) PhyupdAckAsserted() bool {
	return r.fieldPhyupdAckSta.Read(r.dfi) != 0
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
