package pll

import "github.com/waviousllc/wav-lpddr-sw-sub000/csr"

// vcoStride is the byte span reserved per VCO's register block,
// mirroring the original_source/drivers/pll/pll_vco.c layout where
// VCO0/VCO1/VCO2 each get their own BAND, CONTROL, FLL_CONTROL1, and
// FLL_CONTROL2 registers.
const vcoStride = 0x20

// Offsets within one VCO's register block.
const (
	offBand        csr.Addr = 0x00
	offControl     csr.Addr = 0x04
	offFLLControl1 csr.Addr = 0x10
	offFLLControl2 csr.Addr = 0x14
)

// vcoFields is one VCO's bitfield set, grounded on the
// UPDATE_REG_FIELD calls in pll_vco.c's vco_set_band_reg_if,
// vco_set_fll_control1_reg_if, vco_set_fll_control2_reg_if,
// vco_set_fll_enable_reg_if, and vco_set_enable_reg_if.
type vcoFields struct {
	bandMux csr.Field
	band    csr.Field
	fineMux csr.Field
	fine    csr.Field

	ena    csr.Field
	enaMux csr.Field

	fllBandStart          csr.Field
	fllFineStart          csr.Field
	fllLockCountThreshold csr.Field
	fllEnable             csr.Field

	fllRefclkCount    csr.Field
	fllVCOCountTarget csr.Field
}

// Regs is the PLL/VCO driver's register interface (C2's driver half),
// one vcoFields set per VCO instance over a single CSR region holding
// all three VCOs' register blocks back to back.
type Regs struct {
	region *csr.Region
	vco    [numVCOs]vcoFields
}

// NewRegs constructs the register interface over region, laying out
// each VCO's block at VCOId*vcoStride.
func NewRegs(region *csr.Region) *Regs {
	r := &Regs{region: region}
	for i := VCOId(0); i < numVCOs; i++ {
		base := csr.Addr(i) * vcoStride
		r.vco[i] = vcoFields{
			bandMux: csr.NewField(base+offBand, 0, 0),
			band:    csr.NewField(base+offBand, 1, 7),
			fineMux: csr.NewField(base+offBand, 8, 8),
			fine:    csr.NewField(base+offBand, 9, 15),

			ena:    csr.NewField(base+offControl, 0, 0),
			enaMux: csr.NewField(base+offControl, 1, 1),

			fllBandStart:          csr.NewField(base+offFLLControl1, 0, 6),
			fllFineStart:          csr.NewField(base+offFLLControl1, 7, 13),
			fllLockCountThreshold: csr.NewField(base+offFLLControl1, 14, 21),
			fllEnable:             csr.NewField(base+offFLLControl1, 22, 22),

			fllRefclkCount:    csr.NewField(base+offFLLControl2, 0, 7),
			fllVCOCountTarget: csr.NewField(base+offFLLControl2, 8, 23),
		}
	}
	return r
}

// SetBand is the port of vco_set_band_reg_if, called with mux forced
// true: once the FLL has calibrated a (band, fine) pair the driver
// muxes it in directly rather than leaving the FLL's live tracking
// value selected.
func (r *Regs) SetBand(id VCOId, band, fine uint16) {
	f := r.vco[id]
	f.bandMux.Write(r.region, 1)
	f.band.Write(r.region, uint32(band))
	f.fineMux.Write(r.region, 1)
	f.fine.Write(r.region, uint32(fine))
}

// SetFLLControl1 is the port of vco_set_fll_control1_reg_if: the FLL
// sweep's starting band/fine and its lock-count threshold.
func (r *Regs) SetFLLControl1(id VCOId, bandStart, fineStart, lockCountThreshold uint16) {
	f := r.vco[id]
	f.fllBandStart.Write(r.region, uint32(bandStart))
	f.fllFineStart.Write(r.region, uint32(fineStart))
	f.fllLockCountThreshold.Write(r.region, uint32(lockCountThreshold))
}

// SetFLLControl2 is the port of vco_set_fll_control2_reg_if's refclk
// count and VCO count target fields (the FLL range field is left at
// its reset value; FLLCalibration carries no range parameter to
// drive it with).
func (r *Regs) SetFLLControl2(id VCOId, refclkCount, vcoCountTarget uint16) {
	f := r.vco[id]
	f.fllRefclkCount.Write(r.region, uint32(refclkCount))
	f.fllVCOCountTarget.Write(r.region, uint32(vcoCountTarget))
}

// SetFLLEnable is the port of vco_set_fll_enable_reg_if.
func (r *Regs) SetFLLEnable(id VCOId, enable bool) {
	r.vco[id].fllEnable.Write(r.region, b2u(enable))
}

// SetEnable is the port of vco_set_enable_reg_if: powers the VCO up
// or down, forcing the mux so the driver's value (not a default reset
// state) takes effect.
func (r *Regs) SetEnable(id VCOId, enable bool) {
	f := r.vco[id]
	f.ena.Write(r.region, b2u(enable))
	f.enaMux.Write(r.region, 1)
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
