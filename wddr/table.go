package wddr

import "periph.io/x/conn/v3/physic"

// PhyFrequencyId indexes the FrequencyTable. Id 0 is the boot
// frequency: a low, stable setting used for bring-up and CBT "safe"
// operation.
type PhyFrequencyId uint8

// BootFrequencyId is the index reserved for the boot frequency.
const BootFrequencyId PhyFrequencyId = 0

// FreqRatio is the DFI clock ratio between the PHY and the DRAM
// interface. Centralising ratio-dependent constants here avoids
// repeating `MAX_COMMAND_FRAMES >> ratio` style arithmetic at every
// call site.
type FreqRatio uint8

const (
	Ratio1to1 FreqRatio = iota
	Ratio1to2
	Ratio1to4
)

// MaxCommandFrames is the number of CA frames that make up one
// complete LPDDR4 command at the slowest (1:1) ratio.
const MaxCommandFrames = 4

// NumCommandFrames returns how many packets a command needs to be
// split across at this ratio: MAX_COMMAND_FRAMES >> ratio.
func (r FreqRatio) NumCommandFrames() int {
	return MaxCommandFrames >> uint(r)
}

// CyclesPerPacket is 1 << ratio: how many DRAM cycles one DFI packet
// phase-group spans at this ratio.
func (r FreqRatio) CyclesPerPacket() int {
	return 1 << uint(r)
}

// PhasesPerCycle is the number of DFI sub-phases carried per PHY clock
// at this ratio: 4 at 1:1, 8 at 1:2 and 1:4.
func (r FreqRatio) PhasesPerCycle() int {
	if r == Ratio1to1 {
		return 4
	}
	return 8
}

// PllConfig is the per-frequency PLL programming: VCO selection and
// band/fine calibration codes.
type PllConfig struct {
	VCOId  uint8
	Band   uint16
	Fine   uint16
	Ratio  FreqRatio
	RefDiv uint16
}

// DfiTiming holds the per-frequency DFI timing overrides that must be
// reprogrammed on every frequency switch.
type DfiTiming struct {
	ReadLatency  uint8
	WriteLatency uint8
	CSWindow     uint8
	CKEnWindow   uint8
	TrafficOvr   bool
}

// DramModeRegs mirrors the LPDDR4 mode registers the firmware must
// keep consistent across a frequency switch.
type DramModeRegs struct {
	MR1  uint8
	MR2  uint8
	MR11 uint8
	MR12 uint8
	MR13 uint8
	MR14 uint8
}

// CommonConfig holds frequency-independent-in-shape but per-frequency
// valued common-analog settings: reference voltage and ZQ calibration.
type CommonConfig struct {
	VrefCfg  uint16
	VrefCal  uint16
	ZQCalCfg uint16
	ZQCalCal uint16
}

// FrequencyEntry is one row of the FrequencyTable: everything prep
// needs to program the PHY for a given PhyFrequencyId.
type FrequencyEntry struct {
	Id        PhyFrequencyId
	Clock     physic.Frequency
	PLL       PllConfig
	Common    CommonConfig
	Channels  [NumChannels]ChannelState
	Dram      DramModeRegs
	DfiTiming DfiTiming
}

// FrequencyTable is the PHY device's owned, mutable configuration
// table: `freq_id -> FrequencyEntry`. It is populated at boot from a
// static blob (DeclareTable) and mutated in place by training;
// mutation only happens from coordinator context (§5), never
// concurrently with prep.
type FrequencyTable struct {
	entries []FrequencyEntry
}

// DeclareTable builds a FrequencyTable from a static list of entries,
// the Go analogue of the original firmware's DECLARE_WDDR_TABLE(name)
// macro-generated blob. Entries must be supplied in PhyFrequencyId
// order starting at BootFrequencyId.
func DeclareTable(entries []FrequencyEntry) *FrequencyTable {
	t := &FrequencyTable{entries: make([]FrequencyEntry, len(entries))}
	copy(t.entries, entries)
	return t
}

// Get returns a pointer to the entry for id, or nil if id is out of
// range. The pointer aliases the table's own storage: callers in
// coordinator context may mutate it in place (training result commit).
func (t *FrequencyTable) Get(id PhyFrequencyId) *FrequencyEntry {
	if int(id) >= len(t.entries) {
		return nil
	}
	return &t.entries[id]
}

// Len returns the number of frequency entries in the table.
func (t *FrequencyTable) Len() int {
	return len(t.entries)
}
