// Package dfi builds LPDDR4 command address frames and assembles them
// into DFI packet sequences (base spec components C3/C4): the command
// builder (C4) encodes JEDEC CA-pin patterns for MRW/MRR/read/write/
// MPC/self-refresh/CBT commands; the packet engine (C3) lays those
// frames out into timestamped DFI TX packets and parses RX packets
// back for comparison during training.
package dfi

import "github.com/waviousllc/wav-lpddr-sw-sub000/wddr"

// ChipSelect names which DRAM rank a command addresses.
type ChipSelect uint8

const (
	CS0 ChipSelect = iota
	CS1
)

// BurstLength is the LPDDR4 BL16/BL32 selector.
type BurstLength uint8

const (
	BL16 BurstLength = iota
	BL32
)

// Type names the class of command a Command frame was built for,
// the port of command_type_t.
type Type uint8

const (
	TypeWrite Type = iota
	TypeRead
	TypeMRW
	TypeMRR
	TypeSR
	TypeCBT
)

// MaxModeRegister is the highest mode-register number defined by
// JEDEC 209-4C section 3.4.1; create_write/read_mode_register_command
// silently rejects anything above it.
const MaxModeRegister uint8 = 0x28

// CA-pin encodings for the command types this package emits,
// ported from command.c's *_CA_PINS constants.
const (
	caWrite1  = 0b000100
	caRead1   = 0b000010
	caMPC1    = 0b100000
	caWrFifo2 = 0b000111
	caRdFifo2 = 0b000001
	caRdDq2   = 0b000011
	caCAS2    = 0b010010
	caMRW1    = 0b000110
	caMRW2    = 0b010110
	caMRR1    = 0b001110
	caSRE1    = 0b011000
	caSRX1    = 0b010100
	caRFAB1   = 0b101000
)

// MaxCommandFrames is the number of CA frames a single LPDDR4 command
// occupies on the CA bus, one per DFI phase at 1:4 DRAM:DFI ratio.
const MaxCommandFrames = wddr.MaxCommandFrames

// Frame is one single-cycle CA-bus frame: chip-select level and the
// 6-bit CA pin pattern for that cycle.
type Frame struct {
	CS     uint8
	CAPins uint8
}

// Command is a fully encoded LPDDR4 command: MaxCommandFrames CA
// frames plus the command's type, used by the packet builder to lay
// the frames into a DFI TX packet sequence.
type Command struct {
	Type    Type
	Address [MaxCommandFrames]Frame
}

func setChipSelect(cmd *Command, cs ChipSelect) {
	high := uint8(1) << uint8(cs)
	cmd.Address[0].CS = high
	cmd.Address[1].CS = 0
	cmd.Address[2].CS = high
	cmd.Address[3].CS = 0
}

// NewWriteCommand builds a LPDDR4 WRITE command for the given bank,
// column, burst length, and auto-precharge selection.
func NewWriteCommand(cs ChipSelect, bank, column uint8, ap uint8, bl BurstLength) Command {
	blBit := uint8(0)
	if bl == BL32 {
		blBit = 1
	}
	var cmd Command
	cmd.Type = TypeWrite
	cmd.Address[0].CAPins = caWrite1 | blBit<<5
	cmd.Address[1].CAPins = (bank & 0x7) | ((column & 0x80) >> 3) | (ap << 5)
	cmd.Address[2].CAPins = caCAS2 | (column&0x40)>>1
	cmd.Address[3].CAPins = column & 0x3F
	setChipSelect(&cmd, cs)
	return cmd
}

// NewReadCommand builds a LPDDR4 READ command.
func NewReadCommand(cs ChipSelect, bank, column uint8, ap uint8, bl BurstLength) Command {
	blBit := uint8(0)
	if bl == BL32 {
		blBit = 1
	}
	var cmd Command
	cmd.Type = TypeRead
	cmd.Address[0].CAPins = caRead1 | blBit<<5
	cmd.Address[1].CAPins = (bank & 0x7) | ((column & 0x80) >> 3) | (ap << 5)
	cmd.Address[2].CAPins = caCAS2 | (column&0x40)>>1
	cmd.Address[3].CAPins = column & 0x3F
	setChipSelect(&cmd, cs)
	return cmd
}

// NewMRWCommand builds a MODE REGISTER WRITE. It returns ok=false and
// the zero Command, matching create_write_mode_register_command's
// silent no-op, when register is out of the JEDEC-defined range.
func NewMRWCommand(cs ChipSelect, register, op uint8) (Command, bool) {
	if register > MaxModeRegister {
		return Command{}, false
	}
	var cmd Command
	cmd.Type = TypeMRW
	cmd.Address[0].CAPins = caMRW1 | (op&0x80)>>2
	cmd.Address[1].CAPins = register & 0x3F
	cmd.Address[2].CAPins = caMRW2 | (op&0x40)>>1
	cmd.Address[3].CAPins = op & 0x3F
	setChipSelect(&cmd, cs)
	return cmd, true
}

// NewMRRCommand builds a MODE REGISTER READ. Per JEDEC 209-4C
// §4.46.1 note 8, C[8:2] is assumed zero for MRR.
func NewMRRCommand(cs ChipSelect, register uint8) (Command, bool) {
	if register > MaxModeRegister {
		return Command{}, false
	}
	var cmd Command
	cmd.Type = TypeMRR
	cmd.Address[0].CAPins = caMRR1
	cmd.Address[1].CAPins = register & 0x3F
	cmd.Address[2].CAPins = caCAS2
	cmd.Address[3].CAPins = 0
	setChipSelect(&cmd, cs)
	return cmd, true
}

// NewMPCCommand builds a MULTIPURPOSE COMMAND frame with the given
// 6-bit opcode (used directly by NewWriteFIFOCommand / NewReadFIFOCommand
// / NewReadDQCommand for their fixed opcodes).
func NewMPCCommand(cs ChipSelect, op uint8) Command {
	var cmd Command
	cmd.Type = TypeWrite
	cmd.Address[0].CAPins = caMPC1
	cmd.Address[1].CAPins = op & 0x3F
	cmd.Address[2].CAPins = caCAS2
	cmd.Address[3].CAPins = 0
	setChipSelect(&cmd, cs)
	return cmd
}

// NewWriteFIFOCommand builds the MPC WRFIFO sequence used to push
// training write data into the DRAM's FIFO test mode.
func NewWriteFIFOCommand(cs ChipSelect) Command {
	cmd := NewMPCCommand(cs, caWrFifo2)
	cmd.Type = TypeWrite
	return cmd
}

// NewReadFIFOCommand builds the MPC RDFIFO sequence.
func NewReadFIFOCommand(cs ChipSelect) Command {
	cmd := NewMPCCommand(cs, caRdFifo2)
	cmd.Type = TypeRead
	return cmd
}

// NewReadDQCommand builds the MPC RDDQ sequence used by DQ/DQS
// training.
func NewReadDQCommand(cs ChipSelect) Command {
	cmd := NewMPCCommand(cs, caRdDq2)
	cmd.Type = TypeRead
	return cmd
}

// NewSelfRefreshEntryCommand builds a SRE command.
func NewSelfRefreshEntryCommand(cs ChipSelect) Command {
	var cmd Command
	cmd.Type = TypeSR
	cmd.Address[0].CAPins = caSRE1
	setChipSelect(&cmd, cs)
	return cmd
}

// NewSelfRefreshExitCommand builds a SRX command.
func NewSelfRefreshExitCommand(cs ChipSelect) Command {
	var cmd Command
	cmd.Type = TypeSR
	cmd.Address[0].CAPins = caSRX1
	setChipSelect(&cmd, cs)
	return cmd
}

// NewRefreshAllBanksCommand builds a REFAB command.
func NewRefreshAllBanksCommand(cs ChipSelect) Command {
	var cmd Command
	cmd.Type = TypeSR
	cmd.Address[0].CAPins = caRFAB1
	setChipSelect(&cmd, cs)
	return cmd
}

// NewCBTCommand builds the single-cycle CA write used during Command
// Bus Training: CA driven at frame 1 (not frame 0) with CS asserted
// only on that frame, matching create_cbt_write_frame's unusual
// timing versus every other command in this file.
func NewCBTCommand(cs ChipSelect, caVal uint8) Command {
	var cmd Command
	cmd.Type = TypeCBT
	cmd.Address[1].CAPins = caVal
	cmd.Address[1].CS = uint8(1) << uint8(cs)
	return cmd
}
