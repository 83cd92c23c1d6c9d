package board

import (
	"github.com/waviousllc/wav-lpddr-sw-sub000/ftdi"

	"periph.io/x/conn/v3/gpio/gpioreg"
)

// AliasFTDIBoard registers every IRQ/strap line name against one of
// dev's GPIO pins, so Open can resolve them from a USB-attached
// FT232H breakout instead of a real SoC header — useful for exercising
// the firmware core end to end on a bench rig with no target board.
// Grounded on ftdi/driver.go's own registerDev, which does the same
// full-name-to-shorthand aliasing for its own header pins; this
// performs the second hop, from this package's board-level line names
// to whichever FT232H pin a bench rig happened to wire.
//
// D1 is excluded: it's typed PinStreamOut, not a plain input/output pin.
func AliasFTDIBoard(dev *ftdi.FT232H) error {
	pairs := []struct {
		name string
		pin  interface{ Name() string }
	}{
		{IRQHost2PhyReq, dev.D0},
		{IRQPhy2HostAck, dev.D2},
		{IRQInitStart, dev.D3},
		{IRQInitComplete, dev.D4},
		{IRQPLLLossOfLock, dev.D5},
		{IRQPLLInitSwitch, dev.D6},
		{IRQPLLCoreLocked, dev.D7},
		{IRQPhyupdAck, dev.C0},
		{IRQPhymstrAck, dev.C1},
		{IRQCtrlupdReq, dev.C2},
		{IRQTimer, dev.C3},
		{StrapBootFreq, dev.C4},
	}
	for _, p := range pairs {
		if err := gpioreg.RegisterAlias(p.name, p.pin.Name()); err != nil {
			return err
		}
	}
	return nil
}
