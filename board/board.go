// Package board lists the PHY core's IRQ lines and its boot-strap
// pin as named GPIO declarations, the same way nanopi.go/orangepi.go
// list header pins. Base spec §1 scopes actual board/SoC bring-up
// out: "out of scope beyond listing the interrupts the core
// subscribes to". This package stops exactly there — it resolves
// each named line from whatever gpioreg registry a real board
// package (or a hosted test's fake registrations) populated, and arms
// it with the edge the firmware reacts to; it does not know or care
// which SoC header pin backs any of them.
package board

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Interrupt and boot-strap line names, the board-level identifiers a
// real board package registers under gpioreg. Matches base spec §6's
// "Interrupts consumed" list one-for-one, with the PLL's three
// sub-conditions (loss-of-lock, initial-switch-done, core-locked)
// broken into separate named lines, one per sub-condition.
const (
	IRQHost2PhyReq   = "PHY_IRQ_HOST2PHY_REQ"
	IRQPhy2HostAck   = "PHY_IRQ_PHY2HOST_ACK"
	IRQInitStart     = "PHY_IRQ_INIT_START"
	IRQInitComplete  = "PHY_IRQ_INIT_COMPLETE"
	IRQPLLLossOfLock = "PHY_IRQ_PLL_LOSS_OF_LOCK"
	IRQPLLInitSwitch = "PHY_IRQ_PLL_INITIAL_SWITCH_DONE"
	IRQPLLCoreLocked = "PHY_IRQ_PLL_CORE_LOCKED"
	IRQPhyupdAck     = "PHY_IRQ_PHYUPD_ACK"
	IRQPhymstrAck    = "PHY_IRQ_PHYMSTR_ACK"
	IRQCtrlupdReq    = "PHY_IRQ_CTRLUPD_REQ"
	IRQTimer         = "PHY_IRQ_TIMER"

	// StrapBootFreq is the board strap the original reads once at boot
	// to pick the FrequencyTable entry to bring DRAM up on, before the
	// coordinator or any FSM runs.
	StrapBootFreq = "PHY_STRAP_BOOT_FREQ"
)

// IRQLines is every GPIO line the PHY core subscribes to, resolved
// and armed by Open.
type IRQLines struct {
	Host2PhyReq   gpio.PinIn
	Phy2HostAck   gpio.PinIn
	InitStart     gpio.PinIn
	InitComplete  gpio.PinIn
	PLLLossOfLock gpio.PinIn
	PLLInitSwitch gpio.PinIn
	PLLCoreLocked gpio.PinIn
	PhyupdAck     gpio.PinIn
	PhymstrAck    gpio.PinIn
	CtrlupdReq    gpio.PinIn
	Timer         gpio.PinIn

	BootFreqStrap gpio.PinIn
}

type lineSpec struct {
	name string
	dst  *gpio.PinIn
	edge gpio.Edge
}

// Open resolves every IRQ line and the boot-strap pin by name from
// gpioreg and arms each as an input with the edge the firmware reacts
// to. It returns an error naming the first line that isn't
// registered rather than panicking, so a caller without real pin
// wiring (cmd/wddrbench, every test in this module) can register its
// own software-driven stand-ins before calling Open, or skip Open
// entirely and drive the coordinator's events directly.
func Open() (*IRQLines, error) {
	lines := &IRQLines{}
	specs := []lineSpec{
		{IRQHost2PhyReq, &lines.Host2PhyReq, gpio.RisingEdge},
		{IRQPhy2HostAck, &lines.Phy2HostAck, gpio.RisingEdge},
		{IRQInitStart, &lines.InitStart, gpio.RisingEdge},
		{IRQInitComplete, &lines.InitComplete, gpio.RisingEdge},
		{IRQPLLLossOfLock, &lines.PLLLossOfLock, gpio.RisingEdge},
		{IRQPLLInitSwitch, &lines.PLLInitSwitch, gpio.RisingEdge},
		{IRQPLLCoreLocked, &lines.PLLCoreLocked, gpio.RisingEdge},
		{IRQPhyupdAck, &lines.PhyupdAck, gpio.RisingEdge},
		{IRQPhymstrAck, &lines.PhymstrAck, gpio.RisingEdge},
		{IRQCtrlupdReq, &lines.CtrlupdReq, gpio.BothEdges},
		{IRQTimer, &lines.Timer, gpio.RisingEdge},
		{StrapBootFreq, &lines.BootFreqStrap, gpio.NoEdge},
	}

	for _, s := range specs {
		p := gpioreg.ByName(s.name)
		if p == nil {
			return nil, fmt.Errorf("board: line %q is not registered", s.name)
		}
		in, ok := p.(gpio.PinIn)
		if !ok {
			return nil, fmt.Errorf("board: line %q (%s) does not support input", s.name, p.Name())
		}
		if err := in.In(gpio.PullNoChange, s.edge); err != nil {
			return nil, fmt.Errorf("board: arming %q: %w", s.name, err)
		}
		*s.dst = in
	}
	return lines, nil
}

// ReadBootFreq samples the boot-strap pin, the port of the original's
// single boot-time strap read that selects the FrequencyTable entry
// DRAM comes up on before the coordinator starts routing events.
func (l *IRQLines) ReadBootFreq() int {
	if l.BootFreqStrap == nil || l.BootFreqStrap.Read() == gpio.Low {
		return 0
	}
	return 1
}
