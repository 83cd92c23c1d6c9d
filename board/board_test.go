package board_test

import (
	"fmt"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/waviousllc/wav-lpddr-sw-sub000/board"
)

// fakePin is the minimal gpio.PinIn a hosted test can register under
// gpioreg without any real board wiring.
type fakePin struct {
	name       string
	level      gpio.Level
	armedPull  gpio.Pull
	armedEdge  gpio.Edge
	armedCalls int
}

func (p *fakePin) Name() string                   { return p.name }
func (p *fakePin) Number() int                     { return -1 }
func (p *fakePin) Function() string                { return "" }
func (p *fakePin) String() string                  { return p.name }
func (p *fakePin) Halt() error                     { return nil }
func (p *fakePin) Read() gpio.Level                { return p.level }
func (p *fakePin) WaitForEdge(time.Duration) bool  { return false }
func (p *fakePin) Pull() gpio.Pull                 { return gpio.PullNoChange }
func (p *fakePin) DefaultPull() gpio.Pull          { return gpio.PullNoChange }
func (p *fakePin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.armedPull = pull
	p.armedEdge = edge
	p.armedCalls++
	return nil
}

var _ gpio.PinIn = &fakePin{}

func registerAll(t *testing.T) map[string]*fakePin {
	t.Helper()
	names := []string{
		board.IRQHost2PhyReq, board.IRQPhy2HostAck, board.IRQInitStart,
		board.IRQInitComplete, board.IRQPLLLossOfLock, board.IRQPLLInitSwitch,
		board.IRQPLLCoreLocked, board.IRQPhyupdAck, board.IRQPhymstrAck,
		board.IRQCtrlupdReq, board.IRQTimer, board.StrapBootFreq,
	}
	pins := map[string]*fakePin{}
	for _, n := range names {
		p := &fakePin{name: n}
		if err := gpioreg.Register(p); err != nil {
			t.Fatalf("Register(%s): %v", n, err)
		}
		t.Cleanup(func() { gpioreg.Unregister(p.name) })
		pins[n] = p
	}
	return pins
}

func TestOpenArmsEveryLine(t *testing.T) {
	pins := registerAll(t)

	lines, err := board.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if lines.Host2PhyReq == nil || lines.Timer == nil || lines.BootFreqStrap == nil {
		t.Fatalf("Open left a line unresolved: %+v", lines)
	}
	if pins[board.IRQCtrlupdReq].armedEdge != gpio.BothEdges {
		t.Fatalf("CTRLUPD_REQ armed edge = %v, want BothEdges", pins[board.IRQCtrlupdReq].armedEdge)
	}
	if pins[board.IRQHost2PhyReq].armedEdge != gpio.RisingEdge {
		t.Fatalf("HOST2PHY_REQ armed edge = %v, want RisingEdge", pins[board.IRQHost2PhyReq].armedEdge)
	}
	if pins[board.StrapBootFreq].armedCalls != 1 {
		t.Fatalf("boot-strap pin armed %d times, want 1", pins[board.StrapBootFreq].armedCalls)
	}
}

func TestOpenErrorsOnMissingLine(t *testing.T) {
	// Register every line except one.
	names := []string{
		board.IRQHost2PhyReq, board.IRQPhy2HostAck, board.IRQInitStart,
		board.IRQInitComplete, board.IRQPLLLossOfLock, board.IRQPLLInitSwitch,
		board.IRQPLLCoreLocked, board.IRQPhyupdAck, board.IRQPhymstrAck,
		board.IRQCtrlupdReq, board.IRQTimer,
	}
	for _, n := range names {
		p := &fakePin{name: n}
		if err := gpioreg.Register(p); err != nil {
			t.Fatalf("Register(%s): %v", n, err)
		}
		t.Cleanup(func() { gpioreg.Unregister(p.name) })
	}

	if _, err := board.Open(); err == nil {
		t.Fatalf("Open succeeded without %s registered, want error", board.StrapBootFreq)
	} else if got := err.Error(); got == "" {
		t.Fatalf("Open returned an empty error")
	} else {
		want := fmt.Sprintf("board: line %q is not registered", board.StrapBootFreq)
		if got != want {
			t.Fatalf("Open error = %q, want %q", got, want)
		}
	}
}

func TestReadBootFreqReflectsStrapLevel(t *testing.T) {
	pins := registerAll(t)
	lines, err := board.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	pins[board.StrapBootFreq].level = gpio.Low
	if got := lines.ReadBootFreq(); got != 0 {
		t.Fatalf("ReadBootFreq() = %d, want 0 for Low strap", got)
	}
	pins[board.StrapBootFreq].level = gpio.High
	if got := lines.ReadBootFreq(); got != 1 {
		t.Fatalf("ReadBootFreq() = %d, want 1 for High strap", got)
	}
}
