package backend

import (
	"github.com/waviousllc/wav-lpddr-sw-sub000/csr"
	"periph.io/x/conn/v3/driver/driverreg"
)

// Simulated is the hosted-test register backend: a plain map standing
// in for the PHY register space. This is the Go analogue of the
// original firmware's `posix` target, whose entry points were stubs
// (base spec §9, Open Question 3) — here it is a complete, testable
// Backend, not a placeholder, so it is what satisfies "the core
// contract is whatever the wddr target implements".
type Simulated struct {
	*Map
}

// NewSimulated returns a fresh simulated register backend.
func NewSimulated() *Simulated {
	return &Simulated{Map: NewMap()}
}

var _ csr.Backend = (*Simulated)(nil)

type simDriver struct{}

func (simDriver) String() string {
	return "wddr-csr-sim"
}

func (simDriver) Prerequisites() []string {
	return nil
}

func (simDriver) After() []string {
	return nil
}

func (simDriver) Init() (bool, error) {
	// The simulated backend is always available; it only actually
	// drives anything when a caller asks csr/backend for it directly
	// (cmd/wddrbench does). Registering it lets driverreg.Init()
	// report it as a usable driver on any host, mirroring the way
	// periph-host/gpioioctl registers unconditionally while ftdi
	// gates on d2xx.Available.
	return true, nil
}

func init() {
	driverreg.MustRegister(simDriver{})
}
