package messenger

import (
	"errors"
	"fmt"

	"periph.io/x/d2xx"
)

// FTDITransport bridges the byte-framed wire protocol over a
// USB-attached FTDI chip via periph.io/x/d2xx's raw bulk transport,
// grounded on ftdi/handle.go's Read/Write chunking (a
// GetQueueStatus-gated read, a 4KiB-chunked write loop) but skipping
// all of ftdi.Dev's MPSSE/I2C/SPI bring-up — the messenger only needs
// a raw byte pipe, not a configured bus.
//
// This is a bench/bring-up transport only: on real hardware the
// core's mailbox is a register-backed FIFO (base spec §1 non-goal:
// "the host messenger's transport bytes-on-the-wire framing details
// beyond the documented event/payload shape"), not a USB link. It
// exists so the firmware core can be exercised end-to-end from a test
// rig driving an FT232H.
type FTDITransport struct {
	h d2xx.Handle
}

// OpenFTDITransport opens the i'th connected FTDI device as a raw
// byte transport. Only usable when d2xx.Available is true (the
// d2xx CGo path built); callers should check d2xx.Available
// themselves before calling this, the same way ftdi/driver.go gates
// its own registration on it.
func OpenFTDITransport(i int) (*FTDITransport, error) {
	h, e := d2xx.Open(i)
	if e != 0 {
		return nil, fmt.Errorf("messenger: open FTDI device %d: %s", i, e.String())
	}
	return &FTDITransport{h: h}, nil
}

// Read returns whatever the device currently has queued, up to
// len(b), the port of ftdi/handle.go's handle.Read.
func (t *FTDITransport) Read(b []byte) (int, error) {
	p, e := t.h.GetQueueStatus()
	if e != 0 {
		return 0, fmt.Errorf("messenger: GetQueueStatus: %s", e.String())
	}
	v := int(p)
	if v > len(b) {
		v = len(b)
	}
	if v == 0 {
		return 0, nil
	}
	n, e := t.h.Read(b[:v])
	if e != 0 {
		return n, fmt.Errorf("messenger: read: %s", e.String())
	}
	return n, nil
}

// Write blocks until all of b is written, chunked the same way
// handle.Write is, the port of ftdi/handle.go's handle.Write.
func (t *FTDITransport) Write(b []byte) (int, error) {
	written := 0
	for written != len(b) {
		chunk := len(b) - written
		if chunk > 4096 {
			chunk = 4096
		}
		n, e := t.h.Write(b[written : written+chunk])
		if e != 0 {
			return written + n, fmt.Errorf("messenger: write: %s", e.String())
		}
		if n == 0 {
			return written, errors.New("messenger: short write")
		}
		written += n
	}
	return written, nil
}

// Close releases the underlying device handle.
func (t *FTDITransport) Close() error {
	if e := t.h.Close(); e != 0 {
		return fmt.Errorf("messenger: close: %s", e.String())
	}
	return nil
}
