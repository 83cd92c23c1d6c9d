package messenger

import (
	"github.com/waviousllc/wav-lpddr-sw-sub000/coordinator"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// Poster is the subset of coordinator.Task a Dispatcher needs: post a
// message and get back its final status. Narrowed to an interface so
// tests can substitute a fake without standing up a full coordinator.
type Poster interface {
	Post(msg coordinator.Message) wddr.Status
}

// Dispatcher decodes inbound wire frames and turns them into
// coordinator events, replying on the wire with whatever the
// coordinator's handling of the event produced. This is the Go analogue
// of main.c's handle_message: the messenger task owns no PHY state of
// its own, it only translates between the wire format and C8's event
// queue.
type Dispatcher struct {
	Task Poster
}

// NewDispatcher constructs a Dispatcher wired to task.
func NewDispatcher(task Poster) *Dispatcher {
	return &Dispatcher{Task: task}
}

// HandleFrame decodes one inbound frame and returns the reply frame to
// write back on the wire. Any frame type other than a frequency-prep
// request, including the boot-response frame the core only ever
// sends, returns a nil reply and ErrWrongType.
func (d *Dispatcher) HandleFrame(f Frame) ([]byte, error) {
	switch f.Type {
	case EventWDDRFreqPrepReq:
		freqID, err := DecodeFreqPrepReq(f)
		if err != nil {
			return nil, err
		}
		status := d.Task.Post(coordinator.Message{Event: coordinator.EventPrep, FreqID: freqID})
		return EncodeFreqPrepResp(freqID, status), nil
	default:
		return nil, ErrWrongType
	}
}
