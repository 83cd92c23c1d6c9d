// Package messenger implements the host-side messenger wire protocol
// (base spec §6 "Host messenger wire events"): a one-octet type
// discriminant followed by a single little-endian u32 payload, ported
// from original_source/app/wddr_main/main.c's Message_t {id, data}
// pair and the WDDR_FREQ_PREP_REQ/RSP field macros. The transport
// bytes on the wire beyond this documented shape are out of scope
// (base spec §1 non-goal); this package only encodes/decodes frames
// and hands decoded events to the coordinator.
package messenger

import (
	"encoding/binary"
	"errors"

	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

// EventType is the wire protocol's one-octet message discriminant,
// the port of message_id_t.
type EventType uint8

const (
	// EventGeneralMCUBootResp is sent by the core once boot completes,
	// the port of MESSAGE_GENERAL_MCU_BOOT_RESP.
	EventGeneralMCUBootResp EventType = iota
	// EventWDDRFreqPrepReq is sent by the host to start a frequency
	// switch, the port of MESSAGE_WDDR_FREQ_PREP_REQ.
	EventWDDRFreqPrepReq
	// EventWDDRFreqPrepResp is sent by the core in reply, the port of
	// MESSAGE_WDDR_FREQ_PREP_RESP.
	EventWDDRFreqPrepResp
)

// freqIDMask is WDDR_FREQ_PREP_REQ__FREQ_ID / ..._RSP__FREQ_ID's field
// width: bits [3:0] of the payload.
const freqIDMask = 0xF

// statusBit is WDDR_FREQ_PREP_RSP__STATUS's field position: bit [7].
// Set means the request failed (ported directly from main.c's
// handle_message, which only ever writes UPDATE_REG_FIELD(...,
// STATUS, 0x1) on the wddr_prep_switch failure path and leaves it 0
// otherwise).
const statusBit = 1 << 7

// FrameSize is the encoded length of every frame: one discriminant
// byte plus a 4-byte little-endian payload.
const FrameSize = 5

// ErrShortFrame is returned by DecodeFrame when buf is too short to
// hold a full frame.
var ErrShortFrame = errors.New("messenger: short frame")

// ErrWrongType is returned by a typed decode helper when the frame's
// EventType doesn't match what the helper expects.
var ErrWrongType = errors.New("messenger: unexpected event type")

// Frame is one decoded wire event.
type Frame struct {
	Type    EventType
	Payload uint32
}

// EncodeFrame serializes f into the wire's fixed 5-byte layout.
func EncodeFrame(f Frame) []byte {
	buf := make([]byte, FrameSize)
	buf[0] = byte(f.Type)
	binary.LittleEndian.PutUint32(buf[1:5], f.Payload)
	return buf
}

// DecodeFrame parses the next frame out of buf.
func DecodeFrame(buf []byte) (Frame, error) {
	if len(buf) < FrameSize {
		return Frame{}, ErrShortFrame
	}
	return Frame{
		Type:    EventType(buf[0]),
		Payload: binary.LittleEndian.Uint32(buf[1:5]),
	}, nil
}

// EncodeBootResp builds the boot-complete frame the core sends once,
// the port of vMainTask's initial Message_t{id: MESSAGE_GENERAL_MCU_BOOT_RESP, data: 0}.
func EncodeBootResp() []byte {
	return EncodeFrame(Frame{Type: EventGeneralMCUBootResp})
}

// DecodeFreqPrepReq extracts the requested frequency ID from a
// WDDR_FREQ_PREP_REQ frame.
func DecodeFreqPrepReq(f Frame) (wddr.PhyFrequencyId, error) {
	if f.Type != EventWDDRFreqPrepReq {
		return 0, ErrWrongType
	}
	return wddr.PhyFrequencyId(f.Payload & freqIDMask), nil
}

// EncodeFreqPrepReq builds a WDDR_FREQ_PREP_REQ frame, for the bench
// side of a loopback transport exercising the core as the host would.
func EncodeFreqPrepReq(freqID wddr.PhyFrequencyId) []byte {
	return EncodeFrame(Frame{Type: EventWDDRFreqPrepReq, Payload: uint32(freqID) & freqIDMask})
}

// EncodeFreqPrepResp builds the WDDR_FREQ_PREP_RESP frame the core
// sends in reply to a prep request, the port of handle_message's
// resp_msg construction.
func EncodeFreqPrepResp(freqID wddr.PhyFrequencyId, status wddr.Status) []byte {
	payload := uint32(freqID) & freqIDMask
	if status != wddr.StatusSuccess {
		payload |= statusBit
	}
	return EncodeFrame(Frame{Type: EventWDDRFreqPrepResp, Payload: payload})
}

// DecodeFreqPrepResp is the bench-side counterpart to
// EncodeFreqPrepResp, parsing the core's reply back into a frequency
// ID and success/failure.
func DecodeFreqPrepResp(f Frame) (freqID wddr.PhyFrequencyId, ok bool, err error) {
	if f.Type != EventWDDRFreqPrepResp {
		return 0, false, ErrWrongType
	}
	return wddr.PhyFrequencyId(f.Payload & freqIDMask), f.Payload&statusBit == 0, nil
}
