package messenger_test

import (
	"testing"

	"github.com/waviousllc/wav-lpddr-sw-sub000/messenger"
	"github.com/waviousllc/wav-lpddr-sw-sub000/wddr"
)

func TestEncodeDecodeFrameRoundTrips(t *testing.T) {
	f := messenger.Frame{Type: messenger.EventWDDRFreqPrepReq, Payload: 0x0000000A}
	buf := messenger.EncodeFrame(f)
	if len(buf) != messenger.FrameSize {
		t.Fatalf("encoded length = %d, want %d", len(buf), messenger.FrameSize)
	}

	got, err := messenger.DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if got != f {
		t.Fatalf("DecodeFrame = %+v, want %+v", got, f)
	}
}

func TestDecodeFrameTooShort(t *testing.T) {
	if _, err := messenger.DecodeFrame([]byte{0x01, 0x02}); err != messenger.ErrShortFrame {
		t.Fatalf("DecodeFrame(short) = %v, want ErrShortFrame", err)
	}
}

func TestFreqPrepReqRoundTrip(t *testing.T) {
	buf := messenger.EncodeFreqPrepReq(9)
	f, err := messenger.DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	freqID, err := messenger.DecodeFreqPrepReq(f)
	if err != nil {
		t.Fatalf("DecodeFreqPrepReq: %v", err)
	}
	if freqID != 9 {
		t.Fatalf("freqID = %d, want 9", freqID)
	}
}

func TestFreqPrepReqRejectsWrongType(t *testing.T) {
	f := messenger.Frame{Type: messenger.EventGeneralMCUBootResp}
	if _, err := messenger.DecodeFreqPrepReq(f); err != messenger.ErrWrongType {
		t.Fatalf("DecodeFreqPrepReq(wrong type) = %v, want ErrWrongType", err)
	}
}

func TestFreqPrepReqMasksToFourBits(t *testing.T) {
	// freq_id is only bits [3:0] on the wire; a caller passing a larger
	// value should still round-trip the masked value, the port of
	// GET_REG_FIELD's field-width truncation.
	buf := messenger.EncodeFreqPrepReq(0xFF)
	f, _ := messenger.DecodeFrame(buf)
	freqID, _ := messenger.DecodeFreqPrepReq(f)
	if freqID != 0x0F {
		t.Fatalf("freqID = %#x, want masked to 0xF", freqID)
	}
}

func TestFreqPrepRespEncodesSuccess(t *testing.T) {
	buf := messenger.EncodeFreqPrepResp(3, wddr.StatusSuccess)
	f, _ := messenger.DecodeFrame(buf)
	freqID, ok, err := messenger.DecodeFreqPrepResp(f)
	if err != nil {
		t.Fatalf("DecodeFreqPrepResp: %v", err)
	}
	if freqID != 3 || !ok {
		t.Fatalf("DecodeFreqPrepResp = (%d, %v), want (3, true)", freqID, ok)
	}
}

func TestFreqPrepRespEncodesFailure(t *testing.T) {
	buf := messenger.EncodeFreqPrepResp(3, wddr.StatusError)
	f, _ := messenger.DecodeFrame(buf)
	freqID, ok, err := messenger.DecodeFreqPrepResp(f)
	if err != nil {
		t.Fatalf("DecodeFreqPrepResp: %v", err)
	}
	if freqID != 3 || ok {
		t.Fatalf("DecodeFreqPrepResp = (%d, %v), want (3, false)", freqID, ok)
	}
}

func TestEncodeBootResp(t *testing.T) {
	buf := messenger.EncodeBootResp()
	f, err := messenger.DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if f.Type != messenger.EventGeneralMCUBootResp || f.Payload != 0 {
		t.Fatalf("EncodeBootResp frame = %+v, want {Type: EventGeneralMCUBootResp, Payload: 0}", f)
	}
}
