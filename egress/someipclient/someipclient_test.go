package someipclient

import (
	"encoding/binary"
	"testing"

	"github.com/snksoft/crc"
)

func TestFrameAppendsMatchingCRC32Trailer(t *testing.T) {
	payload := []byte{1, 0x02, 0x58}
	f := frame(svcBuzzer, payload)

	if len(f) != 1+len(payload)+4 {
		t.Fatalf("expected frame length %d, got %d", 1+len(payload)+4, len(f))
	}

	body := f[:len(f)-4]
	gotTrailer := binary.BigEndian.Uint32(f[len(f)-4:])
	wantTrailer := uint32(crc.CalculateCRC(crc.CRC32, body))
	if gotTrailer != wantTrailer {
		t.Errorf("trailer mismatch: got %x want %x", gotTrailer, wantTrailer)
	}
	if body[0] != svcBuzzer {
		t.Errorf("expected first byte to be the service id, got %d", body[0])
	}
}

func TestSendBeforeOpenReturnsErrNotConnected(t *testing.T) {
	c := New("127.0.0.1:0")
	if err := c.BuzzerControl(true, 500); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected before Open, got %v", err)
	}
}

func TestLedServiceUnknownSide(t *testing.T) {
	if _, err := ledService(99); err == nil {
		t.Error("expected an error for an unrecognized LED side")
	}
}
