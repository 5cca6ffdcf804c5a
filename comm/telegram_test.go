package comm

import (
	"bytes"
	"testing"
)

func TestTelegramRoundTrip(t *testing.T) {
	words := []uint32{
		0x000000,
		0x308000,
		0xF00000,
		0x37FFFF,
		// bytes that collide with the framing characters must survive
		// escaping: 0x0D, 0x0A and 0x5E in one word
		0x0D0A5E,
	}
	for _, nbytes := range []int{3, 4} {
		for _, w := range words {
			tele := EncodeWord(w, nbytes)
			got, err := DecodeWord(tele, nbytes)
			if err != nil {
				t.Errorf("nbytes=%d word=%06X: decode error %v", nbytes, w, err)
				continue
			}
			if got != w {
				t.Errorf("nbytes=%d: expected %06X got %06X", nbytes, w, got)
			}
		}
	}
}

func TestTelegramFraming(t *testing.T) {
	tele := EncodeWord(0x308000, 3)
	if tele[0] != telStart {
		t.Errorf("telegram must begin with SOT, got %02X", tele[0])
	}
	if tele[len(tele)-1] != telEnd {
		t.Errorf("telegram must end with EOT, got %02X", tele[len(tele)-1])
	}
	for _, b := range tele[1 : len(tele)-1] {
		if b == telStart || b == telEnd {
			t.Errorf("framing byte %02X leaked into the escaped body", b)
		}
	}
}

func TestDecodeRejectsCorruptCRC(t *testing.T) {
	tele := EncodeWord(0x308000, 3)
	// flip a payload bit without touching the framing bytes
	mangled := make([]byte, len(tele))
	copy(mangled, tele)
	mangled[2] ^= 0x01
	if _, err := DecodeWord(mangled, 3); err != ErrCRCMismatch {
		t.Errorf("expected ErrCRCMismatch, got %v", err)
	}
}

func TestDecodeRejectsBadBounds(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x01, 0x02, 0x03},
		{telEnd, 0x30, telStart},
		{telStart, 0x30, 0x80},
		{telStart, telEnd},
	}
	for i, tele := range cases {
		if _, err := DecodeWord(tele, 3); err != ErrTelegramBounds {
			t.Errorf("case %d: expected ErrTelegramBounds, got %v", i, err)
		}
	}
}

func TestCRCKnownVector(t *testing.T) {
	// CRC-16/XMODEM check value for the standard "123456789" input
	got := crcHelper([]byte("123456789"))
	if got[0] != 0x31 || got[1] != 0xC3 {
		t.Errorf("expected 31C3, got %02X%02X", got[0], got[1])
	}
}

func TestSanitizeRoundTrip(t *testing.T) {
	data := []byte{0x0A, 0x0D, 0x5E, 0x30, 0x80, 0x00}
	clean := sanitize(data)
	for _, b := range clean {
		if b == telStart || b == telEnd {
			t.Errorf("sanitized data contains framing byte %02X", b)
		}
	}
	back := reverseSanitize(clean)
	if !bytes.Equal(back, data) {
		t.Errorf("expected %X got %X", data, back)
	}
}
