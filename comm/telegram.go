package comm

import (
	"bytes"
	"encoding/binary"

	"github.com/snksoft/crc"
)

const (
	// telStart is the start of telegram byte
	telStart = 0x0D

	// telEnd is the end of telegram byte
	telEnd = 0x0A

	// specialCharFirstReplacement is the first byte used to replace a
	// special character
	specialCharFirstReplacement = 0x5E

	// specialCharShift is the amount special characters are shifted up.
	// special characters max out at 0x5E, so we will never overflow
	specialCharShift = 0x40
)

var (
	// specialChars must not appear in a telegram body and are escaped
	specialChars = []byte{0x0A, 0x0D, 0x5E}

	crcTable = crc.NewTable(crc.XMODEM)
)

// crcHelper computes the two-byte CRC value in a concurrent safe way and one line
func crcHelper(buf []byte) []byte {
	crcUint := crcTable.InitCrc()
	crcUint = crcTable.UpdateCrc(crcUint, buf)
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, crcTable.CRC16(crcUint))
	return out
}

func sanitize(data []byte) []byte {
	out := []byte{}
	for _, b := range data {
		if bytes.Contains(specialChars, []byte{b}) {
			out = append(out, specialCharFirstReplacement, b+specialCharShift)
		} else {
			out = append(out, b)
		}
	}
	return out
}

func reverseSanitize(data []byte) []byte {
	out := []byte{}
	subNext := false
	for _, b := range data {
		if b == specialCharFirstReplacement {
			// substitution marker, subtract from the next byte
			subNext = true
		} else {
			if subNext {
				b = b - specialCharShift
			}
			out = append(out, b)
			subNext = false
		}
	}
	return out
}

// telegrams are encoded as [SOT][WORD BYTES][CRC][EOT].  the word is big
// endian, 3 or 4 bytes depending on the configured frame width, and the CRC
// is CRC-16/CCITT XMODEM over the word bytes.  the body and CRC are escaped
// so SOT and EOT are unambiguous.

// EncodeWord produces the telegram carrying one frame word.  nbytes is 3 for
// 24-bit frames and 4 for 32-bit frames.
func EncodeWord(word uint32, nbytes int) []byte {
	if nbytes != 4 {
		nbytes = 3
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, word)
	buf = buf[4-nbytes:]
	body := sanitize(buf)
	crcBytes := sanitize(crcHelper(buf))

	out := append([]byte{telStart}, body...)
	out = append(out, crcBytes...)
	out = append(out, telEnd)
	return out
}

// DecodeWord renders a raw telegram back into a frame word, verifying the
// CRC.  Anything outside the start and end bytes is dropped.
func DecodeWord(tele []byte, nbytes int) (uint32, error) {
	if nbytes != 4 {
		nbytes = 3
	}
	iStart := bytes.IndexByte(tele, telStart)
	iEnd := bytes.IndexByte(tele, telEnd)
	if iStart == -1 || iEnd == -1 || iEnd < iStart {
		return 0, ErrTelegramBounds
	}
	tele = reverseSanitize(tele[iStart+1 : iEnd])
	if len(tele) != nbytes+2 {
		return 0, ErrTelegramBounds
	}

	body := tele[:nbytes]
	crcRecv := tele[nbytes:]
	if !bytes.Equal(crcRecv, crcHelper(body)) {
		return 0, ErrCRCMismatch
	}

	padded := make([]byte, 4)
	copy(padded[4-nbytes:], body)
	return binary.BigEndian.Uint32(padded), nil
}
