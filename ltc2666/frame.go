package ltc2666

import "github.jpl.nasa.gov/bdube/ltcdac/util"

// CommandKind is the 4-bit command nibble of a frame.  The values are the
// LTC2666 instruction set verbatim; 0xE is reserved by the device.
type CommandKind uint8

const (
	// WriteCodeN writes a code to the input register of each masked channel
	WriteCodeN CommandKind = 0x0

	// UpdateN powers up and updates each masked channel
	UpdateN CommandKind = 0x1

	// WriteCodeNUpdateAll writes a code to exactly one channel, then updates
	// all of them.  The mask must have exactly one set bit.
	WriteCodeNUpdateAll CommandKind = 0x2

	// WriteCodeNUpdateN writes a code to each masked channel and updates it
	WriteCodeNUpdateN CommandKind = 0x3

	// PowerDownN powers down each masked channel
	PowerDownN CommandKind = 0x4

	// PowerDownChip powers down all channels, the mux, and the reference
	PowerDownChip CommandKind = 0x5

	// WriteSpanN sets the output span of each masked channel.
	// the span selector is the low 3 bits of the payload
	WriteSpanN CommandKind = 0x6

	// Config writes the configuration bits (low 2 bits of the payload)
	Config CommandKind = 0x7

	// WriteCodeAll writes a code to the input registers of all channels
	WriteCodeAll CommandKind = 0x8

	// UpdateAll powers up and updates all channels
	UpdateAll CommandKind = 0x9

	// WriteCodeAllUpdateAll writes a code to all channels and updates them
	WriteCodeAllUpdateAll CommandKind = 0xA

	// MonitorMux routes an internal node to the mux output.
	// the selector is the low 5 bits of the payload
	MonitorMux CommandKind = 0xB

	// ToggleSelect writes the toggle mask (low 8 bits of the payload)
	ToggleSelect CommandKind = 0xC

	// GlobalToggle writes the global toggle bit (bit 0 of the payload)
	GlobalToggle CommandKind = 0xD

	// NoOp clocks a frame through the device without any effect.  Used as
	// the flush frame to observe the echo of the preceding real frame
	NoOp CommandKind = 0xF
)

// NumChannels is the channel count of the device
const NumChannels = 8

// Soft-span selector codes, the low 3 bits of a WriteSpanN payload
const (
	// SpanZeroTo5V is a 0 to 5V output span
	SpanZeroTo5V uint8 = 0x0

	// SpanZeroTo10V is a 0 to 10V output span
	SpanZeroTo10V uint8 = 0x1

	// SpanPM5V is a -5 to +5V output span
	SpanPM5V uint8 = 0x2

	// SpanPM10V is a -10 to +10V output span
	SpanPM10V uint8 = 0x3

	// SpanPM2V5 is a -2.5 to +2.5V output span
	SpanPM2V5 uint8 = 0x4
)

func (k CommandKind) String() string {
	switch k {
	case WriteCodeN:
		return "write code n"
	case UpdateN:
		return "update n"
	case WriteCodeNUpdateAll:
		return "write code n update all"
	case WriteCodeNUpdateN:
		return "write code n update n"
	case PowerDownN:
		return "power down n"
	case PowerDownChip:
		return "power down chip"
	case WriteSpanN:
		return "write span n"
	case Config:
		return "config"
	case WriteCodeAll:
		return "write code all"
	case UpdateAll:
		return "update all"
	case WriteCodeAllUpdateAll:
		return "write code all update all"
	case MonitorMux:
		return "monitor mux"
	case ToggleSelect:
		return "toggle select"
	case GlobalToggle:
		return "global toggle"
	case NoOp:
		return "no-op"
	default:
		return "invalid"
	}
}

// Frame is one serial word before packing: a command nibble, a channel
// address nibble, and a 16-bit payload.  A frame is immutable once built and
// is consumed by exactly one transfer.
type Frame struct {
	Command CommandKind
	Address uint8
	Payload uint16
}

// Word packs the frame into its 24-bit wire representation, left in the low
// bits of the result.  Narrowing of the command and address nibbles is
// explicit; any input produces a well defined word.
func (f Frame) Word() uint32 {
	return uint32(f.Command&0xF)<<20 | uint32(f.Address&0xF)<<16 | uint32(f.Payload)
}

// noopFrame is the flush frame; the payload is a don't-care on the device
func noopFrame() Frame {
	return Frame{Command: NoOp}
}

// ValidateSpan converts a span formatted as "<low>,<high>" in volts to its
// soft-span selector code
func ValidateSpan(s string) (uint8, error) {
	switch s {
	case "0,5":
		return SpanZeroTo5V, nil
	case "0,10":
		return SpanZeroTo10V, nil
	case "-5,5":
		return SpanPM5V, nil
	case "-10,10":
		return SpanPM10V, nil
	case "-2.5,2.5":
		return SpanPM2V5, nil
	default:
		return 0, ErrInvalidSpan
	}
}

// FormatSpan converts a soft-span selector code to a CSV of low,high volts
func FormatSpan(code uint8) string {
	switch code {
	case SpanZeroTo5V:
		return "0,5"
	case SpanZeroTo10V:
		return "0,10"
	case SpanPM5V:
		return "-5,5"
	case SpanPM10V:
		return "-10,10"
	case SpanPM2V5:
		return "-2.5,2.5"
	default:
		return ""
	}
}

// ConfigPayload builds the payload of a Config frame.  The device bits are
// inverted senses: B0 disables the internal reference, B1 disables thermal
// shutdown.  Passing true, true selects the internal reference with thermal
// shutdown enabled, which is the payload the init sequencer sends.
func ConfigPayload(internalRef, thermalShutdown bool) uint16 {
	var b byte
	b = util.SetBit(b, 0, !internalRef)
	b = util.SetBit(b, 1, !thermalShutdown)
	return uint16(b)
}
