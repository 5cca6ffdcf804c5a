package ltc2666

import (
	"errors"
	"math/bits"

	"github.jpl.nasa.gov/bdube/ltcdac/util"
)

var (
	// ErrIllegalCommand is generated when a command that requires exactly
	// one masked channel is submitted with zero or several set bits.  The
	// command is still accepted; it produces zero transfers and the illegal
	// pulse on completion.
	ErrIllegalCommand = errors.New("command requires exactly one set mask bit")

	// ErrInvalidSpan is generated when a span string does not name a
	// soft-span the device supports
	ErrInvalidSpan = errors.New("invalid output span")
)

// ChannelMask is an 8-bit set, one bit per DAC channel.  Bit order is also
// iteration order (low to high) for per-channel command expansion.
type ChannelMask uint8

// Count returns the number of set bits
func (m ChannelMask) Count() int {
	return bits.OnesCount8(uint8(m))
}

// Has returns true if channel ch is in the set
func (m ChannelMask) Has(ch int) bool {
	return util.GetBit(byte(m), uint(ch))
}

// nextSet returns the lowest set bit at index >= from, or -1 if the scan
// exhausts all channels
func (m ChannelMask) nextSet(from int) int {
	for ch := from; ch < NumChannels; ch++ {
		if m.Has(ch) {
			return ch
		}
	}
	return -1
}

// lowest returns the index of the lowest set bit, or -1 for the empty mask
func (m ChannelMask) lowest() int {
	return m.nextSet(0)
}

// Command is one logical operation on the DAC: a kind, a channel mask whose
// meaning depends on the kind, and a 16-bit payload whose interpretation
// also depends on the kind.  Exactly one command is in flight at a time.
type Command struct {
	Kind    CommandKind
	Mask    ChannelMask
	Payload uint16
}

// ExpansionPolicy is how a command expands into physical frames.  It is
// derived from the kind (and for WriteCodeNUpdateAll, the mask), never
// stored independently.
type ExpansionPolicy int

const (
	// PerChannel iterates the mask bits, one frame per set bit
	PerChannel ExpansionPolicy = iota

	// Broadcast is one frame, address 0, applying to all channels
	Broadcast

	// SingleFromMask is one frame addressed to the single set mask bit;
	// any other popcount is illegal
	SingleFromMask

	// Singleton is one frame with no mask semantics
	Singleton
)

// Classify maps a command kind and mask to its expansion policy.  The only
// error path is ErrIllegalCommand for a malformed WriteCodeNUpdateAll; every
// other combination classifies deterministically from the kind alone.
func Classify(kind CommandKind, mask ChannelMask) (ExpansionPolicy, error) {
	switch kind {
	case WriteCodeN, UpdateN, WriteSpanN, WriteCodeNUpdateN, PowerDownN:
		return PerChannel, nil
	case WriteCodeAll, UpdateAll, WriteCodeAllUpdateAll:
		return Broadcast, nil
	case WriteCodeNUpdateAll:
		if mask.Count() != 1 {
			return SingleFromMask, ErrIllegalCommand
		}
		return SingleFromMask, nil
	default:
		// config, mux, toggle select, global toggle, power down chip, no-op
		return Singleton, nil
	}
}
