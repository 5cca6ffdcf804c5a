package ltc2666

import "fmt"

// Options is the construction-time configuration of a controller.  Nothing
// here changes after New; run-time behavior is all in the tick machinery.
type Options struct {
	// FrameBits is the transfer width, 24 or 32.  At 32 the high byte of
	// every word is zero and is compared like any other byte during echo
	// verification.
	FrameBits int

	// VerifyEcho enables the echo verification chain
	VerifyEcho bool

	// AppendFlush appends a trailing no-op frame to each command so the
	// echo of the last real frame can be observed.  Only meaningful when
	// VerifyEcho is true.
	AppendFlush bool

	// StrictFlushGuard requires a previous transfer on both flush decision
	// paths.  The original controller only guards the mid-mask path; see
	// the sequencer docs.
	StrictFlushGuard bool

	// ResetPulseTicks is the width of the reset pulse in ticks; 0 is
	// promoted to 1
	ResetPulseTicks int

	// InitRetries bounds the init retry loop; 0 retries forever
	InitRetries int

	// SpanCode is the soft-span selector written to every channel during
	// initialization
	SpanCode uint8

	// SpanMillivolts is the magnitude of the configured span, e.g. 2500
	// for the -2.5 to 2.5V span
	SpanMillivolts int

	// AllowedMillivolts is the half-width of the window around mid-scale
	// that run-time codes must fall in
	AllowedMillivolts int

	// ZeroCode, PosFullScale and NegFullScale are the offset-binary
	// reference codes of the configured span
	ZeroCode     uint16
	PosFullScale uint16
	NegFullScale uint16
}

// DefaultOptions returns the options for a -2.5 to 2.5V soft span with a
// +/- 1.5V run-time window, 24-bit frames, and unlimited init retries
func DefaultOptions() Options {
	return Options{
		FrameBits:         24,
		VerifyEcho:        true,
		AppendFlush:       true,
		ResetPulseTicks:   4,
		SpanCode:          SpanPM2V5,
		SpanMillivolts:    2500,
		AllowedMillivolts: 1500,
		ZeroCode:          0x8000,
		PosFullScale:      0xFFFF,
		NegFullScale:      0x0000,
	}
}

// allowedDelta is the run-time window half-width in DN.  integer truncation
// is intentional and matches the device-side arithmetic
func (o Options) allowedDelta() int {
	if o.SpanMillivolts == 0 {
		return 0
	}
	halfFS := int(o.PosFullScale) - int(o.ZeroCode)
	return o.AllowedMillivolts * halfFS / o.SpanMillivolts
}

// InWindow returns true if code lies within the configured run-time window
// around mid-scale
func (o Options) InWindow(code uint16) bool {
	delta := o.allowedDelta()
	mid := int(o.ZeroCode)
	return int(code) >= mid-delta && int(code) <= mid+delta
}

// CodeForMillivolts converts a voltage in millivolts to the nearest
// offset-binary code of the configured span.  The error is non-nil only if
// the voltage is outside the span.
func (o Options) CodeForMillivolts(mv float64) (uint16, error) {
	span := float64(o.SpanMillivolts)
	if mv < -span || mv > span {
		return 0, fmt.Errorf("%f mV outside the -%d to %d mV span", mv, o.SpanMillivolts, o.SpanMillivolts)
	}
	halfFS := float64(int(o.PosFullScale) - int(o.ZeroCode))
	code := float64(o.ZeroCode) + mv*halfFS/span
	if code < 0 {
		code = 0
	}
	if code > 65535 {
		code = 65535
	}
	return uint16(code + 0.5), nil
}

// MillivoltsForCode converts an offset-binary code to millivolts on the
// configured span
func (o Options) MillivoltsForCode(code uint16) float64 {
	halfFS := float64(int(o.PosFullScale) - int(o.ZeroCode))
	return (float64(code) - float64(o.ZeroCode)) * float64(o.SpanMillivolts) / halfFS
}
