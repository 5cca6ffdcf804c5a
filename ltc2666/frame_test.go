package ltc2666_test

import (
	"fmt"
	"testing"

	"github.jpl.nasa.gov/bdube/ltcdac/ltc2666"
)

func ExampleFrame_Word() {
	f := ltc2666.Frame{Command: ltc2666.WriteCodeNUpdateN, Address: 2, Payload: 0x8000}
	fmt.Printf("%06X\n", f.Word())
	// Output: 328000
}

func TestWordBoundaryValues(t *testing.T) {
	cases := []struct {
		name  string
		frame ltc2666.Frame
		want  uint32
	}{
		{"last channel full payload", ltc2666.Frame{Command: ltc2666.WriteCodeNUpdateN, Address: 7, Payload: 0xFFFF}, 0x37FFFF},
		{"zero frame", ltc2666.Frame{}, 0x000000},
		{"no-op", ltc2666.Frame{Command: ltc2666.NoOp}, 0xF00000},
		{"address nibble truncates", ltc2666.Frame{Command: ltc2666.WriteCodeN, Address: 0x1F, Payload: 0}, 0x0F0000},
	}
	for _, tc := range cases {
		got := tc.frame.Word()
		if got != tc.want {
			t.Errorf("%s: expected %06X got %06X", tc.name, tc.want, got)
		}
	}
}

func TestWordHighByteAlwaysZero(t *testing.T) {
	f := ltc2666.Frame{Command: ltc2666.NoOp, Address: 7, Payload: 0xFFFF}
	if f.Word()>>24 != 0 {
		t.Errorf("expected zero high byte, got word %08X", f.Word())
	}
}

func TestSpanRoundTrip(t *testing.T) {
	spans := []uint8{
		ltc2666.SpanZeroTo5V,
		ltc2666.SpanZeroTo10V,
		ltc2666.SpanPM5V,
		ltc2666.SpanPM10V,
		ltc2666.SpanPM2V5,
	}
	for _, s := range spans {
		str := ltc2666.FormatSpan(s)
		back, err := ltc2666.ValidateSpan(str)
		if err != nil {
			t.Errorf("span %d formatted to %q which did not validate: %v", s, str, err)
		}
		if back != s {
			t.Errorf("span %d did not round trip, got %d", s, back)
		}
	}
	if _, err := ltc2666.ValidateSpan("0,42"); err == nil {
		t.Error("expected an error validating a bogus span")
	}
}

func TestConfigPayload(t *testing.T) {
	if p := ltc2666.ConfigPayload(true, true); p != 0 {
		t.Errorf("internal ref + thermal shutdown should be payload 0, got %04X", p)
	}
	if p := ltc2666.ConfigPayload(false, false); p != 0x3 {
		t.Errorf("both disabled should be payload 3, got %04X", p)
	}
}

func TestWindow(t *testing.T) {
	// 1500 mV of a 2500 mV span is 19660 DN after truncation
	opts := ltc2666.DefaultOptions()
	if !opts.InWindow(0x8000) {
		t.Error("mid-scale must be inside the window")
	}
	if opts.InWindow(0xFFFF) {
		t.Error("positive full scale must be outside a 1.5V window")
	}
	if !opts.InWindow(0x8000 + 19660) {
		t.Error("upper window edge must be inside")
	}
	if opts.InWindow(0x8000 + 19661) {
		t.Error("one DN past the upper window edge must be outside")
	}
}

func TestCodeForMillivolts(t *testing.T) {
	opts := ltc2666.DefaultOptions()
	code, err := opts.CodeForMillivolts(0)
	if err != nil {
		t.Fatal(err)
	}
	if code != 0x8000 {
		t.Errorf("0 mV should be mid-scale, got %04X", code)
	}
	code, err = opts.CodeForMillivolts(2500)
	if err != nil {
		t.Fatal(err)
	}
	if code != 0xFFFF {
		t.Errorf("+2500 mV should be positive full scale, got %04X", code)
	}
	_, err = opts.CodeForMillivolts(2501)
	if err == nil {
		t.Error("expected an error for a voltage outside the span")
	}
}
