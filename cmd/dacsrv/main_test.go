package main

import "testing"

func TestOptionsFromDefaults(t *testing.T) {
	o, err := options(defaults())
	if err != nil {
		t.Fatal(err)
	}
	if o.SpanMillivolts != 2500 || o.ZeroCode != 0x8000 {
		t.Errorf("defaults did not carry through: %+v", o)
	}
}

func TestOptionsRejectsZeroTickRate(t *testing.T) {
	c := defaults()
	c.TickHz = 0
	if _, err := options(c); err == nil {
		t.Error("a zero tick rate must be rejected, it would stall the tick loop")
	}
}

func TestOptionsRejectsBogusSpan(t *testing.T) {
	c := defaults()
	c.Span = "0,42"
	if _, err := options(c); err == nil {
		t.Error("an unknown span string must be rejected")
	}
}
