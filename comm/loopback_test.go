package comm

import "testing"

// poll drains one transfer, failing if it never completes
func poll(t *testing.T, l *Loopback) uint32 {
	t.Helper()
	for i := 0; i < 100; i++ {
		if rx, done := l.Poll(); done {
			return rx
		}
	}
	t.Fatal("transfer never completed")
	return 0
}

func TestLoopbackEchoesPreviousWord(t *testing.T) {
	l := &Loopback{InitialEcho: 0xDEAD}
	words := []uint32{0x308000, 0x318000, 0xF00000}
	var got []uint32
	for _, w := range words {
		if l.Busy() {
			t.Fatal("engine busy before Start")
		}
		l.Start(w)
		if !l.Busy() {
			t.Fatal("engine not busy after Start")
		}
		got = append(got, poll(t, l))
	}
	want := []uint32{0xDEAD, 0x308000, 0x318000}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transfer %d: expected echo %06X got %06X", i+1, want[i], got[i])
		}
	}
	if l.Count() != 3 {
		t.Errorf("expected 3 transfers counted, got %d", l.Count())
	}
}

func TestLoopbackLatency(t *testing.T) {
	l := &Loopback{Latency: 3}
	l.Start(0x308000)
	for i := 0; i < 2; i++ {
		if _, done := l.Poll(); done {
			t.Fatalf("poll %d: transfer completed early", i)
		}
		if !l.Busy() {
			t.Fatalf("poll %d: engine went idle mid-transfer", i)
		}
	}
	if _, done := l.Poll(); !done {
		t.Fatal("transfer should complete on the third poll")
	}
	if l.Busy() {
		t.Error("engine should be idle after completion")
	}
	if _, done := l.Poll(); done {
		t.Error("completion must be reported exactly once")
	}
}

func TestLoopbackCorruptHook(t *testing.T) {
	l := &Loopback{Corrupt: func(n int, echo uint32) uint32 {
		if n == 2 {
			return echo ^ 0xFF
		}
		return echo
	}}
	l.Start(0x308000)
	poll(t, l)
	l.Start(0x318000)
	if rx := poll(t, l); rx != 0x308000^0xFF {
		t.Errorf("expected the corrupted echo, got %06X", rx)
	}
	l.Start(0x328000)
	if rx := poll(t, l); rx != 0x318000 {
		t.Errorf("corruption of one transfer must not desync later ones, got %06X", rx)
	}
}
