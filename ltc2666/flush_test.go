package ltc2666

import "testing"

// loopEngine is a minimal in-package mirror used to exercise the internal
// submit path
type loopEngine struct {
	words   []uint32
	prev    uint32
	pending uint32
	busy    bool
}

func (l *loopEngine) Busy() bool { return l.busy }

func (l *loopEngine) Start(tx uint32) {
	l.pending = l.prev
	l.prev = tx
	l.words = append(l.words, tx)
	l.busy = true
}

func (l *loopEngine) Poll() (uint32, bool) {
	if !l.busy {
		return 0, false
	}
	l.busy = false
	return l.pending, true
}

func drive(t *testing.T, c *Controller) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		c.Tick()
		if c.donePulse {
			return
		}
	}
	t.Fatal("command did not complete within 1000 ticks")
}

// An empty per-channel mask submitted on a kept echo chain still flushes:
// the mask-exhaustion path only requires that some earlier transfer
// established an expectation, not that this command produced a frame.
func TestEmptyMaskFlushesOnKeptChain(t *testing.T) {
	eng := &loopEngine{}
	c := NewController(eng, DefaultOptions())
	c.Submit(Command{Kind: WriteCodeN, Mask: 1, Payload: 0x8000})
	drive(t, c)
	base := len(eng.words)

	if !c.submit(Command{Kind: WriteCodeN, Mask: 0}, false) {
		t.Fatal("idle controller refused the command")
	}
	drive(t, c)
	if got := len(eng.words) - base; got != 1 {
		t.Fatalf("expected a lone flush frame on the kept chain, got %d transfers", got)
	}
	if eng.words[len(eng.words)-1] != 0xF00000 {
		t.Errorf("the lone frame must be the no-op, got %06X", eng.words[len(eng.words)-1])
	}

	// the same command submitted fresh has nothing to flush
	if !c.submit(Command{Kind: WriteCodeN, Mask: 0}, true) {
		t.Fatal("idle controller refused the command")
	}
	base = len(eng.words)
	drive(t, c)
	if got := len(eng.words) - base; got != 0 {
		t.Errorf("a fresh empty-mask command must produce zero transfers, got %d", got)
	}
}

// The post-frame flush path does not consult the chain unless the strict
// guard is set; with at least one frame per command the two settings agree.
func TestStrictFlushGuardAgreesOnRealFrames(t *testing.T) {
	for _, strict := range []bool{false, true} {
		opts := DefaultOptions()
		opts.StrictFlushGuard = strict
		eng := &loopEngine{}
		c := NewController(eng, opts)
		c.Submit(Command{Kind: Config, Payload: 0})
		drive(t, c)
		if len(eng.words) != 2 {
			t.Errorf("strict=%v: expected frame plus flush, got %d transfers", strict, len(eng.words))
		}
	}
}

// The internal submit path keeps the expectation across commands, so the
// first transfer of a follow-on command is verified against the last word of
// the previous one.
func TestKeptChainVerifiesAcrossCommands(t *testing.T) {
	eng := &loopEngine{}
	c := NewController(eng, DefaultOptions())
	c.submit(Command{Kind: Config, Payload: 0}, false)
	drive(t, c)
	if !c.echo.havePrevious {
		t.Fatal("the chain must be established after the first command")
	}
	c.submit(Command{Kind: WriteSpanN, Mask: 1, Payload: uint16(SpanPM2V5)}, false)
	drive(t, c)
	if c.echo.mismatch {
		t.Error("a faithful mirror must verify cleanly across kept-chain commands")
	}
}
