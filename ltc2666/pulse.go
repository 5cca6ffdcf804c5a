package ltc2666

// resetPulser produces a minimum-duration active pulse on the device reset
// line.  It is decoupled from the command pipeline: requests are honored at
// any time, and a request while the pulse is already active restarts the
// countdown from the configured width rather than extending it.
type resetPulser struct {
	width     int
	remaining int
	active    bool
}

func newResetPulser(width int) resetPulser {
	if width < 1 {
		width = 1
	}
	return resetPulser{width: width}
}

// request arms the pulse; the line goes active on the next tick
func (p *resetPulser) request() {
	p.remaining = p.width
}

// tick advances the countdown.  The line is active on every tick entered
// with a nonzero count.
func (p *resetPulser) tick() {
	p.active = p.remaining > 0
	if p.remaining > 0 {
		p.remaining--
	}
}

// asserted is the logical state of the pulse; the physical line is active
// low, which is a wiring concern outside this package
func (p *resetPulser) asserted() bool {
	return p.active
}
