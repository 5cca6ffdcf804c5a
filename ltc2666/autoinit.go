package ltc2666

type initPhase int

const (
	phaseReset initPhase = iota
	phaseSendConfig
	phaseSendSpan
	phaseSendFlush
	phaseAwait
	phaseRun
)

// pendingSlot is the single-entry run-time command buffer.  A write while
// the slot is occupied drops the new write, not the old one.
type pendingSlot struct {
	valid   bool
	channel int
	code    uint16
}

// AutoController is the integrated variant: a Controller plus an
// initialization sequencer that configures the device and its output spans
// after every reset, retrying on verification failure, and a range guard
// that filters run-time codes before they reach the wire.
//
// After power up (construction) the controller runs the init sequence on its
// own; poll InitOK / InitFailed.  Run-time writes go through Write and the
// single-entry pending slot.
type AutoController struct {
	ctl  *Controller
	opts Options

	phase        initPhase
	cursor       int
	retriesLeft  int
	initOK       bool
	initFailed   bool
	configured   bool
	rangeErr     bool
	pending      pendingSlot
	forceReset   bool
	reloadBudget bool
}

// NewAutoController builds the integrated controller.  The inner sequencer
// runs without per-command flush frames; the init sequencer issues exactly
// one explicit no-op at the end of the sequence instead, and run mode never
// flushes.
func NewAutoController(eng TransferEngine, opts Options) *AutoController {
	inner := opts
	inner.AppendFlush = false
	return &AutoController{
		ctl:          NewController(eng, inner),
		opts:         opts,
		phase:        phaseReset,
		reloadBudget: true,
	}
}

// Tick advances the init sequencer by one step and the inner controller by
// one tick
func (a *AutoController) Tick() {
	if a.forceReset {
		a.forceReset = false
		a.reloadBudget = true
		a.pending = pendingSlot{}
		a.phase = phaseReset
	}
	a.step()
	a.ctl.Tick()
}

func (a *AutoController) step() {
	switch a.phase {
	case phaseReset:
		a.initOK = false
		a.initFailed = false
		a.configured = false
		a.cursor = 0
		a.ctl.echo.restart()
		if a.reloadBudget {
			a.retriesLeft = a.opts.InitRetries
			a.reloadBudget = false
		}
		a.phase = phaseSendConfig

	case phaseSendConfig:
		// internal reference on, thermal shutdown on
		cmd := Command{Kind: Config, Payload: ConfigPayload(true, true)}
		if a.ctl.submit(cmd, false) {
			a.phase = phaseAwait
		}

	case phaseSendSpan:
		cmd := Command{
			Kind:    WriteSpanN,
			Mask:    ChannelMask(1) << uint(a.cursor),
			Payload: uint16(a.opts.SpanCode & 0x7),
		}
		if a.ctl.submit(cmd, false) {
			a.phase = phaseAwait
		}

	case phaseSendFlush:
		if a.ctl.submit(Command{Kind: NoOp}, false) {
			a.phase = phaseAwait
		}

	case phaseAwait:
		if !a.ctl.Done() {
			return
		}
		// the command nibble of the frame that just completed tells us
		// which step it was; there is no separate step counter
		switch CommandKind(a.ctl.lastTx >> 20 & 0xF) {
		case Config:
			a.cursor = 0
			a.phase = phaseSendSpan
		case WriteSpanN:
			if a.cursor == NumChannels-1 {
				a.phase = phaseSendFlush
			} else {
				a.cursor++
				a.phase = phaseSendSpan
			}
		case NoOp:
			a.verdict()
		}

	case phaseRun:
		a.runIdle()
	}
}

// verdict is taken on completion of the flush no-op: the whole init attempt
// passed iff no mismatch was latched at any point during it
func (a *AutoController) verdict() {
	if !a.ctl.EchoMismatch() {
		a.configured = true
		a.initOK = true
		a.phase = phaseRun
		return
	}
	if a.opts.InitRetries == 0 {
		// unlimited budget, retry forever
		a.phase = phaseReset
		return
	}
	if a.retriesLeft > 0 {
		a.retriesLeft--
		a.phase = phaseReset
		return
	}
	// budget exhausted.  the device may be misconfigured but run-time
	// traffic is still accepted
	a.initFailed = true
	a.phase = phaseRun
}

// runIdle forwards at most one pending write per command, range guarded
func (a *AutoController) runIdle() {
	if !a.pending.valid || a.ctl.Busy() {
		return
	}
	p := a.pending
	a.pending = pendingSlot{}
	if !a.opts.InWindow(p.code) {
		a.rangeErr = true
		return
	}
	cmd := Command{
		Kind:    WriteCodeNUpdateN,
		Mask:    ChannelMask(1) << uint(p.channel),
		Payload: p.code,
	}
	a.ctl.submit(cmd, false)
}

// Write stages one run-time code for a channel.  The slot holds a single
// entry; a write while it is occupied is dropped and false returned.  Codes
// outside the configured window are dropped at forwarding time and latch the
// sticky range error.
func (a *AutoController) Write(channel int, code uint16) bool {
	if channel < 0 || channel >= NumChannels {
		return false
	}
	if a.pending.valid {
		return false
	}
	a.pending = pendingSlot{valid: true, channel: channel, code: code}
	return true
}

// RequestResetPulse arms the device reset line and forces the init
// sequencer back to its reset phase on the next tick.  A physical transfer
// already in progress still completes through the shared sequencer.
func (a *AutoController) RequestResetPulse() {
	a.ctl.RequestResetPulse()
	a.forceReset = true
}

// RequestReinit re-runs the init sequence without pulsing the reset line
func (a *AutoController) RequestReinit() {
	a.forceReset = true
}

// ClearErrors drops every fault latch: echo mismatch, alarm sticky, and the
// range error.  Init-ok / init-failed reflect the outcome of the last init
// attempt and only change when one runs.
func (a *AutoController) ClearErrors() {
	a.ctl.ClearErrors()
	a.rangeErr = false
}

// InitOK is true once an init attempt has completed with a clean echo chain
func (a *AutoController) InitOK() bool {
	return a.initOK
}

// InitFailed is true once a bounded retry budget has been exhausted
func (a *AutoController) InitFailed() bool {
	return a.initFailed
}

// Configured is false until an init attempt succeeds, and false again from
// the moment a reset begins
func (a *AutoController) Configured() bool {
	return a.configured
}

// RangeError is the sticky run-time window violation latch
func (a *AutoController) RangeError() bool {
	return a.rangeErr
}

// Busy is true while a command or init step is in flight
func (a *AutoController) Busy() bool {
	return a.ctl.Busy()
}

// EchoMismatch is the sticky verification flag of the inner controller
func (a *AutoController) EchoMismatch() bool {
	return a.ctl.EchoMismatch()
}

// SetAlarmInput supplies the alarm line level sampled on the next tick
func (a *AutoController) SetAlarmInput(level bool) {
	a.ctl.SetAlarmInput(level)
}

// AlarmNotice is a one-tick pulse per falling edge on the alarm line
func (a *AutoController) AlarmNotice() bool {
	return a.ctl.AlarmNotice()
}

// AlarmSticky is the sticky alarm latch
func (a *AutoController) AlarmSticky() bool {
	return a.ctl.AlarmSticky()
}

// ResetAsserted is the logical reset line state
func (a *AutoController) ResetAsserted() bool {
	return a.ctl.ResetAsserted()
}

// LastTxWord is the most recently transmitted frame word
func (a *AutoController) LastTxWord() uint32 {
	return a.ctl.LastTxWord()
}

// LastRxWord is the most recently received word
func (a *AutoController) LastRxWord() uint32 {
	return a.ctl.LastRxWord()
}

// Status snapshots every status output in one struct, for the HTTP surface
func (a *AutoController) Status() Status {
	return Status{
		Busy:          a.ctl.Busy(),
		InitOK:        a.initOK,
		InitFailed:    a.initFailed,
		Configured:    a.configured,
		EchoMismatch:  a.ctl.EchoMismatch(),
		AlarmSticky:   a.ctl.AlarmSticky(),
		RangeError:    a.rangeErr,
		ResetAsserted: a.ctl.ResetAsserted(),
		LastExpected:  a.ctl.LastExpected(),
		LastReceived:  a.ctl.LastReceived(),
		LastTx:        a.ctl.LastTxWord(),
		LastRx:        a.ctl.LastRxWord(),
	}
}
