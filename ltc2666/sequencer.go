package ltc2666

// TransferEngine is the physical serial shifter the sequencer drives.  It is
// polled at tick granularity and owns no DAC-domain state, only its own
// busy/done bookkeeping.
//
// Start must only be called while Busy is false; it begins one transfer of
// the given word.  Poll reports completion exactly once per transfer,
// carrying the word read back during the transfer.  An engine that never
// completes hangs the controller; there is no timeout here.
type TransferEngine interface {
	Busy() bool
	Start(tx uint32)
	Poll() (rx uint32, done bool)
}

type seqState int

const (
	stIdle seqState = iota
	stLoading
	stIssuing
	stAwaiting
	stDeciding
	stCompleted
)

// Controller is the bare command sequencer: the transfer FSM, the echo
// verification chain, the reset pulser and the alarm monitor.  One logical
// command is in flight at a time; Submit is refused while Busy.  All methods
// must be called from a single execution context; Tick advances every piece
// of state exactly once.
type Controller struct {
	opts Options
	eng  TransferEngine

	st           seqState
	cmd          Command
	policy       ExpansionPolicy
	illegal      bool
	cursor       int
	flushed      bool
	flushNext    bool
	lastWasFlush bool
	frame        Frame
	txWord       uint32
	lastTx       uint32
	lastRx       uint32

	echo       echoVerifier
	pulse      resetPulser
	alarm      alarmMonitor
	alarmLevel bool

	donePulse    bool
	illegalPulse bool
}

// NewController builds a controller around a transfer engine.  opts is fixed
// for the life of the controller.
func NewController(eng TransferEngine, opts Options) *Controller {
	if opts.FrameBits != 32 {
		opts.FrameBits = 24
	}
	return &Controller{
		opts:       opts,
		eng:        eng,
		pulse:      newResetPulser(opts.ResetPulseTicks),
		alarm:      newAlarmMonitor(),
		alarmLevel: true,
	}
}

// Submit offers a command to the sequencer.  It is accepted (true) iff the
// sequencer is idle.  A malformed single-channel command is still accepted,
// produces zero transfers, and raises the illegal pulse alongside the done
// pulse; it changes no persistent state.
func (c *Controller) Submit(cmd Command) bool {
	return c.submit(cmd, true)
}

// submit is the internal entry point.  fresh drops the echo previous-word
// chain, which is the behavior for externally sourced commands; the init
// sequencer keeps the chain alive across the frames it injects.
func (c *Controller) submit(cmd Command, fresh bool) bool {
	if c.st != stIdle {
		return false
	}
	policy, err := Classify(cmd.Kind, cmd.Mask)
	c.cmd = cmd
	c.policy = policy
	if err != nil {
		c.illegal = true
		c.st = stCompleted
		return true
	}
	c.illegal = false
	if fresh {
		c.echo.forget()
	}
	c.cursor = 0
	c.flushed = false
	c.flushNext = false
	c.lastWasFlush = false
	c.st = stLoading
	return true
}

// Tick advances the controller by one tick: the reset pulser and alarm
// monitor always run; the transfer FSM takes at most one transition.
func (c *Controller) Tick() {
	c.donePulse = false
	c.illegalPulse = false
	c.pulse.tick()
	c.alarm.sample(c.alarmLevel)
	c.step()
}

func (c *Controller) step() {
	switch c.st {
	case stIdle:
		// commands arrive synchronously through Submit

	case stLoading:
		c.load()

	case stIssuing:
		if !c.eng.Busy() {
			w := c.frame.Word()
			c.eng.Start(w)
			c.txWord = w
			c.lastTx = w
			c.st = stAwaiting
		}

	case stAwaiting:
		if rx, done := c.eng.Poll(); done {
			c.lastRx = rx
			if c.opts.VerifyEcho {
				c.echo.observe(rx, c.txWord)
			}
			c.st = stDeciding
		}

	case stDeciding:
		c.decide()

	case stCompleted:
		c.donePulse = true
		if c.illegal {
			c.illegalPulse = true
			c.illegal = false
		}
		c.st = stIdle
	}
}

// load produces the next frame to send, or ends the command
func (c *Controller) load() {
	if c.flushNext {
		c.flushNext = false
		c.emitFlush()
		return
	}
	switch c.policy {
	case PerChannel:
		ch := c.cmd.Mask.nextSet(c.cursor)
		if ch < 0 {
			// the scan exhausted the mask.  this flush path requires a
			// previous transfer, there would be nothing to flush out
			if c.opts.VerifyEcho && c.opts.AppendFlush && c.echo.havePrevious && !c.flushed {
				c.emitFlush()
			} else {
				c.st = stCompleted
			}
			return
		}
		c.cursor = ch
		c.frame = Frame{Command: c.cmd.Kind, Address: uint8(ch), Payload: c.cmd.Payload}
		c.st = stIssuing
	case SingleFromMask:
		c.frame = Frame{Command: c.cmd.Kind, Address: uint8(c.cmd.Mask.lowest()), Payload: c.cmd.Payload}
		c.st = stIssuing
	default: // Broadcast, Singleton
		c.frame = Frame{Command: c.cmd.Kind, Address: 0, Payload: c.cmd.Payload}
		c.st = stIssuing
	}
}

func (c *Controller) emitFlush() {
	c.flushed = true
	c.lastWasFlush = true
	c.frame = noopFrame()
	c.st = stIssuing
}

// decide routes after each completed transfer: next channel, flush, or done.
//
// The flush decision is taken on two paths with different guards: the
// mid-mask path in load requires a previous transfer, this one does not
// unless StrictFlushGuard is set.  The asymmetry is deliberate, it matches
// the controller this one was verified against; see the acceptance tests.
func (c *Controller) decide() {
	if c.lastWasFlush {
		c.st = stCompleted
		return
	}
	if c.policy == PerChannel && c.cursor < NumChannels-1 {
		c.cursor++
		c.st = stLoading
		return
	}
	if c.opts.VerifyEcho && c.opts.AppendFlush && !c.flushed &&
		(!c.opts.StrictFlushGuard || c.echo.havePrevious) {
		c.flushNext = true
		c.st = stLoading
		return
	}
	c.st = stCompleted
}

// Busy is true from command acceptance until the completion pulse
func (c *Controller) Busy() bool {
	return c.st != stIdle
}

// Done is a one-tick pulse per completed command
func (c *Controller) Done() bool {
	return c.donePulse
}

// IllegalCommand is a one-tick pulse raised alongside Done for a malformed
// single-channel command
func (c *Controller) IllegalCommand() bool {
	return c.illegalPulse
}

// EchoMismatch is the sticky verification flag; it never clears on its own
func (c *Controller) EchoMismatch() bool {
	return c.echo.mismatch
}

// LastExpected is the word the verifier expected on the most recent
// completed transfer
func (c *Controller) LastExpected() uint32 {
	return c.echo.lastExpected
}

// LastReceived is the word actually read back on the most recent completed
// transfer
func (c *Controller) LastReceived() uint32 {
	return c.echo.lastReceived
}

// LastTxWord is the most recently transmitted frame word
func (c *Controller) LastTxWord() uint32 {
	return c.lastTx
}

// LastRxWord is the most recently received word
func (c *Controller) LastRxWord() uint32 {
	return c.lastRx
}

// ClearErrors drops the echo mismatch and alarm sticky latches.  It is
// idempotent and safe at any time.
func (c *Controller) ClearErrors() {
	c.echo.clear()
	c.alarm.clear()
}

// RequestResetPulse arms the reset pulser.  Re-arming while the pulse is
// active restarts the countdown.
func (c *Controller) RequestResetPulse() {
	c.pulse.request()
}

// ResetAsserted is the logical reset line state (the physical pin is active
// low)
func (c *Controller) ResetAsserted() bool {
	return c.pulse.asserted()
}

// SetAlarmInput supplies the alarm line level sampled on the next tick
func (c *Controller) SetAlarmInput(level bool) {
	c.alarmLevel = level
}

// AlarmNotice is a one-tick pulse per falling edge on the alarm line
func (c *Controller) AlarmNotice() bool {
	return c.alarm.notice
}

// AlarmSticky is the sticky alarm latch
func (c *Controller) AlarmSticky() bool {
	return c.alarm.sticky
}
