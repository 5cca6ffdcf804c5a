package ltc2666

// echoVerifier tracks the word expected on the next completed transfer.
// The device shifts out the previous frame while a new one shifts in, so the
// word received on transfer k must equal the word transmitted on transfer
// k-1.  A disagreement latches mismatch until an explicit clear.
type echoVerifier struct {
	havePrevious bool
	previousWord uint32
	lastExpected uint32
	lastReceived uint32
	mismatch     bool
}

// observe processes one completed transfer: rx is the word read back, tx the
// word that was just transmitted.  The comparison uses the word of the
// transfer before this one; tx only becomes the expectation for the next.
func (e *echoVerifier) observe(rx, tx uint32) {
	e.lastReceived = rx
	e.lastExpected = e.previousWord
	if e.havePrevious && rx != e.previousWord {
		e.mismatch = true
	}
	e.previousWord = tx
	e.havePrevious = true
}

// forget drops the previous-word chain without touching the sticky flag.
// Called when a new command is accepted from an external source; the first
// transfer of the command then establishes a fresh expectation.
func (e *echoVerifier) forget() {
	e.havePrevious = false
}

// clear drops the sticky mismatch flag
func (e *echoVerifier) clear() {
	e.mismatch = false
}

// restart is forget plus clear, used when the init sequencer re-enters its
// reset phase
func (e *echoVerifier) restart() {
	e.forget()
	e.clear()
}
