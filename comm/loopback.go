package comm

// Loopback is an in-memory transfer engine that models a healthy device:
// the word read back during transfer k is the word transmitted on transfer
// k-1.  The zero value is usable.
//
// Latency is how many ticks a transfer stays busy; values below 1 behave as
// 1.  Corrupt, if non-nil, is applied to each echoed word and receives the
// 1-based transfer number, so tests can flip a chosen echo.
type Loopback struct {
	// Latency is the busy duration of each transfer in ticks
	Latency int

	// Corrupt mangles the echo of transfer n; nil passes it through
	Corrupt func(n int, echo uint32) uint32

	// InitialEcho is shifted out during the first transfer, when the
	// device has no previous word.  Hardware shifts junk here.
	InitialEcho uint32

	prev      uint32
	started   bool
	busyLeft  int
	pendingRx uint32
	count     int
}

// Busy is true while a transfer is in flight
func (l *Loopback) Busy() bool {
	return l.busyLeft > 0
}

// Start begins one transfer of tx.  The echo delivered at completion is the
// previously transmitted word.
func (l *Loopback) Start(tx uint32) {
	l.count++
	echo := l.prev
	if !l.started {
		echo = l.InitialEcho
		l.started = true
	}
	if l.Corrupt != nil {
		echo = l.Corrupt(l.count, echo)
	}
	l.pendingRx = echo
	l.prev = tx
	l.busyLeft = l.Latency
	if l.busyLeft < 1 {
		l.busyLeft = 1
	}
}

// Poll advances the transfer by one tick and reports completion exactly once
func (l *Loopback) Poll() (uint32, bool) {
	if l.busyLeft == 0 {
		return 0, false
	}
	l.busyLeft--
	if l.busyLeft == 0 {
		return l.pendingRx, true
	}
	return 0, false
}

// Count is the total number of transfers started
func (l *Loopback) Count() int {
	return l.count
}
