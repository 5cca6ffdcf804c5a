package comm

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"

	"github.jpl.nasa.gov/bdube/ltcdac/util"
)

// badEcho is delivered when a response telegram is missing or fails its CRC.
// It can never equal a frame word (even zero extended to 32 bits the high
// byte of a frame is zero), so the verifier sees a mismatch instead of a
// silently desynchronized chain.
const badEcho = 0xFFFFFFFF

// Bridge is a transfer engine that carries frame words over a byte pipe to
// a remote shifter, one CRC-checked telegram per transfer.  The remote
// responds to each telegram with one telegram carrying the word it read
// back.
//
// Bridge satisfies the tick contract of ltc2666.TransferEngine: Start writes
// the telegram and a reader goroutine collects the response; Busy stays true
// until Poll has returned the echo.  Bridges must be created with NewBridge
// and Opened before use.
type Bridge struct {
	// Addr is the filesystem or network address of the remote,
	// e.g. /dev/ttyUSB0 or 192.168.100.123:2006
	Addr string

	// IsSerial selects RS232 (true) or TCP (false)
	IsSerial bool

	// Baud is the serial line rate; ignored for TCP
	Baud int

	// FrameBytes is the telegram body width, 3 for 24-bit frames or 4 for
	// 32-bit
	FrameBytes int

	// Timeout bounds the dial and each per-transfer write and read; values
	// at or below zero behave as 3 seconds
	Timeout time.Duration

	conn io.ReadWriteCloser
	rd   *bufio.Reader
	busy bool
	rx   chan uint32
}

// NewBridge creates a new Bridge instance.  frameBytes is 3 or 4.
func NewBridge(addr string, isSerial bool, frameBytes int) *Bridge {
	if frameBytes != 4 {
		frameBytes = 3
	}
	return &Bridge{
		Addr:       addr,
		IsSerial:   isSerial,
		Baud:       115200,
		FrameBytes: frameBytes,
		Timeout:    3 * time.Second,
		rx:         make(chan uint32, 1),
	}
}

// timeout is the per-operation deadline, defaulted when unset
func (b *Bridge) timeout() time.Duration {
	if b.Timeout <= 0 {
		return 3 * time.Second
	}
	return b.Timeout
}

// SerialConf yields the config used with serial.OpenPort
func (b *Bridge) SerialConf() *serial.Config {
	return &serial.Config{
		Name:        b.Addr,
		Baud:        b.Baud,
		ReadTimeout: b.timeout(),
	}
}

// Open the connection, setting the internal conn.  Connection thrashing is
// avoided with an exponential backoff, as remote serial servers tend to
// refuse rapid reconnects.
func (b *Bridge) Open() error {
	wasTimeout := false
	op := func() error {
		err := b.open()
		if err != nil {
			errS := strings.ToLower(err.Error())
			if strings.Contains(errS, "refused") {
				return err
			}
			wasTimeout = true
			return nil
		}
		return nil
	}

	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      3 * time.Second,
		Clock:               backoff.SystemClock})
	if err == nil && !wasTimeout {
		return nil
	}
	if wasTimeout {
		return fmt.Errorf("connection timeout to %s", b.Addr)
	}
	return err
}

func (b *Bridge) open() error {
	var (
		conn io.ReadWriteCloser
		err  error
	)
	if b.IsSerial {
		conn, err = serial.OpenPort(b.SerialConf())
	} else {
		conn, err = util.TCPSetup(b.Addr, b.timeout())
	}
	if err != nil {
		return err
	}
	b.conn = conn
	b.rd = bufio.NewReader(conn)
	return nil
}

// Close the connection, nil-ing the conn
func (b *Bridge) Close() error {
	if b.conn == nil {
		return ErrNotConnected
	}
	err := b.conn.Close()
	if err == nil {
		b.conn = nil
		b.rd = nil
	}
	return err
}

// Busy is true from Start until Poll has delivered the echo
func (b *Bridge) Busy() bool {
	return b.busy
}

// Start writes one telegram and begins collecting the response.  A missing
// or corrupt response is delivered as badEcho rather than stalling; the
// sequencer's verifier latches it as a mismatch.
func (b *Bridge) Start(tx uint32) {
	if b.conn == nil {
		b.busy = true
		b.rx <- badEcho
		return
	}
	b.busy = true
	// TCPSetup sets one-shot deadlines at dial time; the connection lives
	// for the process, so each transfer gets fresh ones
	if c, ok := b.conn.(net.Conn); ok {
		c.SetWriteDeadline(time.Now().Add(b.timeout()))
	}
	tele := EncodeWord(tx, b.FrameBytes)
	_, err := b.conn.Write(tele)
	if err != nil {
		b.rx <- badEcho
		return
	}
	conn := b.conn
	rd := b.rd
	nbytes := b.FrameBytes
	deadline := b.timeout()
	go func() {
		if c, ok := conn.(net.Conn); ok {
			c.SetReadDeadline(time.Now().Add(deadline))
		}
		raw, err := rd.ReadBytes(telEnd)
		if err != nil {
			b.rx <- badEcho
			return
		}
		word, err := DecodeWord(raw, nbytes)
		if err != nil {
			b.rx <- badEcho
			return
		}
		b.rx <- word
	}()
}

// Poll reports completion once per transfer, carrying the echoed word
func (b *Bridge) Poll() (uint32, bool) {
	select {
	case word := <-b.rx:
		b.busy = false
		return word, true
	default:
		return 0, false
	}
}
