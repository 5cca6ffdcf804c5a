/*Package comm provides transfer engines for the ltc2666 sequencer.

The sequencer drives one ltc2666.TransferEngine: a start/busy/done shifter
moving one frame word per transfer and returning the word read back.  This
package has two of them: Loopback, an in-memory engine that behaves like a
healthy device (it echoes the previously shifted word), and Bridge, which
carries frame words over a byte pipe (RS232 or TCP) to a remote shifter using
a small CRC-checked telegram protocol.

Loopback is what the tests and the simulation mode of dacsrv use:
 eng := &comm.Loopback{}
 ctl := ltc2666.NewAutoController(eng, ltc2666.DefaultOptions())

Bridge connects to real hardware:
 b := comm.NewBridge("/dev/ttyUSB0", true, 3)
 err := b.Open()
 if err != nil {
 	log.Fatal(err)
 }
 defer b.Close()
 ctl := ltc2666.NewAutoController(b, ltc2666.DefaultOptions())
*/
package comm

import "errors"

var (
	// ErrNotConnected is generated when Start is called before Open
	ErrNotConnected = errors.New("conn is nil, not connected to remote")

	// ErrTelegramBounds is generated when a telegram start or end byte is
	// not found in a response
	ErrTelegramBounds = errors.New("telegram start or end byte not found")

	// ErrCRCMismatch is generated when a received telegram fails its CRC
	// check
	ErrCRCMismatch = errors.New("CRC mismatch, data lost in transmission")
)
