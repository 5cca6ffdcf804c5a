/*Package ltc2666 implements a command sequencing and verification engine for
LTC2666-class octal 16-bit DACs.

The device is driven one fixed-format serial frame at a time through a
TransferEngine, which models the physical shifter with start/busy/done
signals.  The engine expands each logical command into the ordered frames the
device expects, verifies each transmitted frame against the read-back echo of
the previous one, and manages the reset and alarm side channels.  Everything
is tick driven; one call to Tick advances every piece of state exactly once
and there is no blocking anywhere in this package.

There are two controllers.  Controller is the bare sequencer: you hand it
commands, it hands frames to the transfer engine.  AutoController layers an
initialization sequencer on top, which configures the device and its output
spans after every reset, retries on verification failure, and range-checks
run-time codes before they reach the wire.

Basic usage with the bare controller:
 eng := &comm.Loopback{}
 ctl := ltc2666.NewController(eng, ltc2666.DefaultOptions())
 ctl.Submit(ltc2666.Command{Kind: ltc2666.WriteCodeNUpdateN, Mask: 0x01, Payload: 0x8000})
 for ctl.Busy() {
 	ctl.Tick()
 }
 if ctl.EchoMismatch() {
 	// the device did not echo what we sent; the flag is sticky
 	// until ClearErrors
 }

And with the integrated variant:
 dac := ltc2666.NewAutoController(eng, ltc2666.DefaultOptions())
 for !dac.InitOK() && !dac.InitFailed() {
 	dac.Tick()
 }
 dac.Write(3, 0x8123) // range guarded, dropped if out of window
 dac.Tick()

Frames are 24 bits, zero extended to 32 when Options.FrameBits is 32.  The
command nibbles follow the LTC2666 instruction set directly.
*/
package ltc2666
