// Package serial is the core of a serial monitor: it opens one serial port,
// sends user messages wrapped in configurable start and end markers, and polls
// for incoming carriage-return terminated lines.
//
// Features:
//   - Conn tracks open/closed state and notifies subscribers only on real changes
//   - Outgoing frames are start marker + message + end marker, UTF-8 encoded
//   - Receive never blocks when nothing is waiting and never returns an error
//   - Poller forwards lines to a display sink until its context is cancelled
//   - Two transports: portable go.bug.st/serial and raw Linux termios
//   - PTY-based tests for the Linux transport
//
// Example usage:
//
//	conn := serial.NewConn(serial.WithLogger(log.Logger))
//	conn.OnError(func(err error) { fmt.Println("error:", err) })
//	conn.SetBaudRate(115200)
//	conn.SetEndMarker(serial.EndBoth)
//	conn.Open()
//	defer conn.Close()
//
//	ctx, cancel := context.WithCancel(context.Background())
//	var wg conc.WaitGroup
//	wg.Go(func() { serial.NewPoller(conn, sink).Run(ctx) })
//
//	conn.Send("C,START")
//
//	// ... to stop, cancel the poller and wait for it before closing
//	cancel()
//	wg.Wait()
package serial
