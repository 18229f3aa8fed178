package serial

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Conn manages one serial connection: its settings, its open state, outgoing
// framing and incoming line decoding. Faults never escape as return values;
// open faults go to OnError subscribers and receive faults are logged.
//
// Settings and Send belong to the foreground; Receive is meant for a single
// background poller.
type Conn struct {
	handle    Handle
	log       zerolog.Logger
	listPorts func() ([]string, error)

	// io serializes Open/Close against Send/Receive, which may run together.
	io sync.RWMutex

	mu    sync.Mutex
	port  string
	baud  BaudRate
	start StartMarker
	end   EndMarker

	isOpen atomic.Bool

	statusChanged observers[bool]
	errorOccurred observers[error]
}

// NewConn returns a closed connection on the first enumerated port at
// DefaultBaudRate with no framing markers.
func NewConn(opts ...Option) *Conn {
	c := &Conn{
		log:       zerolog.Nop(),
		listPorts: EnumeratePorts,
		baud:      DefaultBaudRate,
		start:     StartNone,
		end:       EndNone,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.handle == nil {
		c.handle = NewPortHandle(DefaultReadTimeout)
	}

	ports, err := c.listPorts()
	switch {
	case err != nil:
		c.log.Warn().Err(err).Msg("cannot enumerate serial ports")
	case len(ports) == 0:
		c.log.Warn().Msg("no serial ports found")
	default:
		c.port = ports[0]
	}
	return c
}

// OnStatusChanged registers fn to run whenever the open state flips.
// Callbacks run after Open or Close has released the port and may use the
// connection freely.
func (c *Conn) OnStatusChanged(fn func(open bool)) (unsubscribe func()) {
	return c.statusChanged.subscribe(fn)
}

// OnError registers fn to run when opening the port fails.
func (c *Conn) OnError(fn func(err error)) (unsubscribe func()) {
	return c.errorOccurred.subscribe(fn)
}

// Open (re)opens the port with the current settings. An open connection is
// closed first.
func (c *Conn) Open() {
	var changes []bool
	err := func() error {
		c.io.Lock()
		defer c.io.Unlock()

		if c.handle.IsOpen() {
			changes = c.closeLocked(changes)
		}

		c.mu.Lock()
		port, baud := c.port, c.baud
		c.mu.Unlock()

		c.handle.SetBaudRate(int(baud))
		c.handle.SetPort(port)
		err := c.handle.Open()
		changes = c.refreshOpen(changes)
		if err != nil {
			err = fmt.Errorf("%w: %s at %d baud: %w", ErrOpen, portLabel(port), baud, err)
			c.log.Error().Err(err).Str("port", port).Int("baud", int(baud)).Msg("open failed")
			return err
		}
		c.log.Info().Str("port", port).Int("baud", int(baud)).Msg("port opened")
		return nil
	}()
	c.notify(changes, err)
}

// Close closes the port. It is safe to call when already closed.
func (c *Conn) Close() {
	c.io.Lock()
	changes := c.closeLocked(nil)
	c.io.Unlock()
	c.notify(changes, nil)
}

func (c *Conn) closeLocked(changes []bool) []bool {
	if err := c.handle.Close(); err != nil {
		c.log.Warn().Err(err).Msg("close failed")
	}
	return c.refreshOpen(changes)
}

// refreshOpen copies the handle state into isOpen and records a flip.
func (c *Conn) refreshOpen(changes []bool) []bool {
	open := c.handle.IsOpen()
	if c.isOpen.Swap(open) == open {
		return changes
	}
	return append(changes, open)
}

// notify runs subscribers; callers must not hold io.
func (c *Conn) notify(changes []bool, err error) {
	for _, open := range changes {
		c.statusChanged.emit(open, c.log, "status")
	}
	if err != nil {
		c.errorOccurred.emit(err, c.log, "error")
	}
}

// IsOpen reports the last observed state of the port.
func (c *Conn) IsOpen() bool {
	return c.isOpen.Load()
}

// Send frames msg with the configured markers and writes it. It does nothing
// while the connection is closed.
func (c *Conn) Send(msg string) {
	c.io.RLock()
	defer c.io.RUnlock()
	if !c.isOpen.Load() {
		return
	}

	c.mu.Lock()
	frame := EncodeFrame(c.start, msg, c.end)
	c.mu.Unlock()

	if _, err := c.handle.Write(frame); err != nil {
		c.log.Warn().Err(err).Int("bytes", len(frame)).Msg("write failed")
	}
}

// Receive returns the next line if any bytes are waiting, or "" otherwise.
// Transport and decode faults are logged and yield "".
func (c *Conn) Receive() string {
	c.io.RLock()
	defer c.io.RUnlock()
	if !c.isOpen.Load() {
		return ""
	}

	n, err := c.handle.BytesAvailable()
	if err != nil {
		c.log.Warn().Err(err).Msg("poll failed")
		return ""
	}
	if n == 0 {
		return ""
	}

	raw, err := c.handle.ReadUntil(CarriageReturn)
	if err != nil {
		c.log.Warn().Err(err).Int("bytes", len(raw)).Msg("read failed")
		return ""
	}
	line, err := DecodeLine(raw)
	if err != nil {
		c.log.Warn().Err(err).Int("bytes", len(raw)).Msg("dropped line")
		return ""
	}
	return line
}

// Port is the device used by the next Open.
func (c *Conn) Port() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port
}

// SetPort selects the device used by the next Open.
func (c *Conn) SetPort(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == c.port {
		return
	}
	c.port = name
}

// BaudRate is the speed used by the next Open.
func (c *Conn) BaudRate() BaudRate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baud
}

// SetBaudRate selects the speed used by the next Open.
func (c *Conn) SetBaudRate(b BaudRate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b == c.baud {
		return
	}
	c.baud = b
}

// StartMarker is prepended to every sent message.
func (c *Conn) StartMarker() StartMarker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start
}

// SetStartMarker changes the marker prepended by Send.
func (c *Conn) SetStartMarker(m StartMarker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m == c.start {
		return
	}
	c.start = m
}

// EndMarker is appended to every sent message.
func (c *Conn) EndMarker() EndMarker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.end
}

// SetEndMarker changes the marker appended by Send.
func (c *Conn) SetEndMarker(m EndMarker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m == c.end {
		return
	}
	c.end = m
}

func portLabel(port string) string {
	if port == "" {
		return "<none>"
	}
	return port
}
