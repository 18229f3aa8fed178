package serial

import (
	"fmt"
	"time"

	gobug "go.bug.st/serial"
)

// bugstPort is the subset of go.bug.st/serial.Port used by PortHandle.
type bugstPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// replaced in tests
var openPort = func(name string, mode *gobug.Mode) (bugstPort, error) {
	return gobug.Open(name, mode)
}

// PortHandle is a portable Handle backed by go.bug.st/serial.
type PortHandle struct {
	name        string
	baud        int
	readTimeout time.Duration

	port    bugstPort
	pending []byte
	buf     []byte
}

// NewPortHandle returns a closed handle. readTimeout bounds ReadUntil.
func NewPortHandle(readTimeout time.Duration) *PortHandle {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &PortHandle{
		baud:        int(DefaultBaudRate),
		readTimeout: readTimeout,
		buf:         make([]byte, 4096),
	}
}

// SetPort selects the device for the next Open.
func (h *PortHandle) SetPort(name string) { h.name = name }

// SetBaudRate selects the speed for the next Open.
func (h *PortHandle) SetBaudRate(rate int) { h.baud = rate }

// IsOpen reports whether the port is held open.
func (h *PortHandle) IsOpen() bool { return h.port != nil }

// Open opens the port as 8N1 at the configured baud rate.
func (h *PortHandle) Open() error {
	if h.port != nil {
		return nil
	}
	if h.name == "" {
		return ErrNoPort
	}
	mode := &gobug.Mode{
		BaudRate: h.baud,
		DataBits: 8,
		Parity:   gobug.NoParity,
		StopBits: gobug.OneStopBit,
	}
	port, err := openPort(h.name, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", h.name, err)
	}
	h.port = port
	h.pending = h.pending[:0]
	return nil
}

// Close releases the port and drops buffered input.
func (h *PortHandle) Close() error {
	if h.port == nil {
		return nil
	}
	err := h.port.Close()
	h.port = nil
	h.pending = h.pending[:0]
	return err
}

// Write sends p unchanged.
func (h *PortHandle) Write(p []byte) (int, error) {
	if h.port == nil {
		return 0, ErrClosed
	}
	return h.port.Write(p)
}

// BytesAvailable drains whatever the driver already holds without waiting.
func (h *PortHandle) BytesAvailable() (int, error) {
	if h.port == nil {
		return 0, ErrClosed
	}
	if len(h.pending) > 0 {
		return len(h.pending), nil
	}
	if err := h.port.SetReadTimeout(0); err != nil {
		return 0, fmt.Errorf("set read timeout: %w", err)
	}
	n, err := h.port.Read(h.buf)
	if err != nil {
		return 0, err
	}
	h.pending = append(h.pending, h.buf[:n]...)
	return len(h.pending), nil
}

// ReadUntil reads with the configured timeout per read call, so it waits
// as long as bytes keep arriving.
func (h *PortHandle) ReadUntil(delim byte) ([]byte, error) {
	if h.port == nil {
		return nil, ErrClosed
	}
	if err := h.port.SetReadTimeout(h.readTimeout); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	for {
		if line, rest, ok := splitThrough(h.pending, delim); ok {
			h.pending = rest
			return line, nil
		}
		n, err := h.port.Read(h.buf)
		if err != nil {
			return h.takePending(), err
		}
		// zero bytes means the timeout elapsed
		if n == 0 {
			return h.takePending(), nil
		}
		h.pending = append(h.pending, h.buf[:n]...)
	}
}

func (h *PortHandle) takePending() []byte {
	out := append([]byte(nil), h.pending...)
	h.pending = h.pending[:0]
	return out
}
