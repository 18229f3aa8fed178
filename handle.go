package serial

import (
	"fmt"
	"time"
)

// DefaultReadTimeout bounds how long ReadUntil waits for a delimiter.
const DefaultReadTimeout = 100 * time.Millisecond

// Handle is the OS-facing side of a serial connection. Port and baud rate
// assignments take effect on the next Open.
type Handle interface {
	SetPort(name string)
	SetBaudRate(rate int)
	Open() error
	// Close releases the port. Calling it on a closed handle is a no-op.
	Close() error
	IsOpen() bool
	Write(p []byte) (int, error)
	// BytesAvailable reports how many received bytes can be read without blocking.
	BytesAvailable() (int, error)
	// ReadUntil returns bytes up to and including delim. The read timeout
	// bounds the gap between bytes, so a slow line is not cut short; when the
	// line goes quiet first, the bytes gathered so far are returned with a nil
	// error.
	ReadUntil(delim byte) ([]byte, error)
}

// NewHandle builds a transport by name: "auto" or "bugst" for the portable
// go.bug.st implementation, "termios" for raw Linux syscalls.
func NewHandle(kind string, readTimeout time.Duration) (Handle, error) {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	switch kind {
	case "", "auto", "bugst":
		return NewPortHandle(readTimeout), nil
	case "termios":
		return newTermiosHandle(readTimeout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTransport, kind)
	}
}
