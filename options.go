package serial

import "github.com/rs/zerolog"

// Option configures a Conn.
type Option func(*Conn)

// WithHandle replaces the default go.bug.st transport.
func WithHandle(h Handle) Option {
	return func(c *Conn) {
		if h != nil {
			c.handle = h
		}
	}
}

// WithLogger sets the logger used for swallowed faults. The default discards.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Conn) { c.log = l }
}

// WithPortLister replaces EnumeratePorts when choosing the default port.
func WithPortLister(list func() ([]string, error)) Option {
	return func(c *Conn) {
		if list != nil {
			c.listPorts = list
		}
	}
}
