package serial

import "errors"

var (
	// ErrOpen wraps every fault reported while opening the port.
	ErrOpen                 = errors.New("open failed")
	// ErrNoPort means Open was called with no device selected.
	ErrNoPort               = errors.New("no serial port selected")
	// ErrClosed is returned by handle I/O after Close.
	ErrClosed               = errors.New("serial port closed")
	// ErrUnsupportedBaudRate rejects rates outside SupportedBaudRates.
	ErrUnsupportedBaudRate  = errors.New("unsupported baud rate")
	// ErrUnknownMarker rejects a marker label that is not offered.
	ErrUnknownMarker        = errors.New("unknown marker")
	// ErrUnsupportedTransport rejects a transport name or platform.
	ErrUnsupportedTransport = errors.New("unsupported transport")
	// ErrDecode means received bytes were not valid UTF-8.
	ErrDecode               = errors.New("decode failed")
)
