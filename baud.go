package serial

import (
	"fmt"
	"strconv"
	"strings"
)

// BaudRate is one of the line speeds offered to the user.
type BaudRate int

// DefaultBaudRate is used until the user picks another rate.
const DefaultBaudRate BaudRate = 9600

var supportedBaudRates = []BaudRate{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// SupportedBaudRates returns the selectable rates in ascending order.
func SupportedBaudRates() []BaudRate {
	out := make([]BaudRate, len(supportedBaudRates))
	copy(out, supportedBaudRates)
	return out
}

// Valid reports whether b is one of SupportedBaudRates.
func (b BaudRate) Valid() bool {
	for _, r := range supportedBaudRates {
		if r == b {
			return true
		}
	}
	return false
}

// String formats the rate as a decimal number.
func (b BaudRate) String() string {
	return strconv.Itoa(int(b))
}

// ParseBaudRate parses a decimal rate such as "19200" and rejects anything
// outside SupportedBaudRates.
func ParseBaudRate(s string) (BaudRate, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedBaudRate, s)
	}
	b := BaudRate(n)
	if !b.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBaudRate, n)
	}
	return b, nil
}
