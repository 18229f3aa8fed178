//go:build !linux

package serial

import (
	"fmt"
	"runtime"
	"time"
)

func newTermiosHandle(time.Duration) (Handle, error) {
	return nil, fmt.Errorf("%w: termios on %s", ErrUnsupportedTransport, runtime.GOOS)
}
