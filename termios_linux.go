//go:build linux

package serial

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// TermiosHandle provides low-latency, killable access to a Linux serial port
// through raw syscalls. Close unblocks a pending ReadUntil.
type TermiosHandle struct {
	mu          sync.Mutex
	device      string
	baud        int
	readTimeout time.Duration

	fd      int
	file    *os.File
	pipeR   int // self-pipe read fd
	pipeW   int // self-pipe write fd
	open    bool
	pending []byte
	buf     []byte
}

func newTermiosHandle(readTimeout time.Duration) (Handle, error) {
	return NewTermiosHandle(readTimeout), nil
}

// NewTermiosHandle returns a closed handle. readTimeout bounds ReadUntil.
func NewTermiosHandle(readTimeout time.Duration) *TermiosHandle {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &TermiosHandle{
		baud:        int(DefaultBaudRate),
		readTimeout: readTimeout,
		fd:          -1,
		pipeR:       -1,
		pipeW:       -1,
		buf:         make([]byte, 4096),
	}
}

// SetPort selects the device for the next Open.
func (s *TermiosHandle) SetPort(name string) {
	s.mu.Lock()
	s.device = name
	s.mu.Unlock()
}

// SetBaudRate selects the speed for the next Open.
func (s *TermiosHandle) SetBaudRate(rate int) {
	s.mu.Lock()
	s.baud = rate
	s.mu.Unlock()
}

// IsOpen reports whether the descriptors are held open.
func (s *TermiosHandle) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Open configures the device for raw, non-canonical 8N1 operation.
func (s *TermiosHandle) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return nil
	}
	if s.device == "" {
		return ErrNoPort
	}
	baud, err := baudToUnix(s.baud)
	if err != nil {
		return err
	}

	fd, err := syscall.Open(s.device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.device, err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		syscall.Close(fd)
		return fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8

	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baud

	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		syscall.Close(fd)
		return fmt.Errorf("set termios: %w", err)
	}

	// Reads are gated by poll, so the fd can go back to blocking mode.
	syscall.SetNonblock(fd, false)

	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		syscall.Close(fd)
		return fmt.Errorf("pipe: %w", err)
	}

	s.fd = fd
	s.file = os.NewFile(uintptr(fd), s.device)
	s.pipeR = pipeFds[0]
	s.pipeW = pipeFds[1]
	s.pending = s.pending[:0]
	s.open = true
	return nil
}

// Close wakes any pending ReadUntil and releases the descriptors.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *TermiosHandle) Close() error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil
	}
	s.open = false
	pipeW := s.pipeW
	s.mu.Unlock()

	// Wake up poll using self-pipe
	unix.Write(pipeW, []byte{1})

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.file.Close()
	unix.Close(s.pipeR)
	unix.Close(s.pipeW)
	s.file = nil
	s.fd, s.pipeR, s.pipeW = -1, -1, -1
	return err
}

// Write sends p unchanged.
func (s *TermiosHandle) Write(p []byte) (int, error) {
	file, err := s.current()
	if err != nil {
		return 0, err
	}
	return file.Write(p)
}

// BytesAvailable adds the kernel input queue (TIOCINQ) to bytes already
// buffered past the last delimiter.
func (s *TermiosHandle) BytesAvailable() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, ErrClosed
	}
	n, err := unix.IoctlGetInt(s.fd, unix.TIOCINQ)
	if err != nil {
		return 0, fmt.Errorf("tiocinq: %w", err)
	}
	return n + len(s.pending), nil
}

// ReadUntil polls the port and the self-pipe together so that Close
// interrupts the wait. The timeout restarts whenever bytes arrive.
func (s *TermiosHandle) ReadUntil(delim byte) ([]byte, error) {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	fd, pipeR, file, device := s.fd, s.pipeR, s.file, s.device
	s.mu.Unlock()

	deadline := time.Now().Add(s.readTimeout)
	for {
		if line, rest, ok := splitThrough(s.pending, delim); ok {
			s.pending = rest
			return line, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return s.takePending(), nil
		}
		pfd := []unix.PollFd{
			{Fd: int32(fd), Events: unix.POLLIN},
			{Fd: int32(pipeR), Events: unix.POLLIN},
		}
		n, err := unix.Poll(pfd, int(remaining.Milliseconds())+1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return s.takePending(), err
		}
		if n == 0 {
			return s.takePending(), nil
		}
		if pfd[1].Revents&(unix.POLLIN|unix.POLLNVAL) != 0 || pfd[0].Revents&unix.POLLNVAL != 0 {
			return s.takePending(), ErrClosed
		}
		if pfd[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 && pfd[0].Revents&unix.POLLIN == 0 {
			return s.takePending(), fmt.Errorf("%s: device hung up", device)
		}
		if pfd[0].Revents&unix.POLLIN != 0 {
			n, err := file.Read(s.buf)
			if err != nil {
				return s.takePending(), err
			}
			s.pending = append(s.pending, s.buf[:n]...)
			deadline = time.Now().Add(s.readTimeout)
		}
	}
}

func (s *TermiosHandle) current() (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil, ErrClosed
	}
	return s.file, nil
}

func (s *TermiosHandle) takePending() []byte {
	out := append([]byte(nil), s.pending...)
	s.pending = s.pending[:0]
	return out
}

func baudToUnix(baud int) (uint32, error) {
	switch baud {
	case 1200:
		return unix.B1200, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBaudRate, baud)
	}
}
