package serial

import (
	"bytes"
	"sync"
)

// fakeHandle is an in-memory Handle. rx holds bytes waiting to be read.
type fakeHandle struct {
	mu sync.Mutex

	port string
	baud int
	open bool

	openErr  error
	closeErr error
	availErr error
	readErr  error

	opens  int
	closes int
	reads  int

	written bytes.Buffer
	rx      []byte
}

func (f *fakeHandle) SetPort(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.port = name
}

func (f *fakeHandle) SetBaudRate(rate int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baud = rate
}

func (f *fakeHandle) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.openErr != nil {
		return f.openErr
	}
	f.open = true
	return nil
}

func (f *fakeHandle) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.open = false
	return f.closeErr
}

func (f *fakeHandle) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeHandle) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.Write(p)
}

func (f *fakeHandle) BytesAvailable() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.availErr != nil {
		return 0, f.availErr
	}
	return len(f.rx), nil
}

func (f *fakeHandle) ReadUntil(delim byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	line, rest, ok := splitThrough(f.rx, delim)
	if !ok {
		line, rest = f.rx, nil
	}
	f.rx = rest
	return line, nil
}

func (f *fakeHandle) feed(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rx = append(f.rx, s...)
}

func (f *fakeHandle) sent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.String()
}

func (f *fakeHandle) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr = err
}
