package main

import (
	"bufio"
	"io"
	"sync"
)

// lineSink is the display: received lines are buffered until ScrollToEnd,
// console messages are written straight through.
type lineSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func newLineSink(w io.Writer) *lineSink {
	return &lineSink{w: bufio.NewWriter(w)}
}

func (s *lineSink) AppendLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.WriteString(line)
	s.w.WriteByte('\n')
}

func (s *lineSink) ScrollToEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
}

func (s *lineSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, s.w.Flush()
}
