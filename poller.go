package serial

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
)

// DefaultPollInterval is the pause between receive attempts.
const DefaultPollInterval = 100 * time.Millisecond

// Source is what the poller reads from; *Conn implements it.
type Source interface {
	IsOpen() bool
	Receive() string
}

// Sink displays received lines.
//
//go:generate mockgen -destination=mock_sink_test.go -package=serial . Sink
type Sink interface {
	AppendLine(line string)
	ScrollToEnd()
}

// Poller periodically moves received lines from a Source to a Sink.
type Poller struct {
	src      Source
	sink     Sink
	interval time.Duration
	log      zerolog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the pause between receive attempts.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollerLogger sets the logger for sink failures. The default discards.
func WithPollerLogger(l zerolog.Logger) PollerOption {
	return func(p *Poller) { p.log = l }
}

// NewPoller returns a poller that is started with Run.
func NewPoller(src Source, sink Sink, opts ...PollerOption) *Poller {
	p := &Poller{
		src:      src,
		sink:     sink,
		interval: DefaultPollInterval,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until ctx is cancelled. A panicking sink is logged and the loop
// keeps going.
func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		p.poll()
		timer.Reset(p.interval)
	}
}

func (p *Poller) poll() {
	if !p.src.IsOpen() {
		return
	}
	line := p.src.Receive()
	if line == "" {
		return
	}
	var pc panics.Catcher
	pc.Try(func() {
		p.sink.AppendLine(line)
		p.sink.ScrollToEnd()
	})
	if r := pc.Recovered(); r != nil {
		p.log.Error().Interface("panic", r.Value).Msg("display failed")
	}
}
