package serial

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type events struct {
	mu     sync.Mutex
	status []bool
	errs   []error
}

func (e *events) onStatus(open bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = append(e.status, open)
}

func (e *events) onError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, err)
}

func ports(names ...string) Option {
	return WithPortLister(func() ([]string, error) { return names, nil })
}

func newTestConn(t *testing.T, opts ...Option) (*Conn, *fakeHandle, *events) {
	t.Helper()
	h := &fakeHandle{}
	ev := &events{}
	c := NewConn(append([]Option{WithHandle(h), ports("COM3", "COM4")}, opts...)...)
	c.OnStatusChanged(ev.onStatus)
	c.OnError(ev.onError)
	return c, h, ev
}

func TestNewConn_Defaults(t *testing.T) {
	c, _, _ := newTestConn(t, ports("COM3"))

	require.Equal(t, "COM3", c.Port())
	require.Equal(t, BaudRate(9600), c.BaudRate())
	require.Equal(t, StartNone, c.StartMarker())
	require.Equal(t, EndNone, c.EndMarker())
	require.False(t, c.IsOpen())
}

func TestNewConn_NoPorts(t *testing.T) {
	c := NewConn(WithHandle(&fakeHandle{}), ports())
	require.Equal(t, "", c.Port())

	c = NewConn(WithHandle(&fakeHandle{}), WithPortLister(func() ([]string, error) {
		return nil, errors.New("enumeration unavailable")
	}))
	require.Equal(t, "", c.Port())
}

func TestConn_OpenThenFailingReopen(t *testing.T) {
	c, h, ev := newTestConn(t, ports("COM3"))
	require.Equal(t, "COM3", c.Port())

	b, err := ParseBaudRate("19200")
	require.NoError(t, err)
	c.SetBaudRate(b)
	c.Open()

	require.True(t, c.IsOpen())
	require.Equal(t, []bool{true}, ev.status)
	require.Empty(t, ev.errs)
	require.Equal(t, "COM3", h.port)
	require.Equal(t, 19200, h.baud)

	h.fail(errors.New("device busy"))
	c.Open()

	require.False(t, c.IsOpen())
	require.Len(t, ev.errs, 1)
	require.ErrorIs(t, ev.errs[0], ErrOpen)
	require.Contains(t, ev.errs[0].Error(), "device busy")
	require.Contains(t, ev.errs[0].Error(), "COM3")
	require.Equal(t, []bool{true, false}, ev.status)
}

func TestConn_OpenFailureFromClosed(t *testing.T) {
	c, h, ev := newTestConn(t)
	h.fail(errors.New("permission denied"))

	c.Open()

	require.False(t, c.IsOpen())
	require.Empty(t, ev.status)
	require.Len(t, ev.errs, 1)
	require.EqualError(t, ev.errs[0], "open failed: COM3 at 9600 baud: permission denied")
}

func TestConn_SettersNeverNotify(t *testing.T) {
	c, h, ev := newTestConn(t)

	c.SetPort("COM3")
	c.SetPort("COM4")
	c.SetPort("COM4")
	c.SetBaudRate(9600)
	c.SetBaudRate(115200)
	c.SetBaudRate(115200)
	c.SetStartMarker(StartESC)
	c.SetEndMarker(EndBoth)

	require.Empty(t, ev.status)
	require.Equal(t, "COM4", c.Port())
	require.Equal(t, BaudRate(115200), c.BaudRate())
	require.Equal(t, StartESC, c.StartMarker())
	require.Equal(t, EndBoth, c.EndMarker())
	require.Zero(t, h.opens, "settings must wait for the next Open")
}

func TestConn_SettingsApplyOnNextOpen(t *testing.T) {
	c, h, _ := newTestConn(t)
	c.Open()
	require.Equal(t, "COM3", h.port)

	c.SetPort("COM4")
	c.SetBaudRate(57600)
	require.Equal(t, "COM3", h.port)
	require.Equal(t, 9600, h.baud)

	c.Open()
	require.Equal(t, "COM4", h.port)
	require.Equal(t, 57600, h.baud)
}

func TestConn_ReopenClosesFirst(t *testing.T) {
	c, h, ev := newTestConn(t)

	c.Open()
	c.Open()

	require.True(t, c.IsOpen())
	require.Equal(t, 2, h.opens)
	require.Equal(t, 1, h.closes)
	require.Equal(t, []bool{true, false, true}, ev.status)
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	c, _, ev := newTestConn(t)

	c.Close()
	require.False(t, c.IsOpen())
	c.Close()
	require.False(t, c.IsOpen())
	require.Empty(t, ev.status)

	c.Open()
	c.Close()
	c.Close()
	require.False(t, c.IsOpen())
	require.Equal(t, []bool{true, false}, ev.status)
}

func TestConn_CloseFaultStillRefreshesState(t *testing.T) {
	c, h, ev := newTestConn(t)
	c.Open()
	h.closeErr = errors.New("close: bad file descriptor")

	c.Close()

	require.False(t, c.IsOpen())
	require.Equal(t, []bool{true, false}, ev.status)
	require.Empty(t, ev.errs)
}

func TestConn_Send(t *testing.T) {
	c, h, _ := newTestConn(t)
	c.SetStartMarker(StartSTX)
	c.SetEndMarker(EndNewline)

	c.Send("X")
	require.Empty(t, h.sent(), "closed connection must not write")

	c.Open()
	c.Send("X")
	require.Equal(t, "\x02X\n", h.sent())
}

func TestConn_SendMarkers(t *testing.T) {
	tests := []struct {
		start StartMarker
		end   EndMarker
		want  string
	}{
		{StartNone, EndNone, "ping"},
		{StartSOH, EndCarriageReturn, "\x01ping\r"},
		{StartESC, EndBoth, "\x1bping\r\n"},
		{StartSTX, EndNone, "\x02ping"},
	}
	for _, tt := range tests {
		t.Run(tt.start.Label()+"/"+tt.end.Label(), func(t *testing.T) {
			c, h, _ := newTestConn(t)
			c.SetStartMarker(tt.start)
			c.SetEndMarker(tt.end)
			c.Open()
			c.Send("ping")
			require.Equal(t, tt.want, h.sent())
		})
	}
}

func TestConn_Receive(t *testing.T) {
	c, h, _ := newTestConn(t)
	c.Open()

	require.Equal(t, "", c.Receive())
	require.Zero(t, h.reads, "nothing available means no read")

	h.feed("hello\r")
	require.Equal(t, "hello", c.Receive())

	h.feed("  spaced  \r\nnext\r")
	require.Equal(t, "spaced", c.Receive())
	require.Equal(t, "next", c.Receive())
	require.Equal(t, "", c.Receive())
}

func TestConn_ReceiveWhileClosed(t *testing.T) {
	c, h, _ := newTestConn(t)
	h.feed("hello\r")

	require.Equal(t, "", c.Receive())
	require.Zero(t, h.reads)
}

func TestConn_ReceiveFaultsAreSwallowed(t *testing.T) {
	c, h, ev := newTestConn(t)
	c.Open()

	h.availErr = errors.New("input/output error")
	h.feed("lost\r")
	require.Equal(t, "", c.Receive())
	h.availErr = nil

	h.readErr = errors.New("input/output error")
	require.Equal(t, "", c.Receive())
	h.readErr = nil
	h.rx = nil

	h.feed("\xff\xfe\r")
	require.Equal(t, "", c.Receive())

	require.Empty(t, ev.errs)
	require.True(t, c.IsOpen())
}

func TestConn_SubscriberPanicIsIsolated(t *testing.T) {
	c, _, ev := newTestConn(t)
	c.OnStatusChanged(func(bool) { panic("boom") })
	var late []bool
	c.OnStatusChanged(func(open bool) { late = append(late, open) })

	c.Open()

	require.Equal(t, []bool{true}, ev.status)
	require.Equal(t, []bool{true}, late)
}

func TestConn_Unsubscribe(t *testing.T) {
	c, h, _ := newTestConn(t)
	var errs []error
	unsubscribe := c.OnError(func(err error) { errs = append(errs, err) })
	h.fail(errors.New("busy"))

	c.Open()
	unsubscribe()
	unsubscribe()
	c.Open()

	require.Len(t, errs, 1)
}

func finishes(t *testing.T, name string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("%s did not return", name)
	}
}

func TestConn_SubscribersMayUseConn(t *testing.T) {
	c, h, _ := newTestConn(t)
	c.SetEndMarker(EndCarriageReturn)
	h.feed("ready\r")

	var received []string
	c.OnStatusChanged(func(open bool) {
		if open {
			c.Send("C,START")
			received = append(received, c.Receive())
		}
	})

	finishes(t, "Open", c.Open)
	require.Equal(t, "C,START\r", h.sent())
	require.Equal(t, []string{"ready"}, received)

	var reopened bool
	c.OnStatusChanged(func(open bool) {
		if !open && !reopened {
			reopened = true
			c.Open()
		}
	})
	finishes(t, "Close", c.Close)
	require.True(t, c.IsOpen())
}

func TestConn_ErrorSubscriberMayRetry(t *testing.T) {
	c, h, _ := newTestConn(t)
	h.fail(errors.New("busy"))

	retried := false
	c.OnError(func(error) {
		if !retried {
			retried = true
			h.fail(nil)
			c.Open()
		}
	})

	finishes(t, "Open", c.Open)
	require.True(t, c.IsOpen())
	require.Equal(t, 2, h.opens)
}
