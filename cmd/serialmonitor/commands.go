package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	serial "github.com/luhtfiimanal/go-serial-monitor"
)

var errQuit = errors.New("quit")

// controller is the part of *serial.Conn the console drives.
type controller interface {
	Open()
	Close()
	IsOpen() bool
	Send(msg string)
	Port() string
	SetPort(name string)
	BaudRate() serial.BaudRate
	SetBaudRate(b serial.BaudRate)
	StartMarker() serial.StartMarker
	SetStartMarker(m serial.StartMarker)
	EndMarker() serial.EndMarker
	SetEndMarker(m serial.EndMarker)
}

const helpText = `commands:
  /ports          list serial ports
  /port NAME      select port
  /baud N         select baud rate
  /start [LABEL]  select or list start markers
  /end [LABEL]    select or list end markers
  /open           connect (reconnects if already open)
  /close          disconnect
  /status         show settings
  /quit           exit
anything else is sent to the device; start a message with // to send a leading /
`

type console struct {
	conn      controller
	out       io.Writer
	listPorts func() ([]serial.PortInfo, error)
}

// loop reads commands until EOF, /quit or ctx cancellation.
func (c *console) loop(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	// A blocking Read cannot be cancelled. On shutdown this goroutine stays
	// parked in Scan until the process exits; it never touches the port.
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if err := c.handle(line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
		}
	}
}

func (c *console) handle(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") || strings.HasPrefix(line, "//") {
		c.send(strings.TrimPrefix(line, "/"))
		return nil
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprint(c.out, helpText)
	case "ports":
		c.ports()
	case "port":
		if arg == "" {
			fmt.Fprintln(c.out, "usage: /port NAME")
			return nil
		}
		c.conn.SetPort(arg)
	case "baud":
		b, err := serial.ParseBaudRate(arg)
		if err != nil {
			fmt.Fprintf(c.out, "%v (choose from %v)\n", err, serial.SupportedBaudRates())
			return nil
		}
		c.conn.SetBaudRate(b)
	case "start":
		if arg == "" {
			c.listStartMarkers()
			return nil
		}
		m, err := serial.ParseStartMarker(arg)
		if err != nil {
			fmt.Fprintln(c.out, err)
			c.listStartMarkers()
			return nil
		}
		c.conn.SetStartMarker(m)
	case "end":
		if arg == "" {
			c.listEndMarkers()
			return nil
		}
		m, err := serial.ParseEndMarker(arg)
		if err != nil {
			fmt.Fprintln(c.out, err)
			c.listEndMarkers()
			return nil
		}
		c.conn.SetEndMarker(m)
	case "open", "connect":
		c.conn.Open()
	case "close", "disconnect":
		c.conn.Close()
	case "status":
		c.status()
	default:
		fmt.Fprintf(c.out, "unknown command %q, try /help\n", cmd)
	}
	return nil
}

func (c *console) send(msg string) {
	if !c.conn.IsOpen() {
		fmt.Fprintln(c.out, "not connected, use /open")
		return
	}
	c.conn.Send(msg)
}

func (c *console) ports() {
	infos, err := c.listPorts()
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	if len(infos) == 0 {
		fmt.Fprintln(c.out, "no serial ports found")
		return
	}
	current := c.conn.Port()
	for _, p := range infos {
		mark := " "
		if p.Name == current {
			mark = "*"
		}
		fmt.Fprintf(c.out, "%s %s\n", mark, p.Label())
	}
}

func (c *console) listStartMarkers() {
	current := c.conn.StartMarker()
	for _, m := range serial.StartMarkerOptions() {
		fmt.Fprintf(c.out, "%s %s\n", selected(m == current), m.Label())
	}
}

func (c *console) listEndMarkers() {
	current := c.conn.EndMarker()
	for _, m := range serial.EndMarkerOptions() {
		fmt.Fprintf(c.out, "%s %s\n", selected(m == current), m.Label())
	}
}

func (c *console) status() {
	state := "closed"
	if c.conn.IsOpen() {
		state = "open"
	}
	fmt.Fprintf(c.out, "port=%s baud=%s start=%q end=%q state=%s\n",
		c.conn.Port(), c.conn.BaudRate(), c.conn.StartMarker().Label(), c.conn.EndMarker().Label(), state)
}

func selected(ok bool) string {
	if ok {
		return "*"
	}
	return " "
}
