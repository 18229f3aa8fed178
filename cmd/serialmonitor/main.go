package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/spf13/pflag"

	serial "github.com/luhtfiimanal/go-serial-monitor"
	"github.com/luhtfiimanal/go-serial-monitor/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	settings, err := config.Load(config.NewFlagSet("serialmonitor"), args)
	if err != nil {
		return err
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        colorable.NewColorableStderr(),
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		TimeFormat: time.TimeOnly,
	})
	zerolog.SetGlobalLevel(settings.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	handle, err := serial.NewHandle(settings.Transport, settings.ReadTimeout)
	if err != nil {
		return err
	}
	conn := serial.NewConn(
		serial.WithHandle(handle),
		serial.WithLogger(log.With().Str("component", "conn").Logger()),
	)
	if settings.Port != "" {
		conn.SetPort(settings.Port)
	}
	conn.SetBaudRate(settings.Baud)
	conn.SetStartMarker(settings.Start)
	conn.SetEndMarker(settings.End)

	out := newLineSink(os.Stdout)
	conn.OnStatusChanged(func(open bool) {
		if open {
			fmt.Fprintf(out, "connected to %s at %s baud\n", conn.Port(), conn.BaudRate())
			return
		}
		fmt.Fprintln(out, "disconnected")
	})
	conn.OnError(func(err error) {
		fmt.Fprintf(out, "error: %v\n", err)
	})

	poller := serial.NewPoller(conn, out,
		serial.WithInterval(settings.PollInterval),
		serial.WithPollerLogger(log.With().Str("component", "poller").Logger()),
	)
	pollCtx, stopPolling := context.WithCancel(ctx)
	var wg conc.WaitGroup
	wg.Go(func() { poller.Run(pollCtx) })

	log.Info().Str("transport", settings.Transport).Str("port", conn.Port()).Msg("serial monitor started, /help for commands")
	if settings.AutoOpen {
		conn.Open()
	}

	con := &console{conn: conn, out: out, listPorts: serial.DescribePorts}
	loopErr := con.loop(ctx, os.Stdin)

	// The poller must be gone before the port is torn down.
	stopPolling()
	wg.Wait()
	conn.Close()
	log.Info().Msg("serial monitor stopped")
	return loopErr
}
