// Package config resolves startup settings from flags and SERIALMON_*
// environment variables. Nothing is written back; every run starts from
// these values.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	serial "github.com/luhtfiimanal/go-serial-monitor"
)

// EnvPrefix prefixes the environment variable for every setting.
const EnvPrefix = "SERIALMON"

// Settings are the startup values for one run.
type Settings struct {
	Port         string        `mapstructure:"port"`
	BaudRate     int           `mapstructure:"baud"`
	StartLabel   string        `mapstructure:"start"`
	EndLabel     string        `mapstructure:"end"`
	Transport    string        `mapstructure:"transport"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	LogLevel     string        `mapstructure:"log_level"`
	AutoOpen     bool          `mapstructure:"open"`

	// Filled by Validate.
	Baud  serial.BaudRate    `mapstructure:"-"`
	Start serial.StartMarker `mapstructure:"-"`
	End   serial.EndMarker   `mapstructure:"-"`
	Level zerolog.Level      `mapstructure:"-"`
}

// flag name -> settings key
var bindings = map[string]string{
	"port":          "port",
	"baud":          "baud",
	"start":         "start",
	"end":           "end",
	"transport":     "transport",
	"poll-interval": "poll_interval",
	"read-timeout":  "read_timeout",
	"log-level":     "log_level",
	"open":          "open",
}

// NewFlagSet declares the command-line flags understood by Load.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("port", "", "serial device (default: first detected port)")
	fs.Int("baud", int(serial.DefaultBaudRate), "baud rate")
	fs.String("start", serial.StartNone.Label(), "start marker label")
	fs.String("end", serial.EndNone.Label(), "end marker label")
	fs.String("transport", "auto", "serial transport: auto, bugst or termios")
	fs.Duration("poll-interval", serial.DefaultPollInterval, "pause between receive attempts")
	fs.Duration("read-timeout", serial.DefaultReadTimeout, "how long a line read may wait for a carriage return")
	fs.String("log-level", "info", "log level")
	fs.Bool("open", false, "open the port at startup")
	return fs
}

// Load parses args and the environment. Flags set explicitly win over the
// environment, which wins over flag defaults.
func Load(fs *pflag.FlagSet, args []string) (*Settings, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for flag, key := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects unsupported selections and fills the typed fields.
func (s *Settings) Validate() error {
	s.Baud = serial.BaudRate(s.BaudRate)
	if !s.Baud.Valid() {
		return fmt.Errorf("baud: %w: %d", serial.ErrUnsupportedBaudRate, s.BaudRate)
	}
	start, err := serial.ParseStartMarker(s.StartLabel)
	if err != nil {
		return err
	}
	end, err := serial.ParseEndMarker(s.EndLabel)
	if err != nil {
		return err
	}
	s.Start, s.End = start, end

	switch s.Transport {
	case "auto", "bugst", "termios":
	default:
		return fmt.Errorf("transport: %w: %q", serial.ErrUnsupportedTransport, s.Transport)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", s.PollInterval)
	}
	if s.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %s", s.ReadTimeout)
	}
	lvl, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	s.Level = lvl
	return nil
}
