// Package serial is the byte link to the mount controller.
//
// Two drivers are available: go.bug.st/serial ("bugst", default) and
// github.com/tarm/serial ("tarm"). Both are wrapped so that a Read that
// times out returns (0, nil); callers poll with short reads and keep their
// own deadlines.
package serial

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	DriverBugst = "bugst"
	DriverTarm  = "tarm"

	DefaultBaud        = 230400
	DefaultPollTimeout = 5 * time.Millisecond
)

var (
	ErrNoDevice      = errors.New("serial: device path required")
	ErrInvalidBaud   = errors.New("serial: baud rate must be positive")
	ErrUnknownDriver = errors.New("serial: unknown driver")
)

// Port is a duplex byte link. Read returns (0, nil) when the poll timeout
// elapses without data.
type Port interface {
	io.ReadWriteCloser

	// Flush blocks until written bytes have left the output buffer.
	Flush() error
	// ResetInput discards bytes received but not yet read.
	ResetInput() error
}

// ModemLine names a modem status input.
type ModemLine string

const (
	LineCTS ModemLine = "cts"
	LineDSR ModemLine = "dsr"
	LineDCD ModemLine = "dcd"
	LineRI  ModemLine = "ri"
)

// ModemLines is implemented by ports that can report status inputs.
type ModemLines interface {
	ModemLine(line ModemLine) (bool, error)
}

// Config holds serial link settings. The link is 8N1.
type Config struct {
	Device      string
	Baud        int
	Driver      string
	PollTimeout time.Duration
}

func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        DefaultBaud,
		Driver:      DriverBugst,
		PollTimeout: DefaultPollTimeout,
	}
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if strings.TrimSpace(c.Driver) == "" {
		c.Driver = DriverBugst
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Device) == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		return ErrInvalidBaud
	}
	switch c.Driver {
	case DriverBugst, DriverTarm:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
	return nil
}

// Open opens the configured device and discards any pending input.
func Open(cfg Config) (Port, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		port Port
		err  error
	)
	switch cfg.Driver {
	case DriverTarm:
		port, err = openTarm(cfg)
	default:
		port, err = openBugst(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	if err := port.ResetInput(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("reset input %s: %w", cfg.Device, err)
	}
	return port, nil
}
