package bridge

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/lx200bridge/internal/lx200"
	"github.com/danmuck/lx200bridge/internal/mount"
	"github.com/danmuck/lx200bridge/internal/serial"
)

var (
	ErrMissingListenAddr  = errors.New("bridge: listen address required")
	ErrInvalidIdleTimeout = errors.New("bridge: idle timeout must be positive")
	ErrInvalidTiming      = errors.New("bridge: serial timing must be positive")
	ErrInvalidPoll        = errors.New("bridge: poll interval must be positive")
	ErrUnknownResetLine   = errors.New("bridge: unknown reset line")
)

const (
	DefaultListenAddr  = ":4030"
	DefaultIdleTimeout = 10 * time.Second
)

// DisplayConfig controls peer discovery and address rendering.
type DisplayConfig struct {
	Enabled      bool
	Interface    string
	APAddr       string
	PeerAPAddr   string
	PollInterval time.Duration
}

// ResetConfig selects the modem status input used as reset line.
type ResetConfig struct {
	Enabled      bool
	Line         serial.ModemLine
	ActiveLow    bool
	PollInterval time.Duration
}

// ServiceConfig configures the bridge process.
type ServiceConfig struct {
	ListenAddr  string
	AdminAddr   string
	CorsOrigins []string
	IdleTimeout time.Duration
	Serial      serial.Config
	Timing      mount.Timing
	Identity    lx200.Identity
	Display     DisplayConfig
	Reset       ResetConfig
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ListenAddr:  DefaultListenAddr,
		AdminAddr:   "",
		IdleTimeout: DefaultIdleTimeout,
		Serial:      serial.DefaultConfig("/dev/ttyUSB0"),
		Timing:      mount.DefaultTiming(),
		Identity:    lx200.DefaultIdentity(),
		Display: DisplayConfig{
			Enabled:      true,
			APAddr:       "192.168.4.1",
			PeerAPAddr:   "192.168.4.2",
			PollInterval: 15 * time.Second,
		},
		Reset: ResetConfig{
			Enabled:      false,
			Line:         serial.LineDSR,
			ActiveLow:    true,
			PollInterval: 250 * time.Millisecond,
		},
	}
}

func (c ServiceConfig) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return ErrMissingListenAddr
	}
	if c.IdleTimeout <= 0 {
		return ErrInvalidIdleTimeout
	}
	t := c.Timing
	if t.AckTimeout <= 0 || t.FirstByteTimeout <= 0 || t.TerminatorTimeout <= 0 || t.SettleDelay < 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidTiming, t)
	}
	if c.Display.Enabled && c.Display.PollInterval <= 0 {
		return fmt.Errorf("%w: display", ErrInvalidPoll)
	}
	if c.Reset.Enabled {
		if c.Reset.PollInterval <= 0 {
			return fmt.Errorf("%w: reset", ErrInvalidPoll)
		}
		switch c.Reset.Line {
		case serial.LineCTS, serial.LineDSR, serial.LineDCD, serial.LineRI:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownResetLine, c.Reset.Line)
		}
	}
	return nil
}
