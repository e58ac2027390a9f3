// Package config holds the bridgectl config.toml schema, its template and
// strict validation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/lx200bridge/internal/bridge"
	"github.com/danmuck/lx200bridge/internal/lx200"
	"github.com/danmuck/lx200bridge/internal/mount"
	"github.com/danmuck/lx200bridge/internal/serial"
	"github.com/pelletier/go-toml/v2"
)

var ErrExists = errors.New("config already exists")

// File is config.toml. Durations are Go duration strings ("500ms", "10s").
type File struct {
	ListenAddr  string   `toml:"listen_addr"`
	// AdminAddr enables the admin HTTP server. Empty keeps it off.
	AdminAddr   string   `toml:"admin_addr"`
	CorsOrigins []string `toml:"cors_origins,omitempty"`
	IdleTimeout string   `toml:"idle_timeout"`

	Serial   SerialSection   `toml:"serial"`
	Timing   TimingSection   `toml:"timing"`
	Identity IdentitySection `toml:"identity"`
	Display  DisplaySection  `toml:"display"`
	Reset    ResetSection    `toml:"reset"`
}

type SerialSection struct {
	Device      string `toml:"device"`
	Baud        int    `toml:"baud"`
	Driver      string `toml:"driver"`
	PollTimeout string `toml:"poll_timeout"`
}

type TimingSection struct {
	AckTimeout        string `toml:"ack_timeout"`
	SettleDelay       string `toml:"settle_delay"`
	FirstByteTimeout  string `toml:"first_byte_timeout"`
	TerminatorTimeout string `toml:"terminator_timeout"`
}

type IdentitySection struct {
	Product         string `toml:"product"`
	FirmwareVersion string `toml:"firmware_version"`
	FirmwareDate    string `toml:"firmware_date"`
	FirmwareTime    string `toml:"firmware_time"`
}

type DisplaySection struct {
	Enabled      bool   `toml:"enabled"`
	Interface    string `toml:"interface"`
	APAddr       string `toml:"ap_addr"`
	PeerAPAddr   string `toml:"peer_ap_addr"`
	PollInterval string `toml:"poll_interval"`
}

type ResetSection struct {
	Enabled      bool   `toml:"enabled"`
	Line         string `toml:"line"`
	ActiveLow    bool   `toml:"active_low"`
	PollInterval string `toml:"poll_interval"`
}

// Default renders bridge.DefaultServiceConfig as a File.
func Default() File {
	c := bridge.DefaultServiceConfig()
	return File{
		ListenAddr:  c.ListenAddr,
		AdminAddr:   c.AdminAddr,
		CorsOrigins: c.CorsOrigins,
		IdleTimeout: c.IdleTimeout.String(),
		Serial: SerialSection{
			Device:      c.Serial.Device,
			Baud:        c.Serial.Baud,
			Driver:      c.Serial.Driver,
			PollTimeout: c.Serial.PollTimeout.String(),
		},
		Timing: TimingSection{
			AckTimeout:        c.Timing.AckTimeout.String(),
			SettleDelay:       c.Timing.SettleDelay.String(),
			FirstByteTimeout:  c.Timing.FirstByteTimeout.String(),
			TerminatorTimeout: c.Timing.TerminatorTimeout.String(),
		},
		Identity: IdentitySection{
			Product:         c.Identity.Product,
			FirmwareVersion: c.Identity.FirmwareVersion,
			FirmwareDate:    c.Identity.FirmwareDate,
			FirmwareTime:    c.Identity.FirmwareTime,
		},
		Display: DisplaySection{
			Enabled:      c.Display.Enabled,
			Interface:    c.Display.Interface,
			APAddr:       c.Display.APAddr,
			PeerAPAddr:   c.Display.PeerAPAddr,
			PollInterval: c.Display.PollInterval.String(),
		},
		Reset: ResetSection{
			Enabled:      c.Reset.Enabled,
			Line:         string(c.Reset.Line),
			ActiveLow:    c.Reset.ActiveLow,
			PollInterval: c.Reset.PollInterval.String(),
		},
	}
}

// ServiceConfig converts a fully populated File. Every duration must parse.
func (f File) ServiceConfig() (bridge.ServiceConfig, error) {
	var errs []error
	dur := func(key, raw string) time.Duration {
		d, err := Duration(key, raw)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	cfg := bridge.ServiceConfig{
		ListenAddr:  strings.TrimSpace(f.ListenAddr),
		AdminAddr:   strings.TrimSpace(f.AdminAddr),
		CorsOrigins: f.CorsOrigins,
		IdleTimeout: dur("idle_timeout", f.IdleTimeout),
		Serial: serial.Config{
			Device:      strings.TrimSpace(f.Serial.Device),
			Baud:        f.Serial.Baud,
			Driver:      strings.TrimSpace(f.Serial.Driver),
			PollTimeout: dur("serial.poll_timeout", f.Serial.PollTimeout),
		},
		Timing: mount.Timing{
			AckTimeout:        dur("timing.ack_timeout", f.Timing.AckTimeout),
			SettleDelay:       dur("timing.settle_delay", f.Timing.SettleDelay),
			FirstByteTimeout:  dur("timing.first_byte_timeout", f.Timing.FirstByteTimeout),
			TerminatorTimeout: dur("timing.terminator_timeout", f.Timing.TerminatorTimeout),
		},
		Identity: lx200.Identity{
			Product:         f.Identity.Product,
			FirmwareVersion: f.Identity.FirmwareVersion,
			FirmwareDate:    f.Identity.FirmwareDate,
			FirmwareTime:    f.Identity.FirmwareTime,
		},
		Display: bridge.DisplayConfig{
			Enabled:      f.Display.Enabled,
			Interface:    strings.TrimSpace(f.Display.Interface),
			APAddr:       strings.TrimSpace(f.Display.APAddr),
			PeerAPAddr:   strings.TrimSpace(f.Display.PeerAPAddr),
			PollInterval: dur("display.poll_interval", f.Display.PollInterval),
		},
		Reset: bridge.ResetConfig{
			Enabled:      f.Reset.Enabled,
			Line:         serial.ModemLine(strings.ToLower(strings.TrimSpace(f.Reset.Line))),
			ActiveLow:    f.Reset.ActiveLow,
			PollInterval: dur("reset.poll_interval", f.Reset.PollInterval),
		},
	}
	if err := errors.Join(errs...); err != nil {
		return bridge.ServiceConfig{}, err
	}
	return cfg, nil
}

// Duration parses a config duration, naming key in the error.
func Duration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", key, err)
	}
	return d, nil
}

const templateHeader = `# lx200bridge config
# Durations use Go syntax: 3ms, 500ms, 2.3s, 10s.
# serial.driver: "bugst" or "tarm". reset.line: cts, dsr, dcd or ri.
# The admin HTTP server is opt-in: set admin_addr (e.g. "127.0.0.1:9030").

`

// Template returns Default as TOML.
func Template() (string, error) {
	var buf bytes.Buffer
	buf.WriteString(templateHeader)
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(Default()); err != nil {
		return "", fmt.Errorf("config template: %w", err)
	}
	return buf.String(), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// ValidateFile rejects unknown keys and values the bridge would refuse.
// Keys missing from the file fall back to Default.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	f := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config parse failed (%s): %s", path, strict.String())
		}
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	cfg, err := f.ServiceConfig()
	if err != nil {
		return fmt.Errorf("config invalid (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config invalid (%s): %w", path, err)
	}
	if err := cfg.Serial.Validate(); err != nil {
		return fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return nil
}
