package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/lx200bridge/internal/bridge"
	"github.com/danmuck/lx200bridge/internal/serial"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultRoundTripsToServiceConfig(t *testing.T) {
	cfg, err := Default().ServiceConfig()
	if err != nil {
		t.Fatalf("convert default: %v", err)
	}
	want := bridge.DefaultServiceConfig()
	if cfg.ListenAddr != want.ListenAddr || cfg.IdleTimeout != want.IdleTimeout {
		t.Fatalf("unexpected listener settings: %+v", cfg)
	}
	if cfg.Timing != want.Timing {
		t.Fatalf("timing mismatch: %+v vs %+v", cfg.Timing, want.Timing)
	}
	if cfg.Serial != want.Serial {
		t.Fatalf("serial mismatch: %+v vs %+v", cfg.Serial, want.Serial)
	}
	if cfg.Identity != want.Identity || cfg.Display != want.Display || cfg.Reset != want.Reset {
		t.Fatalf("section mismatch: %+v", cfg)
	}
}

func TestServiceConfigReportsBadDurations(t *testing.T) {
	f := Default()
	f.IdleTimeout = "ten seconds"
	f.Timing.AckTimeout = ""
	_, err := f.ServiceConfig()
	if err == nil {
		t.Fatalf("expected duration errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "idle_timeout") || !strings.Contains(msg, "timing.ack_timeout") {
		t.Fatalf("errors must name each key: %v", err)
	}
}

func TestTemplateValidates(t *testing.T) {
	tmpl, err := Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	for _, key := range []string{"listen_addr", "[serial]", "first_byte_timeout", "[reset]"} {
		if !strings.Contains(tmpl, key) {
			t.Fatalf("template missing %q:\n%s", key, tmpl)
		}
	}
	if err := ValidateFile(writeFile(t, tmpl)); err != nil {
		t.Fatalf("template must validate: %v", err)
	}
}

func TestWriteTemplateRespectsOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteTemplate(path, false); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
}

func TestValidateFilePartial(t *testing.T) {
	path := writeFile(t, `
listen_addr = ":5000"

[serial]
device = "/dev/ttyAMA0"
driver = "tarm"
`)
	if err := ValidateFile(path); err != nil {
		t.Fatalf("partial config must validate: %v", err)
	}
}

func TestValidateFileRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, `
listen_addr = ":4030"
listen_port = 4030
`)
	err := ValidateFile(path)
	if err == nil || !strings.Contains(err.Error(), "listen_port") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidateFileRejectsBadValues(t *testing.T) {
	cases := map[string]error{
		"[serial]\ndriver = \"ftdi\"\n":                       serial.ErrUnknownDriver,
		"idle_timeout = \"0s\"\n":                              bridge.ErrInvalidIdleTimeout,
		"[reset]\nenabled = true\nline = \"rts\"\n":            bridge.ErrUnknownResetLine,
		"[timing]\nfirst_byte_timeout = \"-1s\"\n":             bridge.ErrInvalidTiming,
		"[display]\nenabled = true\npoll_interval = \"0s\"\n": bridge.ErrInvalidPoll,
	}
	for content, want := range cases {
		if err := ValidateFile(writeFile(t, content)); !errors.Is(err, want) {
			t.Fatalf("%q: expected %v, got %v", content, want, err)
		}
	}
}

func TestDuration(t *testing.T) {
	d, err := Duration("timing.ack_timeout", " 500ms ")
	if err != nil || d != 500*time.Millisecond {
		t.Fatalf("unexpected parse: %v %v", d, err)
	}
}

func TestDefaultLeavesAdminOff(t *testing.T) {
	f := Default()
	if f.AdminAddr != "" || f.CorsOrigins != nil {
		t.Fatalf("admin server must be opt-in: %q %v", f.AdminAddr, f.CorsOrigins)
	}
	cfg, err := f.ServiceConfig()
	if err != nil {
		t.Fatalf("convert default: %v", err)
	}
	if cfg.AdminAddr != "" {
		t.Fatalf("unexpected admin addr: %q", cfg.AdminAddr)
	}
	tmpl, err := Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	for _, line := range strings.Split(tmpl, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "admin_addr") && strings.Contains(line, "9030") {
			t.Fatalf("template must leave admin_addr empty: %q", line)
		}
	}
}
