package serial

import (
	"errors"
	"testing"
	"time"
)

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Device: "/dev/ttyUSB0"}.WithDefaults()
	if cfg.Baud != DefaultBaud {
		t.Fatalf("unexpected baud: %d", cfg.Baud)
	}
	if cfg.Driver != DriverBugst {
		t.Fatalf("unexpected driver: %q", cfg.Driver)
	}
	if cfg.PollTimeout != DefaultPollTimeout {
		t.Fatalf("unexpected poll timeout: %v", cfg.PollTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{name: "missing device", cfg: Config{Baud: 9600, Driver: DriverBugst}, want: ErrNoDevice},
		{name: "bad baud", cfg: Config{Device: "/dev/ttyS0", Baud: -1, Driver: DriverTarm}, want: ErrInvalidBaud},
		{name: "bad driver", cfg: Config{Device: "/dev/ttyS0", Baud: 9600, Driver: "usb"}, want: ErrUnknownDriver},
	}
	for _, tc := range cases {
		if err := tc.cfg.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestOpenRejectsInvalidConfigBeforeTouchingDevice(t *testing.T) {
	_, err := Open(Config{Driver: DriverTarm, PollTimeout: time.Millisecond})
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(DefaultConfig("/dev/lx200bridge-does-not-exist"))
	if err == nil {
		t.Fatalf("expected open error for missing device")
	}
}
