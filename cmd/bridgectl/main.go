package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/lx200bridge/internal/admin"
	"github.com/danmuck/lx200bridge/internal/bridge"
	"github.com/danmuck/lx200bridge/internal/clock"
	"github.com/danmuck/lx200bridge/internal/display"
	"github.com/danmuck/lx200bridge/internal/logging"
	"github.com/danmuck/lx200bridge/internal/mount"
	"github.com/danmuck/lx200bridge/internal/netinfo"
	"github.com/danmuck/lx200bridge/internal/reset"
	"github.com/danmuck/lx200bridge/internal/serial"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "cmd/bridgectl/config.toml", "path to config.toml")
	device := flag.String("device", "", "serial device (overrides serial.device)")
	driver := flag.String("driver", "", "serial driver: bugst|tarm (overrides serial.driver)")
	listen := flag.String("listen", "", "client listen address (overrides listen_addr)")
	adminAddr := flag.String("admin", "", "admin HTTP address (overrides admin_addr)")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := loadServiceConfig(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", *configPath).Msg("bridgectl config not found, using defaults")
		cfg, err = bridge.DefaultServiceConfig(), nil
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "bridgectl: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg, *device, *driver, *listen, *adminAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()

	switch {
	case errors.Is(err, bridge.ErrResetRequested):
		restart()
	case err != nil:
		log.Error().Err(err).Msg("bridgectl stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg bridge.ServiceConfig) error {
	port, err := serial.Open(cfg.Serial)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Info().
		Str("device", cfg.Serial.Device).
		Int("baud", cfg.Serial.Baud).
		Str("driver", cfg.Serial.Driver).
		Msg("bridgectl serial port open")

	ctrl, err := mount.NewController(port, clock.System(), cfg.Timing)
	if err != nil {
		return err
	}

	var line reset.Line
	if cfg.Reset.Enabled {
		ml, err := reset.FromPort(port, cfg.Reset.Line, cfg.Reset.ActiveLow)
		if err != nil {
			return err
		}
		line = ml
	}

	board := display.NewBoard()
	svc, err := bridge.NewService(cfg, bridge.Deps{
		Link:      ctrl,
		Clock:     clock.System(),
		Display:   display.Multi{display.LogRenderer{Logger: log.Logger}, board},
		Reset:     line,
		LocalAddr: netinfo.LocalAddr,
	})
	if err != nil {
		return err
	}

	if cfg.AdminAddr != "" {
		srv := admin.New(cfg.AdminAddr, svc, board, cfg.CorsOrigins)
		go func() {
			if err := srv.Serve(ctx); err != nil {
				log.Error().Err(err).Str("addr", cfg.AdminAddr).Msg("bridgectl admin server failed")
			}
		}()
	}

	return svc.Run(ctx)
}

// restart replaces the process with a fresh copy of itself.
func restart() {
	exe, err := os.Executable()
	if err != nil {
		log.Error().Err(err).Msg("bridgectl restart: resolve executable")
		os.Exit(1)
	}
	log.Warn().Str("exe", exe).Msg("bridgectl restarting")
	if err := syscall.Exec(exe, os.Args, os.Environ()); err != nil {
		log.Error().Err(err).Msg("bridgectl restart failed")
		os.Exit(1)
	}
}
