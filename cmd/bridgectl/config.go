package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/lx200bridge/internal/bridge"
	"github.com/danmuck/lx200bridge/internal/config"
	"github.com/rs/zerolog/log"
)

// bridgectl loader for TOML config with default overlay. Keys absent from
// the file keep the values of config.Default. The admin server is opt-in:
// it runs only when admin_addr is set in the file or by the -admin flag.
func loadServiceConfig(path string) (bridge.ServiceConfig, error) {
	raw := config.Default()
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return bridge.ServiceConfig{}, fmt.Errorf("load bridge config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		log.Warn().Strs("keys", keys).Str("path", path).Msg("bridgectl ignoring unknown config keys")
	}
	if !meta.IsDefined("serial", "device") {
		log.Warn().Str("device", raw.Serial.Device).Msg("bridgectl serial.device not set, using default")
	}
	if meta.IsDefined("cors_origins") && strings.TrimSpace(raw.AdminAddr) == "" {
		log.Warn().Msg("bridgectl cors_origins set without admin_addr, admin server stays off")
	}

	cfg, err := raw.ServiceConfig()
	if err != nil {
		return bridge.ServiceConfig{}, fmt.Errorf("load bridge config: %w", err)
	}
	cfg.Serial = cfg.Serial.WithDefaults()
	cfg.Timing = cfg.Timing.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return bridge.ServiceConfig{}, fmt.Errorf("load bridge config: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides config values with non-empty command-line flags.
func applyFlags(cfg *bridge.ServiceConfig, device, driver, listen, adminAddr string) {
	if v := strings.TrimSpace(device); v != "" {
		cfg.Serial.Device = v
	}
	if v := strings.TrimSpace(driver); v != "" {
		cfg.Serial.Driver = v
	}
	if v := strings.TrimSpace(listen); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(adminAddr); v != "" {
		cfg.AdminAddr = v
	}
}
