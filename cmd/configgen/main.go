package main

import (
	"flag"

	"github.com/danmuck/lx200bridge/internal/config"
	"github.com/danmuck/lx200bridge/internal/logging"
	"github.com/rs/zerolog/log"
)

const defaultPath = "cmd/bridgectl/config.toml"

func main() {
	output := flag.String("output", defaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", defaultPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	logging.ConfigureRuntime()

	if *validate {
		if err := config.ValidateFile(*input); err != nil {
			log.Fatal().Err(err).Msg("configgen validation failed")
		}
		log.Info().Str("path", *input).Msg("configgen validated bridge config")
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal().Err(err).Msg("configgen write failed")
	}
	log.Info().Str("path", *output).Msg("configgen wrote bridge config template")
}
