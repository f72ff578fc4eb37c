package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/knifearena/knifearena/pkg/config"
	"github.com/knifearena/knifearena/pkg/game"
	"github.com/knifearena/knifearena/pkg/relay"

	"github.com/rs/zerolog/log"
)

func serveCommand(configs []string) error {
	cfg, err := config.Process(configs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := game.NewGame(ctx, cfg)
	r := relay.New(g)

	go g.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		errc <- r.Serve(ctx, cfg.Host, cfg.Port)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	select {
	case err := <-errc:
		log.Error().Err(err).Msg("failed to serve")
	case sig := <-sigs:
		log.Info().Msgf("terminating: %v", sig)
	}

	r.Shutdown(ctx)

	return nil
}
