package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/haorenrr/simple-trading/internal/asset"
	"github.com/haorenrr/simple-trading/internal/clearing"
	"github.com/haorenrr/simple-trading/internal/config"
	"github.com/haorenrr/simple-trading/internal/engine"
	"github.com/haorenrr/simple-trading/internal/intake"
	"github.com/haorenrr/simple-trading/internal/sequence"
)

// core holds the wired trading components for the lifetime of the
// process. An order delivery transport would attach to intake.
type core struct {
	intake *intake.Service
	engine *engine.MatchEngine
}

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("bad LOG_LEVEL")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	// Wire the core: ledger, clearing, matching engine, then the order
	// intake that fronts them.
	ledger := asset.NewLedger()
	clr := clearing.New(ledger, cfg.BaseAsset, cfg.QuoteAsset)
	eng := engine.New(clr, cfg.QueueSize)
	c := core{
		intake: intake.New(sequence.NewLocal(0), clr, eng),
		engine: eng,
	}

	c.engine.Init()
	log.Info().
		Str("base", string(cfg.BaseAsset)).
		Str("quote", string(cfg.QuoteAsset)).
		Msg("trading core up")

	<-ctx.Done()
	if err := c.engine.Destroy(); err != nil {
		log.Error().Err(err).Msg("engine shutdown")
	}
	log.Info().Msg("trading core stopped")
}
