// ChessVision - a vision overlay viewer built with Ebitengine
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hailam/chessvision/internal/board"
	"github.com/hailam/chessvision/internal/config"
	"github.com/hailam/chessvision/internal/game"
	"github.com/hailam/chessvision/internal/logging"
	"github.com/hailam/chessvision/internal/overlay"
	"github.com/hailam/chessvision/internal/storage"
	"github.com/hailam/chessvision/internal/telemetry"
	"github.com/hailam/chessvision/internal/ui"
)

var (
	configDir = flag.String("config", ".", "directory containing "+config.FileName)
	fenFlag   = flag.String("fen", "", "start position in FEN")
	movesFlag = flag.String("moves", "", "space separated moves, replayable with the arrow keys")
)

func main() {
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	metrics, err := telemetry.New(telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Interval:    cfg.Telemetry.Interval,
		Output:      os.Stderr,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("telemetry setup failed")
	}

	var moves []board.Move
	for _, f := range strings.Fields(*movesFlag) {
		m, err := board.ParseMove(f)
		if err != nil {
			logger.Fatal().Err(err).Msg("bad -moves")
		}
		moves = append(moves, m)
	}

	session := game.NewSession("viewer", game.NewGame(),
		game.WithLogger(logger), game.WithInstruments(metrics))
	if err := session.Load(context.Background(), *fenFlag, moves); err != nil {
		logger.Fatal().Err(err).Msg("bad start position")
	}
	// Step back to the start so the moves can be replayed with →.
	for range moves {
		session.Undo(context.Background())
	}

	store, err := storage.Open(storage.Options{Dir: cfg.Storage.Dir, InMemory: cfg.Storage.InMemory})
	if err != nil {
		logger.Warn().Err(err).Msg("preferences unavailable")
		store = nil
	}

	style := overlay.DefaultStyle()
	style.SquareSize = cfg.Render.SquareSize
	style.ShowCounts = cfg.Render.ShowCounts
	style.ShowPieces = cfg.Render.ShowPieces

	viewer := ui.NewViewer(ui.Config{
		Session: session,
		Store:   store,
		Style:   style,
		Logger:  logger,
	})

	w, h := viewer.WindowSize()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("ChessVision")

	runErr := ebiten.RunGame(viewer)
	viewer.Close()
	if err := metrics.Shutdown(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("telemetry shutdown failed")
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing preferences")
		}
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}
