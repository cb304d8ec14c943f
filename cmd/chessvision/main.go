// Command chessvision prints the vision grid of a chess position, optionally
// writing a PNG overlay, or serves the text protocol on stdin/stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/hailam/chessvision/internal/board"
	"github.com/hailam/chessvision/internal/config"
	"github.com/hailam/chessvision/internal/game"
	"github.com/hailam/chessvision/internal/logging"
	"github.com/hailam/chessvision/internal/overlay"
	"github.com/hailam/chessvision/internal/protocol"
	"github.com/hailam/chessvision/internal/storage"
	"github.com/hailam/chessvision/internal/telemetry"
	"github.com/rs/zerolog"
)

var (
	configDir   = flag.String("config", ".", "directory containing "+config.FileName)
	fenFlag     = flag.String("fen", "", "start position in FEN (default: standard initial position)")
	movesFlag   = flag.String("moves", "", "space separated moves to play first, e.g. \"e2e4 e7e5\"")
	pngFlag     = flag.String("png", "", "write the overlay to this PNG file")
	interactive = flag.Bool("i", false, "read protocol commands from stdin")
	logLevel    = flag.String("loglevel", "", "log level, overrides the config file")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "chessvision: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.Load(*configDir); err != nil {
		return err
	}
	cfg, err := config.Get()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	log := logging.New(level, os.Stderr)

	metrics, err := telemetry.New(telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Interval:    cfg.Telemetry.Interval,
		Output:      os.Stderr,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := metrics.Shutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	moves, err := parseMoves(*movesFlag)
	if err != nil {
		return err
	}

	manager := game.NewManager(game.WithLogger(log), game.WithInstruments(metrics))
	session := manager.New()
	current := session
	if err := session.Load(ctx, *fenFlag, moves); err != nil {
		return err
	}

	style := overlay.DefaultStyle()
	style.SquareSize = cfg.Render.SquareSize
	style.ShowCounts = cfg.Render.ShowCounts
	style.ShowPieces = cfg.Render.ShowPieces

	renders := 0
	if *interactive {
		p := protocol.New(session, os.Stdout,
			protocol.WithStyle(style), protocol.WithLogger(log), protocol.WithManager(manager))
		if err := p.Run(ctx, os.Stdin); err != nil {
			return err
		}
		renders = p.Renders()
		current = p.Session()
	} else {
		g := session.Vision()
		fmt.Print(g.String())

		if *pngFlag != "" {
			if err := writePNG(*pngFlag, session, style); err != nil {
				return err
			}
			renders++
			log.Info().Str("path", *pngFlag).Msg("overlay written")
		}
	}

	recordUsage(log, cfg.Storage, len(current.History()), renders)
	return nil
}

func parseMoves(s string) ([]board.Move, error) {
	var moves []board.Move
	for _, f := range strings.Fields(s) {
		m, err := board.ParseMove(f)
		if err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

func writePNG(path string, s *game.Session, st overlay.Style) error {
	snap := s.Snapshot()
	st.LastMove = s.LastMove()
	img, err := overlay.Render(s.Vision(), &snap, st)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := overlay.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// recordUsage is best effort: a locked or unwritable store only logs.
func recordUsage(log zerolog.Logger, sc config.StorageConfig, moves, renders int) {
	store, err := storage.Open(storage.Options{Dir: sc.Dir, InMemory: sc.InMemory})
	if err != nil {
		log.Warn().Err(err).Msg("usage stats not recorded")
		return
	}
	defer store.Close()

	if err := store.RecordUsage(1, moves, renders); err != nil {
		log.Warn().Err(err).Msg("usage stats not recorded")
	}
}
