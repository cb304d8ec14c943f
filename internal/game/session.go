package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hailam/chessvision/internal/board"
	"github.com/hailam/chessvision/internal/logging"
	"github.com/hailam/chessvision/internal/telemetry"
	"github.com/hailam/chessvision/internal/vision"
	"github.com/rs/zerolog"
)

// Session pairs a Game with the vision grid of its current placement. The
// grid is recomputed from scratch after every change to the game; nothing
// from an earlier placement leaks into a later grid.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	game      *Game
	grid      vision.Grid
	updatedAt time.Time

	log     zerolog.Logger
	metrics *telemetry.Instruments
}

// Option configures a Session or Manager.
type Option func(*options)

type options struct {
	log     zerolog.Logger
	metrics *telemetry.Instruments
}

// WithLogger sets the logger used for session events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithInstruments sets the telemetry instruments.
func WithInstruments(in *telemetry.Instruments) Option {
	return func(o *options) { o.metrics = in }
}

func buildOptions(opts []Option) options {
	o := options{log: logging.Nop(), metrics: telemetry.Noop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewSession wraps g. The initial grid is computed immediately.
func NewSession(id string, g *Game, opts ...Option) *Session {
	o := buildOptions(opts)
	now := time.Now()
	s := &Session{
		ID:        id,
		CreatedAt: now,
		game:      g,
		log:       o.log.With().Str("session", id).Logger(),
		metrics:   o.metrics,
	}
	s.recompute(context.Background())
	return s
}

// recompute must be called with s.mu held.
func (s *Session) recompute(ctx context.Context) {
	start := time.Now()
	snap := s.game.Snapshot()
	s.grid = vision.Aggregate(&snap)
	elapsed := time.Since(start)

	s.updatedAt = time.Now()
	s.metrics.RecordVision(ctx, elapsed)
	s.log.Debug().
		Int("ply", s.game.Ply()).
		Int("pieces", snap.Count()).
		Int("light", s.grid.Light().PopCount()).
		Int("dark", s.grid.Dark().PopCount()).
		Dur("elapsed", elapsed).
		Msg("vision recomputed")
}

// Vision returns the grid for the current placement.
func (s *Session) Vision() vision.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

// Snapshot returns the current placement.
func (s *Session) Snapshot() board.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// Position returns a copy of the current position.
func (s *Session) Position() *board.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Position()
}

// FEN returns the current position in FEN.
func (s *Session) FEN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.FEN()
}

// History returns the applied moves.
func (s *Session) History() []board.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.History()
}

// UpdatedAt returns when the grid was last recomputed.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Apply plays m and recomputes the grid.
func (s *Session) Apply(ctx context.Context, m board.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.ApplyMove(m); err != nil {
		s.log.Warn().Err(err).Str("move", m.String()).Msg("move rejected")
		return err
	}
	s.metrics.RecordMove(ctx)
	s.log.Info().Str("move", m.String()).Int("ply", s.game.Ply()).Msg("move applied")
	s.recompute(ctx)
	return nil
}

// ApplyAll plays moves in order and recomputes the grid once. The batch is
// played on a copy of the game, so if any move fails none of them stick.
func (s *Session) ApplyAll(ctx context.Context, moves []board.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.game.clone()
	for _, m := range moves {
		if err := next.ApplyMove(m); err != nil {
			s.log.Warn().Err(err).Str("move", m.String()).Int("batch", len(moves)).Msg("move rejected")
			return fmt.Errorf("move %s: %w", m, err)
		}
	}
	if len(moves) == 0 {
		return nil
	}

	s.game = next
	for _, m := range moves {
		s.metrics.RecordMove(ctx)
		s.log.Info().Str("move", m.String()).Msg("move applied")
	}
	s.recompute(ctx)
	return nil
}

// LastMove returns the most recent applied move, or NoMove.
func (s *Session) LastMove() board.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.game.moves); n > 0 {
		return s.game.moves[n-1]
	}
	return board.NoMove
}

// Undo takes back the last move and recomputes the grid.
func (s *Session) Undo(ctx context.Context) (board.Move, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.game.Undo()
	if !ok {
		return m, false
	}
	s.log.Info().Str("move", m.String()).Msg("move undone")
	s.recompute(ctx)
	return m, true
}

// Redo replays the last undone move and recomputes the grid.
func (s *Session) Redo(ctx context.Context) (board.Move, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.game.Redo()
	if !ok {
		return m, false
	}
	s.log.Info().Str("move", m.String()).Msg("move redone")
	s.recompute(ctx)
	return m, true
}

// Reset replaces the game with a new one starting at fen. An empty fen
// selects the standard initial position.
func (s *Session) Reset(ctx context.Context, fen string) error {
	return s.Load(ctx, fen, nil)
}

// Load replaces the game with one starting at fen (empty for the standard
// initial position) with moves already played. On error the session keeps
// its current game.
func (s *Session) Load(ctx context.Context, fen string, moves []board.Move) error {
	g := NewGame()
	if fen != "" {
		var err error
		if g, err = NewGameFromFEN(fen); err != nil {
			return err
		}
	}
	for _, m := range moves {
		if err := g.ApplyMove(m); err != nil {
			return fmt.Errorf("move %s: %w", m, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = g
	for range moves {
		s.metrics.RecordMove(ctx)
	}
	s.log.Info().Str("fen", g.FEN()).Int("ply", g.Ply()).Msg("session loaded")
	s.recompute(ctx)
	return nil
}

// Timeline returns the grid of every placement in the game, start position
// first.
func (s *Session) Timeline(ctx context.Context) ([]vision.Grid, error) {
	s.mu.Lock()
	snaps := s.game.Snapshots()
	s.mu.Unlock()

	return vision.AggregateAll(ctx, snaps)
}
