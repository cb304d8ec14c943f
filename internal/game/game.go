// Package game tracks a sequence of placements for the vision engine: the
// rules-engine side of the boundary.
package game

import (
	"github.com/hailam/chessvision/internal/board"
)

// Rules is what the vision side needs from a rules engine. Only Snapshot is
// read when computing vision; ApplyMove and History let callers drive the
// game without knowing which engine sits behind it.
type Rules interface {
	Snapshot() board.Snapshot
	ApplyMove(m board.Move) error
	History() []board.Move
}

// Game is a placement tracker implementing Rules. It applies the mechanics
// of a move (captures, castling rook, en passant, promotion) but does not
// check legality. It is not safe for concurrent use; Session adds locking.
type Game struct {
	// positions[i] is the position after i moves; positions[0] is the start.
	positions []*board.Position
	moves     []board.Move
	redo      []board.Move
}

var _ Rules = (*Game)(nil)

// NewGame starts a game from the standard initial position.
func NewGame() *Game {
	return newGame(board.NewPosition())
}

// NewGameFromFEN starts a game from an arbitrary position.
func NewGameFromFEN(fen string) (*Game, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return newGame(pos), nil
}

func newGame(pos *board.Position) *Game {
	return &Game{positions: []*board.Position{pos}}
}

// Position returns a copy of the current position.
func (g *Game) Position() *board.Position {
	return g.current().Copy()
}

func (g *Game) current() *board.Position {
	return g.positions[len(g.positions)-1]
}

// Snapshot returns the current placement.
func (g *Game) Snapshot() board.Snapshot {
	return g.current().Board
}

// FEN returns the current position in FEN.
func (g *Game) FEN() string {
	return g.current().ToFEN()
}

// ApplyMove plays m on the current position. A successful move clears the
// redo stack; a failed one leaves the game unchanged.
func (g *Game) ApplyMove(m board.Move) error {
	if err := g.push(m); err != nil {
		return err
	}
	g.redo = g.redo[:0]
	return nil
}

func (g *Game) push(m board.Move) error {
	next := g.current().Copy()
	if err := next.MakeMove(m); err != nil {
		return err
	}
	g.positions = append(g.positions, next)
	g.moves = append(g.moves, m)
	return nil
}

// clone returns a game with the same history. Positions are never mutated
// once pushed, so they are shared.
func (g *Game) clone() *Game {
	return &Game{
		positions: append([]*board.Position(nil), g.positions...),
		moves:     append([]board.Move(nil), g.moves...),
		redo:      append([]board.Move(nil), g.redo...),
	}
}

// Undo takes back the last move. It reports false when there is nothing to undo.
func (g *Game) Undo() (board.Move, bool) {
	if len(g.moves) == 0 {
		return board.NoMove, false
	}
	last := g.moves[len(g.moves)-1]
	g.moves = g.moves[:len(g.moves)-1]
	g.positions = g.positions[:len(g.positions)-1]
	g.redo = append(g.redo, last)
	return last, true
}

// Redo replays the most recently undone move.
func (g *Game) Redo() (board.Move, bool) {
	if len(g.redo) == 0 {
		return board.NoMove, false
	}
	m := g.redo[len(g.redo)-1]
	if err := g.push(m); err != nil {
		// Replaying a move that was already applied from the same
		// position cannot fail.
		return board.NoMove, false
	}
	g.redo = g.redo[:len(g.redo)-1]
	return m, true
}

// History returns the applied moves, oldest first.
func (g *Game) History() []board.Move {
	out := make([]board.Move, len(g.moves))
	copy(out, g.moves)
	return out
}

// Snapshots returns the placement before the first move and after every
// applied move.
func (g *Game) Snapshots() []board.Snapshot {
	out := make([]board.Snapshot, len(g.positions))
	for i, pos := range g.positions {
		out[i] = pos.Board
	}
	return out
}

// Ply returns the number of applied moves.
func (g *Game) Ply() int {
	return len(g.moves)
}
