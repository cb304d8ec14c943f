package game

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/hailam/chessvision/internal/board"
	"github.com/hailam/chessvision/internal/logging"
	"github.com/hailam/chessvision/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func move(t *testing.T, s string) board.Move {
	t.Helper()
	m, err := board.ParseMove(s)
	require.NoError(t, err)
	return m
}

func TestGameApplyUndoRedo(t *testing.T) {
	g := NewGame()
	start := g.Snapshot()

	require.NoError(t, g.ApplyMove(move(t, "e2e4")))
	require.NoError(t, g.ApplyMove(move(t, "e7e5")))
	assert.Equal(t, 2, g.Ply())
	assert.Equal(t, []board.Move{move(t, "e2e4"), move(t, "e7e5")}, g.History())

	m, ok := g.Undo()
	require.True(t, ok)
	assert.Equal(t, "e7e5", m.String())
	assert.Equal(t, board.Black, g.Position().SideToMove)

	m, ok = g.Redo()
	require.True(t, ok)
	assert.Equal(t, "e7e5", m.String())
	assert.Equal(t, 2, g.Ply())

	_, ok = g.Redo()
	assert.False(t, ok, "redo stack is empty")

	g.Undo()
	g.Undo()
	_, ok = g.Undo()
	assert.False(t, ok)
	assert.Equal(t, start, g.Snapshot())
}

func TestGameNewMoveClearsRedo(t *testing.T) {
	g := NewGame()
	require.NoError(t, g.ApplyMove(move(t, "e2e4")))
	g.Undo()
	require.NoError(t, g.ApplyMove(move(t, "d2d4")))

	_, ok := g.Redo()
	assert.False(t, ok)
	assert.Equal(t, "d2d4", g.History()[0].String())
}

func TestGameFailedMoveKeepsState(t *testing.T) {
	g := NewGame()
	require.NoError(t, g.ApplyMove(move(t, "e2e4")))
	g.Undo()

	err := g.ApplyMove(move(t, "e4e5"))
	assert.ErrorIs(t, err, board.ErrEmptySquare)

	m, ok := g.Redo()
	assert.True(t, ok, "a rejected move must not clear the redo stack")
	assert.Equal(t, "e2e4", m.String())
}

func TestGameHistoryIsCopy(t *testing.T) {
	g := NewGame()
	require.NoError(t, g.ApplyMove(move(t, "e2e4")))

	h := g.History()
	h[0] = board.NoMove
	assert.Equal(t, "e2e4", g.History()[0].String())
}

func TestGameSnapshots(t *testing.T) {
	g := NewGame()
	require.NoError(t, g.ApplyMove(move(t, "g1f3")))
	require.NoError(t, g.ApplyMove(move(t, "g8f6")))

	snaps := g.Snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, board.WhiteKnight, snaps[0].At(board.G1))
	assert.Equal(t, board.WhiteKnight, snaps[1].At(board.F3))
	assert.Equal(t, board.BlackKnight, snaps[2].At(board.F6))
	assert.Equal(t, g.Snapshot(), snaps[2])
}

func TestNewGameFromFEN(t *testing.T) {
	_, err := NewGameFromFEN("not a fen")
	assert.ErrorIs(t, err, board.ErrInvalidFEN)

	g, err := NewGameFromFEN("8/8/8/8/8/8/8/R3K3 w - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, 2, func() int { s := g.Snapshot(); return s.Count() }())
}

// Computing vision for S, then S' one move later, then S again after an
// undo must reproduce the first grid exactly.
func TestSessionUndoRestoresVision(t *testing.T) {
	ctx := context.Background()
	s := NewSession("test", NewGame())

	require.NoError(t, s.Apply(ctx, move(t, "e2e4")))
	before := s.Vision()
	beforeSnap := s.Snapshot()

	require.NoError(t, s.Apply(ctx, move(t, "d7d5")))
	after := s.Vision()
	assert.NotEqual(t, before, after)

	_, ok := s.Undo(ctx)
	require.True(t, ok)
	assert.Equal(t, before, s.Vision())
	assert.Equal(t, vision.Aggregate(&beforeSnap), s.Vision())

	_, ok = s.Redo(ctx)
	require.True(t, ok)
	assert.Equal(t, after, s.Vision())
}

func TestSessionVisionMatchesSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewSession("test", NewGame())

	for _, m := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"} {
		require.NoError(t, s.Apply(ctx, move(t, m)))
		snap := s.Snapshot()
		assert.Equal(t, vision.Aggregate(&snap), s.Vision(), "after %s", m)
	}
}

func TestSessionRejectedMoveLogs(t *testing.T) {
	var buf bytes.Buffer
	s := NewSession("logged", NewGame(), WithLogger(logging.New("debug", &buf)))

	err := s.Apply(context.Background(), move(t, "e2e2"))
	assert.ErrorIs(t, err, board.ErrSameSquare)

	out := buf.String()
	assert.Contains(t, out, "vision recomputed")
	assert.Contains(t, out, "move rejected")
	assert.Contains(t, out, "session=logged")
}

func TestSessionApplyAll(t *testing.T) {
	ctx := context.Background()
	s := NewSession("test", NewGame())
	require.NoError(t, s.Apply(ctx, move(t, "d2d4")))
	_, ok := s.Undo(ctx)
	require.True(t, ok)
	before := s.Vision()

	err := s.ApplyAll(ctx, []board.Move{move(t, "e2e4"), move(t, "e7e5"), move(t, "e2e4")})
	assert.ErrorIs(t, err, board.ErrEmptySquare)
	assert.Contains(t, err.Error(), "move e2e4")
	assert.Empty(t, s.History(), "no move of a failed batch is kept")
	assert.Equal(t, board.StartFEN, s.FEN())
	assert.Equal(t, before, s.Vision())

	m, ok := s.Redo(ctx)
	require.True(t, ok, "a failed batch keeps the redo stack")
	assert.Equal(t, "d2d4", m.String())
	s.Undo(ctx)

	require.NoError(t, s.ApplyAll(ctx, []board.Move{move(t, "e2e4"), move(t, "e7e5")}))
	assert.Len(t, s.History(), 2)
	snap := s.Snapshot()
	assert.Equal(t, vision.Aggregate(&snap), s.Vision())
	_, ok = s.Redo(ctx)
	assert.False(t, ok, "a successful batch clears the redo stack")

	require.NoError(t, s.ApplyAll(ctx, nil))
	assert.Len(t, s.History(), 2)
}

func TestSessionLastMove(t *testing.T) {
	ctx := context.Background()
	s := NewSession("test", NewGame())
	assert.Equal(t, board.NoMove, s.LastMove())

	require.NoError(t, s.Apply(ctx, move(t, "g1f3")))
	assert.Equal(t, move(t, "g1f3"), s.LastMove())

	s.Undo(ctx)
	assert.Equal(t, board.NoMove, s.LastMove())
}

func TestSessionReset(t *testing.T) {
	ctx := context.Background()
	s := NewSession("test", NewGame())
	require.NoError(t, s.Apply(ctx, move(t, "e2e4")))

	require.NoError(t, s.Reset(ctx, "8/8/8/8/8/8/8/R7 w - - 0 1"))
	assert.Empty(t, s.History())

	g := s.Vision()
	assert.Equal(t, 1, g.At(board.A8))
	assert.Equal(t, 0, g.At(board.B2))

	err := s.Reset(ctx, "garbage")
	assert.ErrorIs(t, err, board.ErrInvalidFEN)
	assert.Equal(t, "8/8/8/8/8/8/8/R7 w - - 0 1", s.FEN(), "failed reset keeps the game")

	require.NoError(t, s.Reset(ctx, ""))
	assert.Equal(t, board.StartFEN, s.FEN())
}

func TestSessionTimeline(t *testing.T) {
	ctx := context.Background()
	s := NewSession("test", NewGame())
	require.NoError(t, s.Apply(ctx, move(t, "e2e4")))
	require.NoError(t, s.Apply(ctx, move(t, "e7e5")))

	grids, err := s.Timeline(ctx)
	require.NoError(t, err)
	require.Len(t, grids, 3)

	start := board.NewPosition().Board
	assert.Equal(t, vision.Aggregate(&start), grids[0])
	assert.Equal(t, s.Vision(), grids[2])
}

func TestSessionConcurrentReads(t *testing.T) {
	ctx := context.Background()
	s := NewSession("test", NewGame())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				g := s.Vision()
				_ = g.Sum()
			}
		}()
	}
	require.NoError(t, s.Apply(ctx, move(t, "e2e4")))
	wg.Wait()
}

func TestManager(t *testing.T) {
	m := NewManager()

	a := m.New()
	b, err := m.NewFromFEN("8/8/8/8/8/8/8/R7 w - - 0 1")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	got, err := m.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	assert.Len(t, m.List(), 2)

	require.NoError(t, m.Delete(a.ID))
	_, err = m.Get(a.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(a.ID), ErrSessionNotFound)

	_, err = m.NewFromFEN("bad")
	assert.ErrorIs(t, err, board.ErrInvalidFEN)
	assert.Len(t, m.List(), 1)
}

func TestSessionLoad(t *testing.T) {
	ctx := context.Background()
	s := NewSession("test", NewGame())

	require.NoError(t, s.Load(ctx, "", []board.Move{move(t, "e2e4"), move(t, "c7c5")}))
	assert.Len(t, s.History(), 2)
	snap := s.Snapshot()
	assert.Equal(t, vision.Aggregate(&snap), s.Vision())

	err := s.Load(ctx, "", []board.Move{move(t, "e2e4"), move(t, "e2e4")})
	assert.ErrorIs(t, err, board.ErrEmptySquare)
	assert.Len(t, s.History(), 2, "failed load keeps the game")
	assert.Equal(t, board.BlackPawn, func() board.Piece { s := s.Snapshot(); return s.At(board.C5) }())
}

func TestPicker(t *testing.T) {
	pos := board.NewPosition()
	pk := NewPicker()

	_, held := pk.Selected()
	assert.False(t, held)

	_, ok := pk.Pick(pos, board.E7)
	assert.False(t, ok)
	_, held = pk.Selected()
	assert.False(t, held, "black pieces cannot be picked up on white's turn")

	_, ok = pk.Pick(pos, board.E4)
	assert.False(t, ok, "empty squares are ignored until a piece is held")

	_, ok = pk.Pick(pos, board.E2)
	assert.False(t, ok)
	sq, held := pk.Selected()
	assert.True(t, held)
	assert.Equal(t, board.E2, sq)

	_, ok = pk.Pick(pos, board.D2)
	assert.False(t, ok)
	sq, _ = pk.Selected()
	assert.Equal(t, board.D2, sq, "another own piece is held instead")

	m, ok := pk.Pick(pos, board.D4)
	require.True(t, ok)
	assert.Equal(t, board.NewMove(board.D2, board.D4), m)
	_, held = pk.Selected()
	assert.False(t, held)

	pk.Pick(pos, board.G1)
	_, ok = pk.Pick(pos, board.G1)
	assert.False(t, ok)
	_, held = pk.Selected()
	assert.False(t, held, "clicking the held piece drops it")

	_, ok = pk.Pick(pos, board.NoSquare)
	assert.False(t, ok)
}

func TestPickerPromotesToQueen(t *testing.T) {
	ctx := context.Background()
	s := NewSession("test", NewGame())
	require.NoError(t, s.Load(ctx, "8/4P3/8/8/8/8/8/k6K w - - 0 1", nil))

	pk := NewPicker()
	pk.Pick(s.Position(), board.E7)
	m, ok := pk.Pick(s.Position(), board.E8)
	require.True(t, ok)
	require.NoError(t, s.Apply(ctx, m))

	snap := s.Snapshot()
	assert.Equal(t, board.WhiteQueen, snap.At(board.E8))
	assert.Equal(t, m, s.LastMove())
}
