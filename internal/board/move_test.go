package board

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseMove(t *testing.T, s string) Move {
	t.Helper()
	m, err := ParseMove(s)
	require.NoError(t, err)
	return m
}

func playMoves(t *testing.T, pos *Position, moves ...string) {
	t.Helper()
	for _, s := range moves {
		require.NoError(t, pos.MakeMove(mustParseMove(t, s)), s)
	}
}

func TestParseMove(t *testing.T) {
	m := mustParseMove(t, "e2e4")
	assert.Equal(t, E2, m.From)
	assert.Equal(t, E4, m.To)
	assert.Equal(t, NoPieceType, m.Promotion)
	assert.Equal(t, "e2e4", m.String())

	m = mustParseMove(t, "a7a8n")
	assert.Equal(t, Knight, m.Promotion)
	assert.Equal(t, "a7a8n", m.String())

	for _, s := range []string{"", "e2", "e2e9", "e2e4k", "e2e4qq", "z1a1"} {
		_, err := ParseMove(s)
		assert.True(t, errors.Is(err, ErrInvalidMove), "input %q", s)
	}

	assert.Equal(t, "0000", NoMove.String())
}

func TestMakeMoveOpening(t *testing.T) {
	pos := NewPosition()
	playMoves(t, pos, "e2e4", "c7c5", "g1f3")

	assert.Equal(t, "rnbqkbnr/pp1ppppp/8/2p5/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2", pos.ToFEN())
}

func TestMakeMoveErrors(t *testing.T) {
	pos := NewPosition()

	err := pos.MakeMove(mustParseMove(t, "e4e5"))
	assert.ErrorIs(t, err, ErrEmptySquare)

	err = pos.MakeMove(mustParseMove(t, "e2e2"))
	assert.ErrorIs(t, err, ErrSameSquare)

	err = pos.MakeMove(mustParseMove(t, "e7e5"))
	assert.ErrorIs(t, err, ErrWrongSide)

	assert.Equal(t, StartFEN, pos.ToFEN(), "failed moves leave the position untouched")
}

func TestMakeMoveCastling(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	require.NoError(t, err)

	playMoves(t, pos, "e1g1", "e8c8")

	assert.Equal(t, WhiteKing, pos.Board.At(G1))
	assert.Equal(t, WhiteRook, pos.Board.At(F1))
	assert.Equal(t, NoPiece, pos.Board.At(H1))
	assert.Equal(t, BlackKing, pos.Board.At(C8))
	assert.Equal(t, BlackRook, pos.Board.At(D8))
	assert.Equal(t, NoPiece, pos.Board.At(A8))
	assert.Equal(t, NoCastling, pos.CastlingRights)
}

func TestMakeMoveKingStepOffHomeSquare(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/1K5R w - - 0 1")
	require.NoError(t, err)

	playMoves(t, pos, "b1d1")

	assert.Equal(t, WhiteKing, pos.Board.At(D1))
	assert.Equal(t, WhiteRook, pos.Board.At(H1))
	assert.Equal(t, NoPiece, pos.Board.At(F1))
	assert.Equal(t, "3K3R", strings.Split(pos.Board.Placement(), "/")[7])

	pos, err = ParseFEN("r2k4/8/8/8/8/8/8/4K3 b - - 0 1")
	require.NoError(t, err)

	playMoves(t, pos, "d8b8")

	assert.Equal(t, BlackRook, pos.Board.At(A8))
	assert.Equal(t, BlackKing, pos.Board.At(B8))
	assert.Equal(t, NoPiece, pos.Board.At(D8))
}

func TestMakeMoveRookLosesCastling(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	require.NoError(t, err)

	playMoves(t, pos, "a1a8")
	assert.Equal(t, WhiteKingSideCastle|BlackKingSideCastle, pos.CastlingRights)
}

func TestMakeMoveEnPassant(t *testing.T) {
	pos := NewPosition()
	playMoves(t, pos, "e2e4", "a7a6", "e4e5", "d7d5")

	assert.Equal(t, D6, pos.EnPassant)

	playMoves(t, pos, "e5d6")
	assert.Equal(t, WhitePawn, pos.Board.At(D6))
	assert.Equal(t, NoPiece, pos.Board.At(D5), "passed pawn is removed")
	assert.Equal(t, NoSquare, pos.EnPassant)
	assert.Equal(t, 0, pos.HalfMoveClock)
}

func TestMakeMovePromotion(t *testing.T) {
	pos, err := ParseFEN("8/P6k/8/8/8/8/p6K/8 w - - 0 1")
	require.NoError(t, err)

	playMoves(t, pos, "a7a8")
	assert.Equal(t, WhiteQueen, pos.Board.At(A8), "promotion defaults to a queen")

	playMoves(t, pos, "a2a1n")
	assert.Equal(t, BlackKnight, pos.Board.At(A1))
}
