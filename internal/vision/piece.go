// Package vision computes attack maps: for every square, how many lines of
// each side reach it.
package vision

import (
	"fmt"

	"github.com/hailam/chessvision/internal/board"
)

type direction struct {
	df, dr int
}

var (
	rookDirections = [4]direction{{0, 1}, {0, -1}, {-1, 0}, {1, 0}}

	bishopDirections = [4]direction{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}

	queenDirections = [8]direction{{0, 1}, {0, -1}, {-1, 0}, {1, 0}, {1, 1}, {-1, 1}, {1, -1}, {-1, -1}}

	knightOffsets = [8]direction{
		{2, 1}, {2, -1}, {-2, 1}, {-2, -1},
		{1, 2}, {1, -2}, {-1, 2}, {-1, -2},
	}

	kingOffsets = [8]direction{
		{1, 0}, {1, 1}, {0, 1}, {-1, 1},
		{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	}
)

// PieceVision returns the squares a piece of type pt and color c standing on
// sq attacks or defends on s. Sliding pieces see up to and including the
// first occupied square of each ray, whatever its color. s is only read.
//
// pt must be one of Pawn..King and sq must be on the board; anything else
// is a programming error and panics.
func PieceVision(pt board.PieceType, c board.Color, sq board.Square, s *board.Snapshot) board.Bitboard {
	if !sq.IsValid() {
		panic(fmt.Sprintf("vision: square %d is off the board", sq))
	}
	if pt.IsSlider() {
		return sliderVision(sq, slideDirections(pt), s)
	}

	switch pt {
	case board.Pawn:
		return pawnVision(c, sq)
	case board.Knight:
		return leaperVision(sq, knightOffsets[:])
	case board.King:
		return leaperVision(sq, kingOffsets[:])
	default:
		panic(fmt.Sprintf("vision: unknown piece type %d", pt))
	}
}

// slideDirections returns the rays of a sliding piece. The queen walks the
// rook and bishop rays, each blocked independently.
func slideDirections(pt board.PieceType) []direction {
	switch pt {
	case board.Bishop:
		return bishopDirections[:]
	case board.Rook:
		return rookDirections[:]
	default:
		return queenDirections[:]
	}
}

// Ray walks from sq one step at a time in direction (df, dr) and returns the
// visited squares. The walk stops after the first occupied square or at the
// board edge. sq itself is never included.
func Ray(sq board.Square, df, dr int, s *board.Snapshot) board.Bitboard {
	var bb board.Bitboard
	next, ok := sq.Offset(df, dr)
	for ok {
		bb |= board.SquareBB(next)
		if !s.IsEmpty(next) {
			break
		}
		next, ok = next.Offset(df, dr)
	}
	return bb
}

func pawnVision(c board.Color, sq board.Square) board.Bitboard {
	var bb board.Bitboard
	for _, df := range [2]int{-1, 1} {
		if target, ok := sq.Offset(df, c.Forward()); ok {
			bb |= board.SquareBB(target)
		}
	}
	return bb
}

func leaperVision(sq board.Square, offsets []direction) board.Bitboard {
	var bb board.Bitboard
	for _, d := range offsets {
		if target, ok := sq.Offset(d.df, d.dr); ok {
			bb |= board.SquareBB(target)
		}
	}
	return bb
}

func sliderVision(sq board.Square, dirs []direction, s *board.Snapshot) board.Bitboard {
	var bb board.Bitboard
	for _, d := range dirs {
		bb |= Ray(sq, d.df, d.dr, s)
	}
	return bb
}
