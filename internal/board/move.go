package board

import (
	"errors"
	"fmt"
)

// Move errors.
var (
	ErrInvalidMove = errors.New("invalid move")
	ErrEmptySquare = errors.New("no piece on origin square")
	ErrSameSquare  = errors.New("origin and destination are the same square")
	ErrWrongSide   = errors.New("piece does not belong to the side to move")
)

// Move is a piece transfer in coordinate notation. Promotion is
// NoPieceType unless the move names one explicitly.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoSquare, To: NoSquare, Promotion: NoPieceType}

// NewMove creates a move without an explicit promotion.
func NewMove(from, to Square) Move {
	return Move{From: from, To: to, Promotion: NoPieceType}
}

// String returns the move in coordinate notation (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if !m.From.IsValid() || !m.To.IsValid() {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.Promotion < NoPieceType {
		s += string(m.Promotion.Char())
	}
	return s
}

// ParseMove parses coordinate notation: four characters for the squares and
// an optional promotion letter (n, b, r or q).
func ParseMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %q: %w", ErrInvalidMove, s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %q: %w", ErrInvalidMove, s, err)
	}

	m := NewMove(from, to)
	if len(s) == 5 {
		m.Promotion = PieceTypeFromChar(s[4])
		if m.Promotion == NoPieceType {
			return NoMove, fmt.Errorf("%w: %q: promotion piece %q", ErrInvalidMove, s, s[4])
		}
	}
	return m, nil
}

// MakeMove applies m to the position. Only the mechanics needed to keep the
// placement right are performed; legality is the rules engine's concern:
//   - the destination occupant is replaced (capture);
//   - a king stepping two files from its home square drags the corner
//     rook across (castling);
//   - a pawn moving diagonally onto the en passant target removes the
//     passed pawn;
//   - a pawn reaching the last rank becomes m.Promotion, or a queen.
//
// Side to move, castling rights, en passant target and clocks are updated.
func (p *Position) MakeMove(m Move) error {
	if !m.From.IsValid() || !m.To.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidMove, m)
	}
	if m.From == m.To {
		return fmt.Errorf("%w: %s", ErrSameSquare, m)
	}

	piece := p.Board.At(m.From)
	if piece == NoPiece {
		return fmt.Errorf("%w: %s", ErrEmptySquare, m)
	}

	us := piece.Color()
	if us != p.SideToMove {
		return fmt.Errorf("%w: %s is %s", ErrWrongSide, m, us)
	}

	pt := piece.Type()
	from, to := m.From, m.To
	captured := p.Board.At(to)
	b := p.Board

	if pt == Pawn && to == p.EnPassant && from.File() != to.File() && captured == NoPiece {
		capSq := NewSquare(to.File(), from.Rank())
		captured = b.At(capSq)
		b = b.Set(capSq, NoPiece)
	}

	b = b.Set(from, NoPiece).Set(to, piece)

	if pt == Pawn && to.Rank() == lastRank(us) {
		promo := m.Promotion
		if promo == NoPieceType || promo == Pawn || promo == King {
			promo = Queen
		}
		b = b.Set(to, NewPiece(promo, us))
	}

	if pt == King && from == kingHome(us) && abs(to.File()-from.File()) == 2 && to.Rank() == from.Rank() {
		rookFrom, rookTo := NewSquare(7, from.Rank()), NewSquare(5, from.Rank())
		if to.File() < from.File() {
			rookFrom, rookTo = NewSquare(0, from.Rank()), NewSquare(3, from.Rank())
		}
		if rook := b.At(rookFrom); rook == NewPiece(Rook, us) {
			b = b.Set(rookFrom, NoPiece).Set(rookTo, rook)
		}
	}

	p.Board = b

	if pt == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}

	// Rook moves or captures affect castling
	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}

	p.EnPassant = NoSquare
	if pt == Pawn && from.File() == to.File() && abs(to.Rank()-from.Rank()) == 2 {
		p.EnPassant = NewSquare(from.File(), (from.Rank()+to.Rank())/2)
	}

	if pt == Pawn || captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = us.Other()
	return nil
}

// kingHome is the e-file square of c's back rank.
func kingHome(c Color) Square {
	return NewSquare(4, lastRank(c.Other()))
}

func lastRank(c Color) int {
	if c == White {
		return 7
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
