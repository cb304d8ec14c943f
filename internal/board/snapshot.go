package board

import "strings"

// Snapshot is an immutable 8x8 placement of pieces, addressed by
// [file][rank]. The zero value is an empty board.
//
// Methods that change placement return a modified copy; a Snapshot held by
// a caller is never mutated behind its back. Snapshots compare with ==.
type Snapshot struct {
	// cells holds Piece+1 so that 0 means an empty square.
	cells [8][8]uint8
}

// NewSnapshot builds a snapshot from a square-to-piece mapping.
// NoPiece entries and invalid squares are ignored.
func NewSnapshot(m map[Square]Piece) Snapshot {
	var s Snapshot
	for sq, p := range m {
		if !sq.IsValid() || p >= NoPiece {
			continue
		}
		s.cells[sq.File()][sq.Rank()] = uint8(p) + 1
	}
	return s
}

// At returns the piece on sq, or NoPiece if the square is empty.
func (s *Snapshot) At(sq Square) Piece {
	return s.AtFileRank(sq.File(), sq.Rank())
}

// AtFileRank returns the piece at the given file and rank indexes.
func (s *Snapshot) AtFileRank(file, rank int) Piece {
	v := s.cells[file][rank]
	if v == 0 {
		return NoPiece
	}
	return Piece(v - 1)
}

// IsEmpty returns true if the square is empty.
func (s *Snapshot) IsEmpty(sq Square) bool {
	return s.cells[sq.File()][sq.Rank()] == 0
}

// Set returns a copy of the snapshot with p placed on sq.
// Passing NoPiece empties the square.
func (s Snapshot) Set(sq Square, p Piece) Snapshot {
	if p >= NoPiece {
		s.cells[sq.File()][sq.Rank()] = 0
	} else {
		s.cells[sq.File()][sq.Rank()] = uint8(p) + 1
	}
	return s
}

// Occupied returns the set of occupied squares.
func (s *Snapshot) Occupied() Bitboard {
	var bb Bitboard
	for file := 0; file < 8; file++ {
		for rank := 0; rank < 8; rank++ {
			if s.cells[file][rank] != 0 {
				bb |= SquareBB(NewSquare(file, rank))
			}
		}
	}
	return bb
}

// Pieces returns the squares occupied by pieces of color c.
func (s *Snapshot) Pieces(c Color) Bitboard {
	var bb Bitboard
	s.Occupied().ForEach(func(sq Square) {
		if s.At(sq).Color() == c {
			bb |= SquareBB(sq)
		}
	})
	return bb
}

// Find returns the squares holding piece p.
func (s *Snapshot) Find(p Piece) Bitboard {
	var bb Bitboard
	s.Occupied().ForEach(func(sq Square) {
		if s.At(sq) == p {
			bb |= SquareBB(sq)
		}
	})
	return bb
}

// Count returns the number of pieces on the board.
func (s *Snapshot) Count() int {
	return s.Occupied().PopCount()
}

// EmptyRows returns a row-major board with every cell set to NoPiece.
func EmptyRows() [8][8]Piece {
	var rows [8][8]Piece
	for row := range rows {
		for file := range rows[row] {
			rows[row][file] = NoPiece
		}
	}
	return rows
}

// FromRows converts the row-major layout used by rules engines into a
// Snapshot. rows[0] is rank 8 and each row runs from file a to file h, so
// the row order is reversed and the axes transposed.
//
// Empty cells must hold NoPiece. The zero Piece is WhitePawn, so a
// zero-filled array is a board of 64 white pawns; start from EmptyRows.
func FromRows(rows [8][8]Piece) Snapshot {
	var s Snapshot
	for row := 0; row < 8; row++ {
		rank := 7 - row
		for file := 0; file < 8; file++ {
			if p := rows[row][file]; p < NoPiece {
				s.cells[file][rank] = uint8(p) + 1
			}
		}
	}
	return s
}

// Rows is the inverse of FromRows.
func (s *Snapshot) Rows() [8][8]Piece {
	var rows [8][8]Piece
	for row := 0; row < 8; row++ {
		for file := 0; file < 8; file++ {
			rows[row][file] = s.AtFileRank(file, 7-row)
		}
	}
	return rows
}

// String returns a diagram of the placement, rank 8 first.
func (s *Snapshot) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		sb.WriteString("  ")
		for file := 0; file < 8; file++ {
			p := s.AtFileRank(file, rank)
			if p == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(p.String())
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n")
	return sb.String()
}
