package board

// Pre-computed attack tables for non-sliding pieces
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]
)

var (
	knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		knightAttacks[sq] = leaps(sq, knightOffsets[:])
		kingAttacks[sq] = leaps(sq, kingOffsets[:])
		for _, c := range [2]Color{White, Black} {
			f := c.Forward()
			pawnAttacks[c][sq] = leaps(sq, [][2]int{{-1, f}, {1, f}})
		}
	}
	initMagics() // From magic.go
}

func leaps(sq Square, offsets [][2]int) Bitboard {
	var bb Bitboard
	for _, o := range offsets {
		if to, ok := sq.Offset(o[0], o[1]); ok {
			bb |= SquareBB(to)
		}
	}
	return bb
}

// KnightAttacks returns the knight attack bitboard for a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack bitboard for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the diagonal squares a pawn of color c attacks.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns the bishop attack bitboard for a square with given
// occupancy. The first occupied square on each diagonal is included.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return bishopAttacks(sq, occupied)
}

// RookAttacks returns the rook attack bitboard for a square with given occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return rookAttacks(sq, occupied)
}

// QueenAttacks returns the queen attack bitboard for a square with given occupancy.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// AttackersTo returns the squares of all pieces, of either colour, whose
// lines reach sq. A piece standing on sq is not its own attacker.
func (s *Snapshot) AttackersTo(sq Square) Bitboard {
	occupied := s.Occupied()
	queens := s.Find(WhiteQueen) | s.Find(BlackQueen)
	bishops := s.Find(WhiteBishop) | s.Find(BlackBishop)
	rooks := s.Find(WhiteRook) | s.Find(BlackRook)

	return (PawnAttacks(sq, Black) & s.Find(WhitePawn)) |
		(PawnAttacks(sq, White) & s.Find(BlackPawn)) |
		(KnightAttacks(sq) & (s.Find(WhiteKnight) | s.Find(BlackKnight))) |
		(KingAttacks(sq) & (s.Find(WhiteKing) | s.Find(BlackKing))) |
		(QueenAttacks(sq, occupied) & queens) |
		(BishopAttacks(sq, occupied) & bishops) |
		(RookAttacks(sq, occupied) & rooks)
}
