package game

import "github.com/hailam/chessvision/internal/board"

// Picker turns square clicks into moves: first a piece of the side to
// move, then its target. The zero value holds nothing; use NewPicker.
type Picker struct {
	from board.Square
}

// NewPicker returns a picker with no piece held.
func NewPicker() *Picker {
	return &Picker{from: board.NoSquare}
}

// Selected returns the square of the held piece.
func (pk *Picker) Selected() (board.Square, bool) {
	return pk.from, pk.from.IsValid()
}

// Clear drops the held piece.
func (pk *Picker) Clear() {
	pk.from = board.NoSquare
}

// Pick handles a click on sq in pos. It returns a move once a held piece is
// given a target. Clicking the held piece again drops it; clicking another
// piece of the side to move holds that one instead.
func (pk *Picker) Pick(pos *board.Position, sq board.Square) (board.Move, bool) {
	if !sq.IsValid() {
		return board.NoMove, false
	}
	own := func(s board.Square) bool {
		p := pos.Board.At(s)
		return p != board.NoPiece && p.Color() == pos.SideToMove
	}

	from, held := pk.Selected()
	switch {
	case !held:
		if own(sq) {
			pk.from = sq
		}
		return board.NoMove, false
	case sq == from:
		pk.Clear()
		return board.NoMove, false
	case own(sq):
		pk.from = sq
		return board.NoMove, false
	}

	pk.Clear()
	return board.NewMove(from, sq), true
}
