package vision

import (
	"fmt"
	"strings"

	"github.com/hailam/chessvision/internal/board"
)

// Grid holds one vision counter per square, addressed by [file][rank].
// Positive values mean net White control, negative net Black control.
// Grids are plain values; every aggregation returns a new one.
type Grid [8][8]int

// Cell is one square of a grid.
type Cell struct {
	Square board.Square
	Vision int
}

// At returns the counter for sq.
func (g *Grid) At(sq board.Square) int {
	return g[sq.File()][sq.Rank()]
}

// Cells returns every square with its counter, a1 through h8.
func (g *Grid) Cells() []Cell {
	cells := make([]Cell, 0, 64)
	for sq := board.A1; sq <= board.H8; sq++ {
		cells = append(cells, Cell{Square: sq, Vision: g.At(sq)})
	}
	return cells
}

// Light returns the squares White controls on balance.
func (g *Grid) Light() board.Bitboard {
	return g.filter(func(v int) bool { return v > 0 })
}

// Dark returns the squares Black controls on balance.
func (g *Grid) Dark() board.Bitboard {
	return g.filter(func(v int) bool { return v < 0 })
}

func (g *Grid) filter(keep func(int) bool) board.Bitboard {
	var bb board.Bitboard
	for sq := board.A1; sq <= board.H8; sq++ {
		if keep(g.At(sq)) {
			bb |= board.SquareBB(sq)
		}
	}
	return bb
}

// Sum returns the total of all counters.
func (g *Grid) Sum() int {
	total := 0
	for file := range g {
		for rank := range g[file] {
			total += g[file][rank]
		}
	}
	return total
}

// String renders the grid as a table, rank 8 first.
func (g *Grid) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d ", rank+1)
		for file := 0; file < 8; file++ {
			fmt.Fprintf(&sb, "%3d", g[file][rank])
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("    a  b  c  d  e  f  g  h\n")
	return sb.String()
}
