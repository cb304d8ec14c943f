// Package overlay draws a vision grid over a chess board, as an SVG
// document or a rasterised image.
package overlay

import (
	"image/color"

	"github.com/hailam/chessvision/internal/board"
)

// baseSquare is the square size the ring insets are specified at.
const baseSquare = 80

// Style controls how an overlay is drawn.
type Style struct {
	SquareSize int
	ShowCounts bool
	ShowPieces bool

	Light    color.RGBA
	Dark     color.RGBA
	Positive color.RGBA
	Negative color.RGBA

	// PositiveText and NegativeText colour the count labels.
	PositiveText color.RGBA
	NegativeText color.RGBA

	// RingOpacity is applied to every ring; overlapping rings darken.
	RingOpacity float64

	// LastMove has its origin and destination tinted with Highlight.
	// NoMove, or any move whose squares coincide, draws nothing.
	LastMove         board.Move
	Highlight        color.RGBA
	HighlightOpacity float64
}

// DefaultStyle returns the standard board colours with green rings for
// light control and red rings for dark control.
func DefaultStyle() Style {
	return Style{
		SquareSize:  baseSquare,
		ShowCounts:  true,
		ShowPieces:  true,
		Light:       color.RGBA{240, 217, 181, 255},
		Dark:        color.RGBA{181, 136, 99, 255},
		Positive:    color.RGBA{5, 255, 5, 255},
		Negative:    color.RGBA{255, 5, 5, 255},
		RingOpacity: 0.3,

		PositiveText: color.RGBA{150, 255, 150, 255},
		NegativeText: color.RGBA{255, 150, 150, 255},

		LastMove:         board.NoMove,
		Highlight:        color.RGBA{255, 255, 0, 255},
		HighlightOpacity: 0.4,
	}
}

// Size returns the width and height of the whole board in pixels.
func (st Style) Size() int {
	return 8 * st.SquareSize
}

// highlighted returns the squares to tint for the last move.
func (st Style) highlighted() []board.Square {
	m := st.LastMove
	if !m.From.IsValid() || !m.To.IsValid() || m.From == m.To {
		return nil
	}
	return []board.Square{m.From, m.To}
}

// ringWidth returns the band width of ring i, scaled to the square size.
func (st Style) ringWidth(i int) int {
	w := (6*i + 4) * st.SquareSize / baseSquare
	if w < 1 {
		w = 1
	}
	return w
}
