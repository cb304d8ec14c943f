package overlay

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/hailam/chessvision/internal/board"
	"github.com/hailam/chessvision/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainStyle() Style {
	st := DefaultStyle()
	st.ShowCounts = false
	st.ShowPieces = false
	return st
}

func snapshot(t *testing.T, placement string) board.Snapshot {
	t.Helper()
	s, err := board.ParsePlacement(placement)
	require.NoError(t, err)
	return s
}

func rgbaAt(t *testing.T, st Style, g vision.Grid, s *board.Snapshot, x, y int) color.RGBA {
	t.Helper()
	img, err := Render(g, s, st)
	require.NoError(t, err)
	return img.RGBAAt(x, y)
}

func TestRenderEmptyBoard(t *testing.T) {
	st := plainStyle()
	var s board.Snapshot
	img, err := Render(vision.Aggregate(&s), &s, st)
	require.NoError(t, err)

	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 640, img.Bounds().Dy())

	// a1 is dark and drawn bottom-left; a8 is light and drawn top-left.
	assert.Equal(t, st.Dark, img.RGBAAt(40, 600))
	assert.Equal(t, st.Light, img.RGBAAt(40, 40))
	assert.Equal(t, st.Light, img.RGBAAt(600, 600), "h1 is light")
}

func TestRenderRingColours(t *testing.T) {
	st := plainStyle()

	t.Run("light control is green", func(t *testing.T) {
		s := snapshot(t, "8/8/8/8/8/8/8/R7")
		g := vision.Aggregate(&s)
		require.Equal(t, 1, g.At(board.A2))

		// a2 spans y 480..560 and is a light square.
		edge := rgbaAt(t, st, g, &s, 40, 481)
		assert.Greater(t, edge.G, edge.R)
		assert.Equal(t, st.Light, rgbaAt(t, st, g, &s, 40, 520), "centre is untouched")
	})

	t.Run("dark control is red", func(t *testing.T) {
		s := snapshot(t, "r7/8/8/8/8/8/8/8")
		g := vision.Aggregate(&s)
		require.Equal(t, -1, g.At(board.A7))

		// a7 spans y 80..160 and is a dark square.
		edge := rgbaAt(t, st, g, &s, 40, 81)
		base := int(st.Dark.R) - int(st.Dark.G)
		assert.Greater(t, int(edge.R)-int(edge.G), base)
	})

	t.Run("rings stack", func(t *testing.T) {
		// Rooks on a1 and b2 both reach b1.
		s := snapshot(t, "8/8/8/8/8/8/1R6/R7")
		g := vision.Aggregate(&s)
		require.Equal(t, 2, g.At(board.B1))

		// b1 spans x 80..160, y 560..640. Inset 1 is under both rings,
		// inset 7 only under the wider one.
		outer := rgbaAt(t, st, g, &s, 120, 561)
		inner := rgbaAt(t, st, g, &s, 120, 567)
		assert.Greater(t, outer.G, inner.G)
		assert.Equal(t, st.Light, rgbaAt(t, st, g, &s, 120, 600))
	})
}

func TestRenderLastMoveHighlight(t *testing.T) {
	st := plainStyle()
	st.LastMove = board.NewMove(board.E2, board.E4)
	var s board.Snapshot

	img, err := Render(vision.Grid{}, &s, st)
	require.NoError(t, err)

	// e2 and e4 are light squares; yellow at 0.4 over (240,217,181).
	for _, p := range [][2]int{{360, 520}, {360, 360}} {
		c := img.RGBAAt(p[0], p[1])
		assert.InDelta(t, 246, int(c.R), 3, "%v", p)
		assert.InDelta(t, 232, int(c.G), 3, "%v", p)
		assert.InDelta(t, 109, int(c.B), 3, "%v", p)
	}
	assert.Equal(t, st.Dark, img.RGBAAt(360, 440), "e3 is not part of the move")

	st.LastMove = board.NoMove
	img, err = Render(vision.Grid{}, &s, st)
	require.NoError(t, err)
	assert.Equal(t, st.Light, img.RGBAAt(360, 520))

	// A zero Move names a1 twice and is ignored.
	st.LastMove = board.Move{}
	img, err = Render(vision.Grid{}, &s, st)
	require.NoError(t, err)
	assert.Equal(t, st.Dark, img.RGBAAt(40, 600))
}

func TestRenderCountColours(t *testing.T) {
	st := DefaultStyle()
	st.ShowPieces = false
	s := snapshot(t, "r7/8/8/8/8/8/8/R7")
	g := vision.Aggregate(&s)
	require.Equal(t, 1, g.At(board.B1))
	require.Equal(t, -1, g.At(board.B8))

	img, err := Render(g, &s, st)
	require.NoError(t, err)

	// Counts sit in the top-right quarter of their square.
	has := func(x0, y0 int, want color.RGBA) bool {
		for x := x0 + 40; x < x0+80; x++ {
			for y := y0; y < y0+40; y++ {
				if img.RGBAAt(x, y) == want {
					return true
				}
			}
		}
		return false
	}
	assert.True(t, has(80, 560, st.PositiveText), "b1 count")
	assert.True(t, has(80, 0, st.NegativeText), "b8 count")
	assert.False(t, has(80, 560, st.NegativeText))
}

func TestRenderScalesWithSquareSize(t *testing.T) {
	st := plainStyle()
	st.SquareSize = 20
	var s board.Snapshot
	img, err := Render(vision.Grid{}, &s, st)
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, st.Dark, img.RGBAAt(10, 150))
}

func TestRenderWithLabels(t *testing.T) {
	s := board.NewPosition().Board
	img, err := Render(vision.Aggregate(&s), &s, DefaultStyle())
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
}

func TestRenderRejectsBadSize(t *testing.T) {
	st := DefaultStyle()
	st.SquareSize = 0
	_, err := Render(vision.Grid{}, nil, st)
	assert.Error(t, err)
}

func TestSVG(t *testing.T) {
	s := snapshot(t, "8/8/8/8/8/8/8/R7")
	g := vision.Aggregate(&s)

	doc := string(SVG(g, &s, DefaultStyle()))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(doc), "<?xml"))
	assert.Contains(t, doc, `viewBox="0 0 640 640"`)
	assert.Contains(t, doc, "fill:#f0d9b5")
	assert.Contains(t, doc, "fill:#b58863")
	assert.Contains(t, doc, "fill:#05ff05;fill-opacity:0.3")
	assert.NotContains(t, doc, "#ff0505")
	assert.Contains(t, doc, ">R</text>")
	assert.Contains(t, doc, ">1</text>")
	assert.Contains(t, doc, "fill:#96ff96")
	assert.NotContains(t, doc, "#ffff00", "no last move, no highlight")

	st := DefaultStyle()
	st.LastMove = board.NewMove(board.A1, board.A2)
	assert.Contains(t, string(SVG(g, &s, st)), "fill:#ffff00;fill-opacity:0.4")

	plain := string(SVG(g, &s, plainStyle()))
	assert.NotContains(t, plain, "<text")
}

func TestWritePNG(t *testing.T) {
	st := plainStyle()
	st.SquareSize = 10
	img, err := Render(vision.Grid{}, nil, st)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}
