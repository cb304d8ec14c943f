package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"

	svg "github.com/ajstarks/svgo"
	"github.com/hailam/chessvision/internal/board"
	"github.com/hailam/chessvision/internal/vision"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// SVG returns the overlay as a standalone SVG document. Rank 8 is at the
// top. Each square with a non-zero value gets one ring per attacking line,
// green when light leads and red when dark leads. The squares of
// st.LastMove are tinted under the rings.
func SVG(g vision.Grid, s *board.Snapshot, st Style) []byte {
	var buf bytes.Buffer
	writeSVG(&buf, g, s, st, true)
	return buf.Bytes()
}

// writeSVG writes the board and rings. Text is only emitted when withText
// is set; the rasteriser does not handle text elements.
func writeSVG(w io.Writer, g vision.Grid, s *board.Snapshot, st Style, withText bool) {
	size := st.Size()
	canvas := svg.New(w)
	canvas.Startview(size, size, 0, 0, size, size)

	for _, c := range g.Cells() {
		x, y := origin(c.Square, st)
		fill := st.Dark
		if isLight(c.Square) {
			fill = st.Light
		}
		canvas.Rect(x, y, st.SquareSize, st.SquareSize, "fill:"+hex(fill))
	}

	tint := fmt.Sprintf("fill:%s;fill-opacity:%s", hex(st.Highlight), opacity(st.HighlightOpacity))
	for _, sq := range st.highlighted() {
		x, y := origin(sq, st)
		canvas.Rect(x, y, st.SquareSize, st.SquareSize, tint)
	}

	for _, c := range g.Cells() {
		if c.Vision == 0 {
			continue
		}
		ring := st.Positive
		if c.Vision < 0 {
			ring = st.Negative
		}
		style := fmt.Sprintf("fill:%s;fill-opacity:%s", hex(ring), opacity(st.RingOpacity))
		x, y := origin(c.Square, st)
		for i := 0; i < abs(c.Vision); i++ {
			band(canvas, x, y, st.SquareSize, st.ringWidth(i), style)
		}
	}

	if withText {
		fontSize := st.SquareSize / 4
		for _, c := range g.Cells() {
			x, y := origin(c.Square, st)
			if st.ShowPieces && s != nil {
				if p := s.At(c.Square); p != board.NoPiece {
					canvas.Text(x+st.SquareSize/2, y+st.SquareSize/2+fontSize/2, p.String(),
						fmt.Sprintf("font-family:sans-serif;font-size:%dpx;text-anchor:middle;fill:#000000", fontSize*2))
				}
			}
			if st.ShowCounts && c.Vision != 0 {
				col := st.PositiveText
				if c.Vision < 0 {
					col = st.NegativeText
				}
				canvas.Text(x+st.SquareSize-fontSize/2, y+fontSize+2, strconv.Itoa(abs(c.Vision)),
					fmt.Sprintf("font-family:sans-serif;font-size:%dpx;text-anchor:end;fill:%s", fontSize, hex(col)))
			}
		}
	}

	canvas.End()
}

// band draws a frame of width w along the inside edge of a square. Frames
// wider than half the square fill it.
func band(canvas *svg.SVG, x, y, sq, w int, style string) {
	if w*2 >= sq {
		canvas.Rect(x, y, sq, sq, style)
		return
	}
	canvas.Rect(x, y, sq, w, style)
	canvas.Rect(x, y+sq-w, sq, w, style)
	canvas.Rect(x, y+w, w, sq-2*w, style)
	canvas.Rect(x+sq-w, y+w, w, sq-2*w, style)
}

// Render rasterises the overlay and draws counts and piece letters on top.
func Render(g vision.Grid, s *board.Snapshot, st Style) (*image.RGBA, error) {
	if st.SquareSize <= 0 {
		return nil, fmt.Errorf("overlay: invalid square size %d", st.SquareSize)
	}

	var buf bytes.Buffer
	writeSVG(&buf, g, s, st, false)

	icon, err := oksvg.ReadIconStream(&buf)
	if err != nil {
		return nil, fmt.Errorf("overlay: parse svg: %w", err)
	}

	size := st.Size()
	icon.SetTarget(0, 0, float64(size), float64(size))
	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	if st.ShowPieces || st.ShowCounts {
		if err := drawLabels(rgba, g, s, st); err != nil {
			return nil, err
		}
	}
	return rgba, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("overlay: encode png: %w", err)
	}
	return nil
}

// origin returns the top-left pixel of sq.
func origin(sq board.Square, st Style) (int, int) {
	return sq.File() * st.SquareSize, (7 - sq.Rank()) * st.SquareSize
}

func isLight(sq board.Square) bool {
	return (sq.File()+sq.Rank())%2 == 1
}

func opacity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
