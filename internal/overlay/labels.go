package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"sync"

	"github.com/hailam/chessvision/internal/board"
	"github.com/hailam/chessvision/internal/vision"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontsErr    error

	black = color.RGBA{20, 20, 20, 255}
	white = color.RGBA{250, 250, 250, 255}
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regularFont, fontsErr = opentype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		boldFont, fontsErr = opentype.Parse(gobold.TTF)
	})
	return fontsErr
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// drawLabels draws piece letters centred in their squares and the absolute
// vision count in the top-right corner of every non-zero square.
func drawLabels(dst *image.RGBA, g vision.Grid, s *board.Snapshot, st Style) error {
	if err := loadFonts(); err != nil {
		return fmt.Errorf("overlay: load fonts: %w", err)
	}

	pieceFace, err := newFace(boldFont, float64(st.SquareSize)/2)
	if err != nil {
		return fmt.Errorf("overlay: piece face: %w", err)
	}
	defer pieceFace.Close()

	countFace, err := newFace(regularFont, float64(st.SquareSize)/4)
	if err != nil {
		return fmt.Errorf("overlay: count face: %w", err)
	}
	defer countFace.Close()

	for _, c := range g.Cells() {
		x, y := origin(c.Square, st)

		if st.ShowPieces && s != nil {
			if p := s.At(c.Square); p != board.NoPiece {
				ink, edge := black, white
				if p.Color() == board.White {
					ink, edge = white, black
				}
				label := p.Type().Letter()
				d := &font.Drawer{Dst: dst, Face: pieceFace}
				w := d.MeasureString(label).Ceil()
				h := pieceFace.Metrics().CapHeight.Ceil()
				dot := fixed.P(x+(st.SquareSize-w)/2, y+(st.SquareSize+h)/2)
				outline(d, dot, label, edge)
				d.Src = image.NewUniform(ink)
				d.Dot = dot
				d.DrawString(label)
			}
		}

		if st.ShowCounts && c.Vision != 0 {
			ink := st.PositiveText
			if c.Vision < 0 {
				ink = st.NegativeText
			}
			label := strconv.Itoa(abs(c.Vision))
			d := &font.Drawer{Dst: dst, Src: image.NewUniform(ink), Face: countFace}
			w := d.MeasureString(label).Ceil()
			pad := st.SquareSize / 16
			d.Dot = fixed.P(x+st.SquareSize-w-pad, y+pad+countFace.Metrics().Ascent.Ceil())
			d.DrawString(label)
		}
	}
	return nil
}

// outline draws label offset by one pixel in each direction so letters
// stay readable on both square colours.
func outline(d *font.Drawer, dot fixed.Point26_6, label string, c color.Color) {
	d.Src = image.NewUniform(c)
	for _, off := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		d.Dot = dot.Add(fixed.P(off[0], off[1]))
		d.DrawString(label)
	}
}
