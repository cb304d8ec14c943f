// Package ui implements the vision overlay viewer using Ebitengine.
package ui

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hailam/chessvision/internal/board"
	"github.com/hailam/chessvision/internal/game"
	"github.com/hailam/chessvision/internal/overlay"
	"github.com/hailam/chessvision/internal/storage"
	"github.com/hailam/chessvision/internal/vision"
	"github.com/rs/zerolog"
)

// StatusHeight is the height of the text strip under the board.
const StatusHeight = 48

var (
	statusBackground = color.RGBA{40, 40, 40, 255}
	statusText       = color.RGBA{230, 230, 230, 255}
)

const helpText = "←/→ undo/redo · R reset · C counts · P pieces · click a piece, then its target"

// Viewer shows the overlay of one session and implements ebiten.Game.
type Viewer struct {
	session *game.Session
	store   *storage.Storage
	prefs   *storage.Preferences
	style   overlay.Style
	log     zerolog.Logger

	input  *InputHandler
	board  *ebiten.Image
	dirty  bool
	status string

	picker *game.Picker

	moves   int
	renders int
	scale   float64
}

// Config wires the viewer's collaborators. Store may be nil, in which case
// preferences are neither loaded nor saved. A zero Logger discards output.
type Config struct {
	Session *game.Session
	Store   *storage.Storage
	Style   overlay.Style
	Logger  zerolog.Logger
}

// NewViewer creates a viewer. Stored preferences override the display
// fields of cfg.Style.
func NewViewer(cfg Config) *Viewer {
	v := &Viewer{
		session: cfg.Session,
		store:   cfg.Store,
		style:   cfg.Style,
		log:     cfg.Logger,
		input:   &InputHandler{},
		dirty:   true,
		status:  helpText,
		scale:   1,
		picker:  game.NewPicker(),
	}
	v.loadPreferences()
	v.checkFirstLaunch()
	return v
}

// loadPreferences applies stored display preferences to the style.
func (v *Viewer) loadPreferences() {
	if v.store == nil {
		v.prefs = storage.DefaultPreferences()
		v.prefs.ShowCounts = v.style.ShowCounts
		v.prefs.ShowPieces = v.style.ShowPieces
		v.prefs.SquareSize = v.style.SquareSize
		return
	}

	prefs, err := v.store.LoadPreferences()
	if err != nil {
		v.log.Warn().Err(err).Msg("failed to load preferences")
	}
	v.prefs = prefs
	v.style.ShowCounts = prefs.ShowCounts
	v.style.ShowPieces = prefs.ShowPieces
	v.style.SquareSize = prefs.SquareSize
}

func (v *Viewer) savePreferences() {
	if v.store == nil {
		return
	}
	v.prefs.ShowCounts = v.style.ShowCounts
	v.prefs.ShowPieces = v.style.ShowPieces
	v.prefs.SquareSize = v.style.SquareSize
	if err := v.store.SavePreferences(v.prefs); err != nil {
		v.log.Warn().Err(err).Msg("failed to save preferences")
	}
}

// checkFirstLaunch greets new users with the key bindings.
func (v *Viewer) checkFirstLaunch() {
	if v.store == nil {
		return
	}
	first, err := v.store.IsFirstLaunch()
	if err != nil {
		v.log.Warn().Err(err).Msg("failed to check first launch")
		return
	}
	if first {
		v.status = "Welcome! " + helpText
		if err := v.store.MarkFirstLaunchComplete(); err != nil {
			v.log.Warn().Err(err).Msg("failed to mark first launch complete")
		}
	}
}

// WindowSize returns the unscaled window size for the current style.
func (v *Viewer) WindowSize() (int, int) {
	return v.style.Size(), v.style.Size() + StatusHeight
}

// Update handles input.
func (v *Viewer) Update() error {
	v.input.Update(v.scale)
	ctx := context.Background()

	for _, a := range v.input.Actions() {
		v.apply(ctx, a)
	}

	if sq, ok := v.input.ClickedSquare(v.style.SquareSize); ok {
		v.click(ctx, sq)
	}
	return nil
}

// click feeds the picker. A completed pick is played on the session;
// pawns reaching the last rank become queens.
func (v *Viewer) click(ctx context.Context, sq board.Square) {
	m, ok := v.picker.Pick(v.session.Position(), sq)
	if !ok {
		v.status = describeSquare(v.session, sq)
		if from, held := v.picker.Selected(); held {
			v.status += "  (move from " + from.String() + ")"
		}
		return
	}

	if err := v.session.Apply(ctx, m); err != nil {
		v.status = "move " + m.String() + " rejected: " + err.Error()
		return
	}
	v.status = "move " + m.String()
	v.moves++
	v.dirty = true
}

func (v *Viewer) apply(ctx context.Context, a Action) {
	v.picker.Clear()
	switch a {
	case ActionUndo:
		if m, ok := v.session.Undo(ctx); ok {
			v.status = "undo " + m.String()
			v.dirty = true
		}
	case ActionRedo:
		if m, ok := v.session.Redo(ctx); ok {
			v.status = "redo " + m.String()
			v.moves++
			v.dirty = true
		}
	case ActionReset:
		if err := v.session.Reset(ctx, ""); err != nil {
			v.status = "reset failed: " + err.Error()
			return
		}
		v.status = helpText
		v.dirty = true
	case ActionToggleCounts:
		v.style.ShowCounts = !v.style.ShowCounts
		v.savePreferences()
		v.dirty = true
	case ActionTogglePieces:
		v.style.ShowPieces = !v.style.ShowPieces
		v.savePreferences()
		v.dirty = true
	}
}

// refresh re-renders the overlay after a change.
func (v *Viewer) refresh() {
	snap := v.session.Snapshot()
	st := v.style
	st.LastMove = v.session.LastMove()
	img, err := overlay.Render(v.session.Vision(), &snap, st)
	if err != nil {
		v.log.Error().Err(err).Msg("overlay render failed")
		v.status = "render failed: " + err.Error()
		v.dirty = false
		return
	}
	if v.board != nil {
		v.board.Deallocate()
	}
	v.board = ebiten.NewImageFromImage(img)
	v.renders++
	v.dirty = false
}

// Draw renders the overlay and the status strip.
func (v *Viewer) Draw(screen *ebiten.Image) {
	if v.dirty {
		v.refresh()
	}

	screen.Fill(statusBackground)
	if v.board != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(v.scale, v.scale)
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(v.board, op)
	}

	y := float64(v.style.Size())*v.scale + 6*v.scale
	pos := v.session.Position()
	header := fmt.Sprintf("ply %d · %s to move", len(v.session.History()), pos.SideToMove)
	drawText(screen, header, boldFace, v.scale, 8*v.scale, y, statusText)
	drawText(screen, v.status, regularFace, v.scale, 8*v.scale, y+20*v.scale, statusText)
}

// Layout uses the device scale factor for crisp rendering on HiDPI displays.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	v.scale = ebiten.Monitor().DeviceScaleFactor()
	if v.scale < 1.0 {
		v.scale = 1.0
	}
	w, h := v.WindowSize()
	return int(float64(w) * v.scale), int(float64(h) * v.scale)
}

// Close saves preferences and records usage. It does not close the store.
func (v *Viewer) Close() {
	if v.store == nil {
		return
	}
	v.savePreferences()
	if err := v.store.RecordUsage(1, v.moves, v.renders); err != nil {
		v.log.Warn().Err(err).Msg("failed to record usage")
	}
}

// describeSquare summarises the vision value of sq and the pieces behind it.
func describeSquare(s *game.Session, sq board.Square) string {
	snap := s.Snapshot()
	g := s.Vision()

	var light, dark []string
	vision.Attackers(&snap, sq).ForEach(func(from board.Square) {
		p := snap.At(from)
		label := p.Type().Letter() + from.String()
		if p.Color() == board.White {
			light = append(light, label)
		} else {
			dark = append(dark, label)
		}
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %+d", sq, g.At(sq))
	if len(light) > 0 {
		fmt.Fprintf(&sb, "  light %s", strings.Join(light, " "))
	}
	if len(dark) > 0 {
		fmt.Fprintf(&sb, "  dark %s", strings.Join(dark, " "))
	}
	return sb.String()
}
