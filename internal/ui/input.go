package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hailam/chessvision/internal/board"
)

// Action is a viewer command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionUndo
	ActionRedo
	ActionReset
	ActionToggleCounts
	ActionTogglePieces
)

var keyBindings = []struct {
	key    ebiten.Key
	action Action
}{
	{ebiten.KeyArrowLeft, ActionUndo},
	{ebiten.KeyArrowRight, ActionRedo},
	{ebiten.KeyR, ActionReset},
	{ebiten.KeyC, ActionToggleCounts},
	{ebiten.KeyP, ActionTogglePieces},
}

// InputHandler turns raw mouse and keyboard state into viewer actions.
type InputHandler struct {
	mouseX, mouseY  int
	leftJustPressed bool
}

// Update reads the input state. Call this once per frame.
func (ih *InputHandler) Update(scale float64) {
	rawX, rawY := ebiten.CursorPosition()
	if scale < 1.0 {
		scale = 1.0
	}
	ih.mouseX = int(float64(rawX) / scale)
	ih.mouseY = int(float64(rawY) / scale)
	ih.leftJustPressed = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
}

// Actions returns the actions whose keys were pressed this frame.
func (ih *InputHandler) Actions() []Action {
	var out []Action
	for _, b := range keyBindings {
		if inpututil.IsKeyJustPressed(b.key) {
			out = append(out, b.action)
		}
	}
	return out
}

// ClickedSquare returns the board square under a fresh left click.
func (ih *InputHandler) ClickedSquare(squareSize int) (board.Square, bool) {
	if !ih.leftJustPressed {
		return board.NoSquare, false
	}
	return squareAt(ih.mouseX, ih.mouseY, squareSize)
}

// squareAt maps a pixel on a board drawn rank 8 first to its square.
func squareAt(x, y, squareSize int) (board.Square, bool) {
	if squareSize <= 0 || x < 0 || y < 0 {
		return board.NoSquare, false
	}
	file, row := x/squareSize, y/squareSize
	if !board.OnBoard(file, 7-row) {
		return board.NoSquare, false
	}
	return board.NewSquare(file, 7-row), true
}
