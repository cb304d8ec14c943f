// Package protocol implements a line-oriented text interface to a vision
// session, in the spirit of UCI: one command per line, plain text replies.
package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hailam/chessvision/internal/board"
	"github.com/hailam/chessvision/internal/game"
	"github.com/hailam/chessvision/internal/logging"
	"github.com/hailam/chessvision/internal/overlay"
	"github.com/hailam/chessvision/internal/vision"
	"github.com/rs/zerolog"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errMissingArgs    = errors.New("missing arguments")
	errNothingToUndo  = errors.New("nothing to undo")
	errNothingToRedo  = errors.New("nothing to redo")
	errNoManager      = errors.New("session switching is not available")
	errCurrentSession = errors.New("cannot close the current session")
)

// Protocol reads commands from in and writes replies to out.
type Protocol struct {
	session *game.Session
	manager *game.Manager
	style   overlay.Style
	log     zerolog.Logger
	out     io.Writer

	// renders counts PNG files written, for usage stats.
	renders int
}

// Option configures a Protocol.
type Option func(*Protocol)

// WithStyle sets the style used by the render command.
func WithStyle(st overlay.Style) Option {
	return func(p *Protocol) { p.style = st }
}

// WithManager enables the session command, which creates and switches
// between the manager's sessions.
func WithManager(m *game.Manager) Option {
	return func(p *Protocol) { p.manager = m }
}

// WithLogger sets the logger for command tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Protocol) { p.log = l }
}

// New creates a protocol handler bound to s.
func New(s *game.Session, out io.Writer, opts ...Option) *Protocol {
	p := &Protocol{
		session: s,
		style:   overlay.DefaultStyle(),
		log:     logging.Nop(),
		out:     out,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Session returns the session commands currently act on.
func (p *Protocol) Session() *game.Session {
	return p.session
}

// Renders returns how many overlays the render command has written.
func (p *Protocol) Renders() int {
	return p.renders
}

// Run processes commands until quit, end of input, or ctx is done.
func (p *Protocol) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]
		if cmd == "quit" {
			return nil
		}

		p.log.Debug().Str("cmd", cmd).Strs("args", args).Msg("command")
		if err := p.Execute(ctx, cmd, args); err != nil {
			p.log.Warn().Err(err).Str("cmd", cmd).Msg("command failed")
			fmt.Fprintf(p.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

// Execute runs a single command.
func (p *Protocol) Execute(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "new":
		return p.session.Reset(ctx, "")
	case "position":
		return p.handlePosition(ctx, args)
	case "move":
		return p.handleMove(ctx, args)
	case "undo":
		if _, ok := p.session.Undo(ctx); !ok {
			return errNothingToUndo
		}
	case "redo":
		if _, ok := p.session.Redo(ctx); !ok {
			return errNothingToRedo
		}
	case "vision":
		g := p.session.Vision()
		fmt.Fprint(p.out, g.String())
	case "square":
		return p.handleSquare(args)
	case "history":
		p.handleHistory()
	case "fen":
		fmt.Fprintln(p.out, p.session.FEN())
	case "d":
		fmt.Fprint(p.out, p.session.Position().String())
	case "render":
		return p.handleRender(args)
	case "timeline":
		return p.handleTimeline(ctx)
	case "session":
		return p.handleSession(args)
	case "help":
		p.handleHelp()
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}
	return nil
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (p *Protocol) handlePosition(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errMissingArgs
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var fen string
	switch args[0] {
	case "startpos":
	case "fen":
		fen = strings.Join(args[1:movesAt], " ")
		if fen == "" {
			return errMissingArgs
		}
	default:
		return fmt.Errorf("position: expected startpos or fen, got %q", args[0])
	}

	var moves []board.Move
	if movesAt < len(args) {
		var err error
		if moves, err = parseMoves(args[movesAt+1:]); err != nil {
			return err
		}
	}
	return p.session.Load(ctx, fen, moves)
}

func (p *Protocol) handleMove(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errMissingArgs
	}
	moves, err := parseMoves(args)
	if err != nil {
		return err
	}
	return p.session.ApplyAll(ctx, moves)
}

func parseMoves(args []string) ([]board.Move, error) {
	moves := make([]board.Move, 0, len(args))
	for _, s := range args {
		m, err := board.ParseMove(s)
		if err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// handleSquare prints the value of one square and who contributes to it,
// e.g. "f3 3 light=Ng1,Pe2,Pg2 dark=-".
func (p *Protocol) handleSquare(args []string) error {
	if len(args) == 0 {
		return errMissingArgs
	}
	sq, err := board.ParseSquare(args[0])
	if err != nil {
		return err
	}

	snap := p.session.Snapshot()
	g := p.session.Vision()

	var light, dark []string
	vision.Attackers(&snap, sq).ForEach(func(from board.Square) {
		pc := snap.At(from)
		label := pc.Type().Letter() + from.String()
		if pc.Color() == board.White {
			light = append(light, label)
		} else {
			dark = append(dark, label)
		}
	})

	fmt.Fprintf(p.out, "%s %d light=%s dark=%s\n", sq, g.At(sq), joinOrDash(light), joinOrDash(dark))
	return nil
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ",")
}

func (p *Protocol) handleHistory() {
	moves := p.session.History()
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.String()
	}
	fmt.Fprintf(p.out, "history %s\n", strings.Join(parts, " "))
}

func (p *Protocol) handleRender(args []string) error {
	if len(args) == 0 {
		return errMissingArgs
	}
	path := args[0]

	snap := p.session.Snapshot()
	st := p.style
	st.LastMove = p.session.LastMove()
	img, err := overlay.Render(p.session.Vision(), &snap, st)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := overlay.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	p.renders++
	p.log.Info().Str("path", path).Msg("overlay written")
	fmt.Fprintf(p.out, "rendered %s\n", path)
	return nil
}

// handleTimeline prints, for every ply, how many squares each side controls
// and the sum of the grid.
func (p *Protocol) handleTimeline(ctx context.Context) error {
	grids, err := p.session.Timeline(ctx)
	if err != nil {
		return err
	}
	history := p.session.History()
	for i := range grids {
		move := "start"
		if i > 0 && i <= len(history) {
			move = history[i-1].String()
		}
		g := &grids[i]
		fmt.Fprintf(p.out, "ply %d %s light %d dark %d balance %d\n",
			i, move, g.Light().PopCount(), g.Dark().PopCount(), g.Sum())
	}
	return nil
}

// handleSession manages sessions:
//   - session              print the current id
//   - session new          create a session and switch to it
//   - session use <id>     switch to an existing session
//   - session list         list sessions, oldest first, current marked *
//   - session close <id>   drop a session other than the current one
func (p *Protocol) handleSession(args []string) error {
	if p.manager == nil {
		return errNoManager
	}
	if len(args) == 0 {
		fmt.Fprintf(p.out, "session %s\n", p.session.ID)
		return nil
	}

	switch args[0] {
	case "new":
		p.session = p.manager.New()
		fmt.Fprintf(p.out, "session %s\n", p.session.ID)
	case "use":
		if len(args) < 2 {
			return errMissingArgs
		}
		s, err := p.manager.Get(args[1])
		if err != nil {
			return fmt.Errorf("%w: %s", err, args[1])
		}
		p.session = s
		fmt.Fprintf(p.out, "session %s\n", s.ID)
	case "list":
		for _, s := range p.manager.List() {
			mark := " "
			if s == p.session {
				mark = "*"
			}
			fmt.Fprintf(p.out, "%s %s ply %d\n", mark, s.ID, len(s.History()))
		}
	case "close":
		if len(args) < 2 {
			return errMissingArgs
		}
		if args[1] == p.session.ID {
			return errCurrentSession
		}
		if err := p.manager.Delete(args[1]); err != nil {
			return fmt.Errorf("%w: %s", err, args[1])
		}
	default:
		return fmt.Errorf("%w: session %s", errUnknownCommand, args[0])
	}
	p.log.Debug().Str("session", p.session.ID).Msg("session command")
	return nil
}

func (p *Protocol) handleHelp() {
	fmt.Fprintln(p.out, "commands:")
	fmt.Fprintln(p.out, "  new")
	fmt.Fprintln(p.out, "  position startpos|fen <fen> [moves <m>...]")
	fmt.Fprintln(p.out, "  move <m>...")
	fmt.Fprintln(p.out, "  undo | redo")
	fmt.Fprintln(p.out, "  vision | square <sq> | history | fen | d")
	fmt.Fprintln(p.out, "  render <file.png>")
	fmt.Fprintln(p.out, "  timeline")
	fmt.Fprintln(p.out, "  session [new | use <id> | list | close <id>]")
	fmt.Fprintln(p.out, "  quit")
}
