package vision

import (
	"context"
	"runtime"

	"github.com/hailam/chessvision/internal/board"
	"golang.org/x/sync/errgroup"
)

// Aggregate computes the vision grid of s: for each piece, +1 on every
// square it sees if it is White and -1 if it is Black.
func Aggregate(s *board.Snapshot) Grid {
	var g Grid
	s.Occupied().ForEach(func(sq board.Square) {
		accumulate(&g, s, sq)
	})
	return g
}

// AggregateSquares folds the pieces on the given squares, in the given
// order, into a fresh grid. Empty squares are skipped. Passing any
// permutation of the occupied squares yields the same grid as Aggregate.
func AggregateSquares(s *board.Snapshot, order []board.Square) Grid {
	var g Grid
	for _, sq := range order {
		if sq.IsValid() && !s.IsEmpty(sq) {
			accumulate(&g, s, sq)
		}
	}
	return g
}

func accumulate(g *Grid, s *board.Snapshot, sq board.Square) {
	p := s.At(sq)
	sign := p.Color().Sign()
	PieceVision(p.Type(), p.Color(), sq, s).ForEach(func(target board.Square) {
		g[target.File()][target.Rank()] += sign
	})
}

// Attackers returns the squares of all pieces whose vision covers sq.
func Attackers(s *board.Snapshot, sq board.Square) board.Bitboard {
	return s.AttackersTo(sq)
}

// AggregateAll computes the grids of many snapshots concurrently. The
// result is index-aligned with snaps. Work stops early when ctx is done.
func AggregateAll(ctx context.Context, snaps []board.Snapshot) ([]Grid, error) {
	grids := make([]Grid, len(snaps))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range snaps {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			grids[i] = Aggregate(&snaps[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return grids, nil
}
