package cli

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/quasiscf/dae"
	"github.com/njchilds90/quasiscf/internal/config"
	"github.com/njchilds90/quasiscf/pairs"
	sym "github.com/njchilds90/quasiscf/symbolic"
)

// selectPairs builds the named pairs, or all of them when names is empty.
func selectPairs(names []string) ([]*pairs.Problem, error) {
	if len(names) == 0 {
		return pairs.All(), nil
	}
	out := make([]*pairs.Problem, 0, len(names))
	for _, name := range names {
		p, err := pairs.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// forEach runs fn on every pair with at most workers in flight and returns
// the results in input order. The first failure cancels the rest.
func forEach[T any](ctx context.Context, workers int, ps []*pairs.Problem, fn func(context.Context, *pairs.Problem) (T, error)) ([]T, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	out := make([]T, len(ps))
	for i, p := range ps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := fn(gctx, p)
			if err != nil {
				return fmt.Errorf("%s: %w", p.Name, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func newReducer(cfg *config.Config, logger *slog.Logger) *dae.Reducer[*sym.Matrix] {
	return dae.NewReducer[*sym.Matrix](sym.Algebra{},
		dae.WithOrientation(cfg.Orientation),
		dae.WithLogger(logger),
	)
}
