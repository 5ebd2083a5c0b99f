package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/njchilds90/quasiscf/dae"
	"github.com/njchilds90/quasiscf/internal/config"
	"github.com/njchilds90/quasiscf/pairs"
	sym "github.com/njchilds90/quasiscf/symbolic"
)

// errVerifyFailed is returned when at least one pair is not in PreSCF.
var errVerifyFailed = errors.New("prescf verification failed")

type verification struct {
	Name  string      `json:"name" yaml:"name"`
	OK    bool        `json:"ok" yaml:"ok"`
	Error string      `json:"error,omitempty" yaml:"error,omitempty"`
	E0    *sym.Matrix `json:"e0" yaml:"e0"`
	F0    *sym.Matrix `json:"f0" yaml:"f0"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [pair...]",
		Short: "Check that the initial transformation yields the PreSCF pattern",
		Long: `Applies (L0, K0) to every selected pair and checks that the leading
matrix is exactly the constant standard canonical pattern. No reduction
step is run.`,
		Example: `  quasiscf verify
  quasiscf verify berger-ilchmann -o latex`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)
			ps, err := selectPairs(args)
			if err != nil {
				return err
			}
			r := newReducer(cfg, getLogger(ctx))
			results, err := forEach(ctx, cfg.Workers, ps, func(_ context.Context, p *pairs.Problem) (verification, error) {
				return verifyOne(r, p)
			})
			if err != nil {
				return err
			}
			if err := renderVerifications(cmd, cfg, results); err != nil {
				return err
			}
			failed := 0
			for _, v := range results {
				if !v.OK {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d pairs: %w", failed, len(results), errVerifyFailed)
			}
			return nil
		},
	}
}

// verifyOne reports a structural mismatch in the result; only invalid
// input is returned as an error.
func verifyOne(r *dae.Reducer[*sym.Matrix], p *pairs.Problem) (verification, error) {
	if err := dae.Validate(p.Problem); err != nil {
		return verification{}, err
	}
	pre := dae.Equivalence(dae.Pair[*sym.Matrix]{E: p.E, F: p.F}, p.L0, p.K0, p.Var)
	v := verification{Name: p.Name, OK: true, E0: pre.E, F0: pre.F}
	if err := r.VerifyPreSCF(pre, p.LS); err != nil {
		if !errors.Is(err, dae.ErrStructuralMismatch) {
			return verification{}, err
		}
		v.OK, v.Error = false, err.Error()
	}
	return v, nil
}

func renderVerifications(cmd *cobra.Command, cfg *config.Config, results []verification) error {
	w := cmd.OutOrStdout()
	if ok, err := renderStructured(w, cfg.Output, results); ok {
		return err
	}
	if cfg.Output == config.OutputLaTeX {
		for _, v := range results {
			_, _ = fmt.Fprintf(w, "%% %s\n", v.Name)
			writeMatrices(w, cfg.Output, []namedMatrix{{"E_0", "E_0", v.E0}, {"F_0", "F_0", v.F0}})
		}
		return nil
	}
	rows := make([]table.Row, len(results))
	for i, v := range results {
		status := "ok"
		if !v.OK {
			status = v.Error
		}
		rows[i] = table.Row{v.Name, status}
	}
	renderTable(w, table.Row{"Pair", "PreSCF"}, rows)
	if cfg.Verbose {
		for _, v := range results {
			_, _ = fmt.Fprintf(w, "\n%s\n", v.Name)
			writeMatrices(w, cfg.Output, []namedMatrix{{"E_0", "E_0", v.E0}, {"F_0", "F_0", v.F0}})
		}
	}
	return nil
}
