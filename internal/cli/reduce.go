package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/njchilds90/quasiscf/dae"
	"github.com/njchilds90/quasiscf/internal/config"
	"github.com/njchilds90/quasiscf/internal/numcheck"
	"github.com/njchilds90/quasiscf/pairs"
	sym "github.com/njchilds90/quasiscf/symbolic"
)

type reduction struct {
	Name      string           `json:"name" yaml:"name"`
	Dim       int              `json:"m" yaml:"m"`
	LS        []int            `json:"ls" yaml:"ls"`
	Var       string           `json:"var" yaml:"var"`
	ODESteps  int              `json:"ode_steps" yaml:"ode_steps"`
	DAESteps  int              `json:"dae_steps" yaml:"dae_steps"`
	E         *sym.Matrix      `json:"e" yaml:"e"`
	F         *sym.Matrix      `json:"f" yaml:"f"`
	Ks        [3]*sym.Matrix   `json:"ks" yaml:"ks"`
	Ls        [3]*sym.Matrix   `json:"ls_transforms" yaml:"ls_transforms"`
	Projector *sym.Matrix      `json:"projector,omitempty" yaml:"projector,omitempty"`
	Check     *numcheck.Report `json:"check,omitempty" yaml:"check,omitempty"`
}

// NewReduceCommand creates the reduce command.
func NewReduceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reduce [pair...]",
		Short: "Reduce example pairs to QuasiSCF",
		Long: `Reduces the selected pairs (all when none are named): PreSCF check,
ODE reduction and DAE reduction, each stage running len(ls) steps.

With --projector the canonical projector is assembled as well. With
--samples the results are evaluated numerically at the given values of the
independent variable and the residuals of E_end against the canonical
pattern and of the projector's idempotence are reported.`,
		Example: `  # Reduce every pair
  quasiscf reduce

  # One pair, with projector and numeric check, as LaTeX
  quasiscf reduce berger-ilchmann --projector --samples 0.5,1,2 -o latex`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)
			logger := getLogger(ctx)
			ps, err := selectPairs(args)
			if err != nil {
				return err
			}
			r := newReducer(cfg, logger)
			results, err := forEach(ctx, cfg.Workers, ps, func(_ context.Context, p *pairs.Problem) (*reduction, error) {
				return reduceOne(r, cfg, logger, p)
			})
			if err != nil {
				return err
			}
			return renderReductions(cmd.OutOrStdout(), cfg, results)
		},
	}
	cmd.Flags().Bool("projector", false, "Assemble the canonical projector")
	cmd.Flags().StringSlice("samples", nil, "Values of the independent variable for the numeric check")
	cmd.Flags().Float64("tolerance", 0, "Largest accepted numeric residual (default 1e-9)")
	return cmd
}

func reduceOne(r *dae.Reducer[*sym.Matrix], cfg *config.Config, logger *slog.Logger, p *pairs.Problem) (*reduction, error) {
	res, err := r.Reduce(p.Problem)
	if err != nil {
		return nil, err
	}
	out := &reduction{
		Name:     p.Name,
		Dim:      p.Dim(),
		LS:       p.LS,
		Var:      p.Var,
		ODESteps: res.ODESteps,
		DAESteps: res.DAESteps,
		E:        res.Pair.E,
		F:        res.Pair.F,
		Ks:       res.Ks,
		Ls:       res.Ls,
	}
	if cfg.Projector {
		if out.Projector, err = r.CanonicalProjector(res.Ks, p.LS); err != nil {
			return nil, err
		}
	}
	if len(cfg.Samples) > 0 {
		p.Params = cfg.ParamsFor(p.Name, p.Params)
		out.Check, err = numcheck.Check(numcheck.Input{
			E:         out.E,
			Target:    dae.SSCF(p.Dim(), p.LS, r.Orientation()),
			Projector: out.Projector,
			Env:       p.Env,
		}, cfg.Samples)
		if err != nil {
			return nil, err
		}
		if !out.Check.Within(cfg.Tolerance) {
			logger.Warn("numeric residual above tolerance", "pair", p.Name,
				"structure", out.Check.MaxStructure, "tolerance", cfg.Tolerance)
		}
	}
	return out, nil
}

func renderReductions(w io.Writer, cfg *config.Config, results []*reduction) error {
	if ok, err := renderStructured(w, cfg.Output, results); ok {
		return err
	}
	for i, res := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		if cfg.Output == config.OutputLaTeX {
			_, _ = fmt.Fprintf(w, "%% %s: m=%d, ls=%v\n", res.Name, res.Dim, res.LS)
		} else {
			_, _ = fmt.Fprintf(w, "%s (m=%d, ls=%v, %s): %d ODE steps, %d DAE steps\n",
				res.Name, res.Dim, res.LS, res.Var, res.ODESteps, res.DAESteps)
		}
		ms := []namedMatrix{
			{"E_end", "E_{end}", res.E},
			{"F_end", "F_{end}", res.F},
		}
		for k := range res.Ks {
			ms = append(ms, namedMatrix{fmt.Sprintf("K_%d", k), fmt.Sprintf("K_{%d}", k), res.Ks[k]})
		}
		for k := range res.Ls {
			ms = append(ms, namedMatrix{fmt.Sprintf("L_%d", k), fmt.Sprintf("L_{%d}", k), res.Ls[k]})
		}
		ms = append(ms, namedMatrix{"Pi_can", "\\Pi_{can}", res.Projector})
		writeMatrices(w, cfg.Output, ms)
		if res.Check != nil && cfg.Output == config.OutputText {
			renderCheck(w, res.Check)
		}
	}
	return nil
}

func renderCheck(w io.Writer, rep *numcheck.Report) {
	rows := make([]table.Row, len(rep.Samples))
	for i, s := range rep.Samples {
		idem := "-"
		if s.Idempotence != nil {
			idem = fmt.Sprintf("%.3g", *s.Idempotence)
		}
		rows[i] = table.Row{fmt.Sprintf("%g", s.At), fmt.Sprintf("%.3g", s.Structure), idem}
	}
	renderTable(w, table.Row{"t", "|E - E_sscf|", "|P^2 - P|"}, rows)
}
