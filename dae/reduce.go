package dae

import (
	"fmt"
	"log/slog"
	"slices"
)

// Reducer runs the PreSCF → QuasiSCF reduction over a matrix algebra M.
type Reducer[M Matrix[M]] struct {
	alg         Algebra[M]
	orientation Orientation
	logger      *slog.Logger
}

// NewReducer returns a Reducer over alg.
func NewReducer[M Matrix[M]](alg Algebra[M], opts ...Option) *Reducer[M] {
	o := options{orientation: Column, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Reducer[M]{alg: alg, orientation: o.orientation, logger: o.logger}
}

// Orientation reports the nilpotent pattern the reducer checks against.
func (r *Reducer[M]) Orientation() Orientation { return r.orientation }

// Equivalence applies the time-varying equivalence transformation
//
//	E' = L·E·K,  F' = L·F·K + L·E·K̇
//
// with K̇ the derivative of K with respect to v. Both results are simplified.
func Equivalence[M Matrix[M]](p Pair[M], l, k M, v string) Pair[M] {
	kd := k.ApplyDiff(v).Simplify()
	le := l.MatMul(p.E)
	return Pair[M]{
		E: le.MatMul(k).Simplify(),
		F: l.MatMul(p.F).MatMul(k).MatAdd(le.MatMul(kd)).Simplify(),
	}
}

// Validate checks the invariants of a problem: four m×m matrices, a
// non-empty list of positive block sizes with sum(ls) ≤ m, and a variable.
func Validate[M Matrix[M]](p Problem[M]) error {
	m := p.E.Rows()
	for _, x := range []struct {
		name string
		mat  M
	}{{"E", p.E}, {"F", p.F}, {"K0", p.K0}, {"L0", p.L0}} {
		if x.mat.Rows() != m || x.mat.Cols() != m {
			return fmt.Errorf("Validate: %s is %dx%d, want %dx%d: %w", x.name, x.mat.Rows(), x.mat.Cols(), m, m, ErrInvalidProblem)
		}
	}
	if err := validateLS(m, p.LS); err != nil {
		return err
	}
	if p.Var == "" {
		return fmt.Errorf("Validate: no independent variable: %w", ErrInvalidProblem)
	}
	return nil
}

func validateLS(m int, ls []int) error {
	if len(ls) == 0 {
		return fmt.Errorf("Validate: empty characteristic list: %w", ErrInvalidProblem)
	}
	if slices.ContainsFunc(ls, func(l int) bool { return l <= 0 }) {
		return fmt.Errorf("Validate: characteristic list %v has a non-positive entry: %w", ls, ErrInvalidProblem)
	}
	if sum(ls) > m {
		return fmt.Errorf("Validate: characteristic list %v exceeds dimension %d: %w", ls, m, ErrInvalidProblem)
	}
	return nil
}

// Reduce computes the QuasiSCF of p. It transforms (E, F) with (L0, K0),
// checks the PreSCF pattern, then runs the ODE and DAE reduction stages.
func (r *Reducer[M]) Reduce(p Problem[M]) (*Result[M], error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	log := r.logger.With("problem", p.Name)
	log.Debug("reduction started", "m", p.E.Rows(), "ls", p.LS, "var", p.Var)

	pre := Equivalence(Pair[M]{E: p.E, F: p.F}, p.L0, p.K0, p.Var)
	if err := r.VerifyPreSCF(pre, p.LS); err != nil {
		return nil, err
	}
	log.Debug("prescf verified")

	ode, err := r.reduceF12(log, pre, p.LS, p.Var)
	if err != nil {
		return nil, err
	}
	dae, err := r.reduceF21(log, ode.Pair, p.LS, p.Var)
	if err != nil {
		return nil, err
	}
	log.Info("reduction finished", "ode_steps", ode.Steps, "dae_steps", dae.Steps)

	return &Result[M]{
		Pair:     dae.Pair,
		Ks:       [3]M{p.K0, ode.K, dae.K},
		Ls:       [3]M{p.L0, ode.L, dae.L},
		ODESteps: ode.Steps,
		DAESteps: dae.Steps,
	}, nil
}

// fold is the state threaded through the iterations of a stage.
type fold[M any] struct {
	pair Pair[M]
	k, l M
}

type stepFunc[M any] func(s fold[M], e22 M, d int) (fold[M], error)

// runStage folds step over len(ls) iterations. E22 is taken from the pair
// the stage starts with and is not refreshed: the correction matrices keep
// the leading block of E invariant.
func (r *Reducer[M]) runStage(log *slog.Logger, stage string, p Pair[M], ls []int, step stepFunc[M]) (Stage[M], error) {
	m := p.E.Rows()
	d := m - sum(ls)
	s := fold[M]{pair: p, k: r.alg.Identity(m), l: r.alg.Identity(m)}
	e22 := p.E.Block(d, m, d, m)
	for i := range len(ls) {
		next, err := step(s, e22, d)
		if err != nil {
			if e, ok := err.(*Error); ok {
				e.Stage, e.Iteration = stage, i+1
			}
			return Stage[M]{}, err
		}
		s = next
		log.Debug("reduction step", "stage", stage, "iteration", i+1, "of", len(ls))
	}
	return Stage[M]{Pair: s.pair, K: s.k, L: s.l, Steps: len(ls)}, nil
}

// ReduceF12 eliminates the coupling block F12 so that the leading d rows
// decouple into a pure ODE.
func (r *Reducer[M]) ReduceF12(p Pair[M], ls []int, v string) (Stage[M], error) {
	if err := validateLS(p.E.Rows(), ls); err != nil {
		return Stage[M]{}, err
	}
	return r.reduceF12(r.logger, p, ls, v)
}

func (r *Reducer[M]) reduceF12(log *slog.Logger, p Pair[M], ls []int, v string) (Stage[M], error) {
	return r.runStage(log, StageODE, p, ls, func(s fold[M], e22 M, d int) (fold[M], error) {
		m := s.pair.F.Rows()
		f22 := s.pair.F.Block(d, m, d, m)
		f12 := s.pair.F.Block(0, d, d, m)
		inv, err := f22.Inverse()
		if err != nil {
			return s, singular(f22, s.pair.F, err)
		}
		x := f12.MatMul(inv).Simplify()
		li := r.alg.Identity(m).WithBlock(0, d, x.Neg())
		ki := r.alg.Identity(m).WithBlock(0, d, x.MatMul(e22).Simplify())
		return fold[M]{
			pair: Equivalence(s.pair, li, ki, v),
			k:    s.k.MatMul(ki).Simplify(),
			l:    li.MatMul(s.l).Simplify(),
		}, nil
	})
}

// ReduceF21 eliminates the complementary coupling block F21, leaving the
// trailing block a pure DAE.
func (r *Reducer[M]) ReduceF21(p Pair[M], ls []int, v string) (Stage[M], error) {
	if err := validateLS(p.E.Rows(), ls); err != nil {
		return Stage[M]{}, err
	}
	return r.reduceF21(r.logger, p, ls, v)
}

func (r *Reducer[M]) reduceF21(log *slog.Logger, p Pair[M], ls []int, v string) (Stage[M], error) {
	return r.runStage(log, StageDAE, p, ls, func(s fold[M], e22 M, d int) (fold[M], error) {
		m := s.pair.F.Rows()
		f22 := s.pair.F.Block(d, m, d, m)
		f21 := s.pair.F.Block(d, m, 0, d)
		inv, err := f22.Inverse()
		if err != nil {
			return s, singular(f22, s.pair.F, err)
		}
		z := inv.MatMul(f21).Simplify()
		ki := r.alg.Identity(m).WithBlock(d, 0, z.Neg())
		li := r.alg.Identity(m).WithBlock(d, 0, e22.MatMul(z).Simplify())
		return fold[M]{
			pair: Equivalence(s.pair, li, ki, v),
			k:    s.k.MatMul(ki).Simplify(),
			l:    li.MatMul(s.l).Simplify(),
		}, nil
	})
}

func singular(f22, f fmt.Stringer, cause error) *Error {
	return &Error{
		Kind:        ErrSingularBlock,
		Diagnostics: []Diagnostic{{Name: "F22", Matrix: f22}, {Name: "F", Matrix: f}},
		Err:         cause,
	}
}
