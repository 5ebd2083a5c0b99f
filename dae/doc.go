// Package dae reduces a regular linear time-varying DAE
//
//	E(t)·x'(t) = F(t)·x(t)
//
// to its QuasiSCF. A caller-supplied transformation (K0, L0) brings the pair
// to PreSCF, whose leading matrix must be the constant pattern built by
// SSCF. Two stages of len(ls) equivalence steps each then remove the
// coupling blocks F12 and F21, and CanonicalProjector combines the
// accumulated K matrices into the canonical projector.
//
// The engine is generic over the symbolic matrix type; package symbolic
// provides the exact implementation used by the command line tool.
//
// Example:
//
//	r := dae.NewReducer[*symbolic.Matrix](symbolic.Algebra{})
//	res, err := r.Reduce(problem)
//	if err != nil {
//	    var de *dae.Error
//	    if errors.As(err, &de) {
//	        fmt.Println(de.Report())
//	    }
//	    return err
//	}
//	proj, err := r.CanonicalProjector(res.Ks, problem.LS)
package dae
