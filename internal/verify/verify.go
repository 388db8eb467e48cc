// Package verify checks the derivative maps of a network against each other
// and against finite differences.
//
// Every check runs a number of independent trials. A trial works on its own
// clone of the network and draws from its own generator seeded with
// (Config.Seed, trial index), so a report is reproducible regardless of how
// trials are scheduled across workers.
package verify

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/fnn/internal/nn"
	"github.com/born-ml/fnn/internal/parallel"
)

// Config controls a verification run.
type Config struct {
	Trials  int     // Number of independent trials
	Epsilon float64 // Step for gradient tests
	Seed    uint64  // Base seed; trial t uses PCG(Seed, t)

	// Randomise re-initialises the parameters of every trial with standard
	// normal values. When false the network's current parameters are used.
	Randomise bool

	Parallel parallel.Config
}

// DefaultConfig returns 100 randomised trials with ε = 1e-6.
func DefaultConfig() Config {
	return Config{
		Trials:    100,
		Epsilon:   1e-6,
		Seed:      1,
		Randomise: true,
		Parallel:  parallel.DefaultConfig(),
	}
}

// Report summarises the per-trial errors of one check.
type Report struct {
	Name   string
	Errors []float64 // One entry per trial, in trial order
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

func newReport(name string, errs []float64) Report {
	r := Report{Name: name, Errors: errs}
	if len(errs) == 0 {
		return r
	}
	r.Mean, r.StdDev = stat.MeanStdDev(errs, nil)
	if len(errs) == 1 {
		r.StdDev = 0
	}
	r.Min = floats.Min(errs)
	r.Max = floats.Max(errs)
	return r
}

// Trials returns the number of trials in the report.
func (r Report) Trials() int { return len(r.Errors) }

// Passed reports whether every trial error is at most tol.
func (r Report) Passed(tol float64) bool {
	return len(r.Errors) > 0 && r.Max <= tol
}

// String formats the report in the layout of the solver's self tests.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Name)
	fmt.Fprintf(&b, "Ntest      %d\n", r.Trials())
	fmt.Fprintf(&b, "mean error %.6e\n", r.Mean)
	fmt.Fprintf(&b, "std error  %.6e\n", r.StdDev)
	fmt.Fprintf(&b, "max error  %.6e\n", r.Max)
	fmt.Fprintf(&b, "min error  %.6e\n", r.Min)
	return b.String()
}

// trialFunc computes the error of one trial on a private network and generator.
type trialFunc func(net *nn.Sequential, rng *rand.Rand) (float64, error)

func run(name string, net *nn.Sequential, cfg Config, f trialFunc) (Report, error) {
	if net.Len() == 0 {
		return Report{}, nn.ErrEmptyNetwork
	}
	if cfg.Trials <= 0 {
		return Report{}, fmt.Errorf("%s: trials must be positive, got %d", name, cfg.Trials)
	}

	errs, err := parallel.Map(cfg.Trials, func(t int) (float64, error) {
		rng := rand.New(rand.NewPCG(cfg.Seed, uint64(t)))
		c := net.CloneSequential()
		if cfg.Randomise {
			if err := c.Initialise(nn.Randn(rng)); err != nil {
				return 0, err
			}
		}
		e, err := f(c, rng)
		if err != nil {
			return 0, fmt.Errorf("%s: trial %d: %w", name, t, err)
		}
		return e, nil
	}, cfg.Parallel)
	if err != nil {
		return Report{}, err
	}
	return newReport(name, errs), nil
}

func randn(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	return v
}

// maxAbs returns the infinity norm of v.
func maxAbs(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, math.Inf(1))
}
