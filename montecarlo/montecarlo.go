// Package montecarlo prices European options by averaging discounted payoffs
// over terminal prices sampled from risk-neutral geometric Brownian motion.
package montecarlo

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/charlerive/optionpricer/option"
)

const DefaultPaths = 10000

// Result is one Monte Carlo estimate.
type Result struct {
	Price  float64 `json:"price"`
	StdErr float64 `json:"std_err"` // discounted stdev(payoff)/√N, 0 for a single path
	Paths  int     `json:"paths"`
}

// Simulator owns its entropy source. It is not safe for concurrent use.
type Simulator struct {
	paths int
	src   rand.Source
}

// NewSimulator uses src for sampling; a nil src is replaced by a time-seeded one.
func NewSimulator(paths int, src rand.Source) *Simulator {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Simulator{paths: paths, src: src}
}

// NewSeededSimulator gives reproducible estimates for a fixed seed.
func NewSeededSimulator(paths int, seed uint64) *Simulator {
	return NewSimulator(paths, rand.NewPCG(seed, seed))
}

// Paths is the number of simulated paths per estimate.
func (s *Simulator) Paths() int {
	return s.paths
}

// Price is a one-shot estimate over paths samples drawn from src.
func Price(t option.Type, p option.Params, paths int, src rand.Source) (*Result, error) {
	return NewSimulator(paths, src).Price(t, p)
}

func (s *Simulator) Price(t option.Type, p option.Params) (*Result, error) {
	payoffs, err := s.Payoffs(t, p)
	if err != nil {
		return nil, err
	}
	mean, std := stat.MeanStdDev(payoffs, nil)
	df := p.Discount()
	res := &Result{
		Price: df * mean,
		Paths: len(payoffs),
	}
	// a flat payoff vector can round to a tiny negative variance
	if len(payoffs) > 1 && std > 0 {
		res.StdErr = df * std / math.Sqrt(float64(len(payoffs)))
	}
	return res, nil
}

// Payoffs returns the undiscounted payoff of every simulated path.
func (s *Simulator) Payoffs(t option.Type, p option.Params) ([]float64, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if s.paths <= 0 {
		return nil, fmt.Errorf("%w: number of paths must be positive, got %d", option.ErrDomain, s.paths)
	}

	drift := (p.R - p.Sigma*p.Sigma/2) * p.T
	diffusion := p.Sigma * math.Sqrt(p.T)

	payoffs := s.draw(s.paths)
	for i, z := range payoffs {
		st := p.S0 * math.Exp(drift+diffusion*z)
		payoffs[i] = option.Payoff(t, st, p.K)
	}
	return payoffs, nil
}

func (s *Simulator) draw(n int) []float64 {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: s.src}
	z := make([]float64, n)
	for i := range z {
		z[i] = normal.Rand()
	}
	return z
}
