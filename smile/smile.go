// Package smile simulates a volatility smile by pricing calls under noisy
// volatility and backing out implied volatilities, and fits an SVI curve
// through the result.
package smile

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/charlerive/optionpricer/blackscholes"
	"github.com/charlerive/optionpricer/option"
)

type Config struct {
	Strikes       int     `json:"strikes"`        // 行权价个数
	Draws         int     `json:"draws"`          // 每个行权价的波动率抽样次数
	VolOfVol      float64 `json:"vol_of_vol"`     // 波动率抽样标准差
	LowMoneyness  float64 `json:"low_moneyness"`  // 最低行权价 / S0
	HighMoneyness float64 `json:"high_moneyness"` // 最高行权价 / S0
}

func DefaultConfig() Config {
	return Config{
		Strikes:       50,
		Draws:         100,
		VolOfVol:      0.05,
		LowMoneyness:  0.8,
		HighMoneyness: 1.2,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Strikes < 2:
		return fmt.Errorf("%w: need at least 2 strikes, got %d", option.ErrDomain, c.Strikes)
	case c.Draws <= 0:
		return fmt.Errorf("%w: draws must be positive, got %d", option.ErrDomain, c.Draws)
	case c.VolOfVol < 0:
		return fmt.Errorf("%w: vol of vol must be non-negative, got %v", option.ErrDomain, c.VolOfVol)
	case !(c.LowMoneyness > 0) || c.HighMoneyness <= c.LowMoneyness:
		return fmt.Errorf("%w: bad moneyness range [%v, %v]", option.ErrDomain, c.LowMoneyness, c.HighMoneyness)
	}
	return nil
}

type Point struct {
	Strike float64 `json:"strike"`
	ImVol  float64 `json:"im_vol"` // NaN when the implied volatility could not be found
}

// Simulate builds a call smile around p.Sigma. p.K is ignored; strikes run
// from LowMoneyness·S0 to HighMoneyness·S0.
func Simulate(p option.Params, cfg Config, src rand.Source) ([]Point, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	q := p
	q.K = p.S0
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if p.Sigma <= 0 {
		return nil, fmt.Errorf("%w: base volatility must be positive, got %v", option.ErrDomain, p.Sigma)
	}

	vols := distuv.Normal{Mu: p.Sigma, Sigma: cfg.VolOfVol, Src: src}
	strikes := floats.Span(make([]float64, cfg.Strikes), cfg.LowMoneyness*p.S0, cfg.HighMoneyness*p.S0)
	points := make([]Point, 0, len(strikes))
	for _, k := range strikes {
		q.K = k
		points = append(points, Point{Strike: k, ImVol: impliedAt(q, vols, cfg.Draws)})
	}
	return points, nil
}

// impliedAt averages call prices over sampled volatilities and inverts the mean.
func impliedAt(q option.Params, vols distuv.Normal, draws int) float64 {
	sum, n := 0.0, 0
	for i := 0; i < draws; i++ {
		q.Sigma = vols.Rand()
		if q.Sigma <= 0 {
			continue
		}
		price, err := blackscholes.Price(option.Call, q)
		if err != nil {
			continue
		}
		sum += price
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	iv, err := blackscholes.ImpliedVol(option.Call, q, sum/float64(n))
	if err != nil {
		return math.NaN()
	}
	return iv
}
