package blackscholes

import (
	"fmt"
	"math"

	"github.com/charlerive/optionpricer/option"
)

const (
	ivGuess     = 0.2
	ivTolerance = 1e-5
	ivFloor     = 1e-4
	ivCeiling   = 5.0
)

// ImpliedVol finds the volatility reproducing marketPrice with Newton-Raphson.
// p.Sigma is ignored.
func ImpliedVol(t option.Type, p option.Params, marketPrice float64) (float64, error) {
	if err := checkQuote(t, p, marketPrice); err != nil {
		return 0, err
	}

	sigma := ivGuess
	sqrtT := math.Sqrt(p.T)
	for i := 0; i < MaxExecTimes; i++ {
		price, d1, _ := value(t, p.S0, p.K, p.T, p.R, sigma)
		diff := marketPrice - price
		if math.Abs(diff) < ivTolerance {
			return sigma, nil
		}

		vega := p.S0 * Pdf(d1) * sqrtT
		if vega == 0 || math.IsNaN(vega) {
			return 0, fmt.Errorf("%w at sigma=%v", ErrZeroVega, sigma)
		}
		sigma += diff / vega

		if sigma < ivFloor {
			sigma = ivFloor
		} else if sigma > ivCeiling {
			sigma = ivCeiling
		}
	}
	return 0, fmt.Errorf("%w after %d iterations", ErrNoConvergence, MaxExecTimes)
}

// ImpliedVolBisection searches [ivMin, ivMax] with secant steps first and
// plain bisection after. Prices outside the bracket clamp to its ends.
func ImpliedVolBisection(t option.Type, p option.Params, marketPrice, ivMin, ivMax float64) (float64, error) {
	if err := checkQuote(t, p, marketPrice); err != nil {
		return 0, err
	}
	if ivMin <= 0 || ivMax <= ivMin {
		return 0, fmt.Errorf("%w: bad volatility bracket [%v, %v]", option.ErrDomain, ivMin, ivMax)
	}
	const opEpsilon = 0.000001 // 价格精度

	bsm := &BSM{D: t, S: p.S0, X: p.K, T: p.T, R: p.R}

	// 处理边界
	opMax := bsm.GetOptionPriceFromIv(ivMax)
	if marketPrice > opMax-opEpsilon {
		return ivMax, nil
	}
	opMin := bsm.GetOptionPriceFromIv(ivMin)
	if marketPrice < opMin+opEpsilon {
		return ivMin, nil
	}

	execCount := 0
	iv := (ivMax + ivMin) / 2
	op := bsm.GetOptionPriceFromIv(iv)
	for math.Abs(marketPrice-op) > opEpsilon {
		if execCount >= MaxExecTimes {
			return 0, fmt.Errorf("%w after %d iterations", ErrNoConvergence, MaxExecTimes)
		}
		execCount++

		if op < marketPrice {
			ivMin, opMin = iv, op
		} else {
			ivMax, opMax = iv, op
		}

		if execCount > 5 {
			iv = (ivMax + ivMin) / 2
		} else {
			iv = ivMin + (marketPrice-opMin)*(ivMax-ivMin)/(opMax-opMin)
		}
		op = bsm.GetOptionPriceFromIv(iv)
	}
	return iv, nil
}

func checkQuote(t option.Type, p option.Params, marketPrice float64) error {
	if err := t.Validate(); err != nil {
		return err
	}
	q := p
	q.Sigma = ivGuess
	if err := q.Validate(); err != nil {
		return err
	}
	if !(marketPrice > 0) || math.IsInf(marketPrice, 0) {
		return fmt.Errorf("%w: market price must be positive, got %v", option.ErrDomain, marketPrice)
	}
	return nil
}
