package blackscholes

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/charlerive/optionpricer/option"
)

const MaxExecTimes = 100

var (
	ErrZeroVega      = errors.New("zero vega encountered")
	ErrNoConvergence = errors.New("implied volatility did not converge")
)

// Black–Scholes model
// see wiki: https://en.wikipedia.org/wiki/Black%E2%80%93Scholes_model
type BSM struct {
	D     option.Type `json:"direction"`     // 期权方向 看涨：call 看跌：put
	S     float64     `json:"subject_price"` // 期权标的价格
	X     float64     `json:"strike_price"`  // 期权行权价格
	T     float64     `json:"rest_time"`     // 剩余期限（年）
	R     float64     `json:"price_rate"`    // 无风险利率
	Iv    float64     `json:"volatility"`    // 年化波动率
	Price float64     `json:"option_price"`  // 理论价格
	D1    float64     `json:"d1"`
	Nd1   float64     `json:"nd1"` // N'(d1)
	D2    float64     `json:"d2"`
	Delta float64     `json:"delta"` // 期权价格对标的价格的敏感度
	Gamma float64     `json:"gamma"` // delta对标的价格的敏感度
	Vega  float64     `json:"vega"`  // 波动率变动1%的价格变化
	Theta float64     `json:"theta"` // 每日时间价值损耗
	Rho   float64     `json:"rho"`   // 利率变动1%的价格变化
}

// NewBS prices the option and fills in the Greeks.
func NewBS(t option.Type, p option.Params) (*BSM, error) {
	if err := check(t, p); err != nil {
		return nil, err
	}
	bsm := &BSM{
		D:  t,
		S:  p.S0,
		X:  p.K,
		T:  p.T,
		R:  p.R,
		Iv: p.Sigma,
	}
	bsm.init()
	return bsm, nil
}

// Price returns the closed-form Black-Scholes price. It fails with
// option.ErrDomain when sigma·√T is zero.
func Price(t option.Type, p option.Params) (float64, error) {
	if err := check(t, p); err != nil {
		return 0, err
	}
	price, _, _ := value(t, p.S0, p.K, p.T, p.R, p.Sigma)
	return price, nil
}

func check(t option.Type, p option.Params) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Sigma*math.Sqrt(p.T) == 0 {
		return fmt.Errorf("%w: sigma*sqrt(T) is zero (sigma=%v, T=%v)", option.ErrDomain, p.Sigma, p.T)
	}
	return nil
}

func (bsm *BSM) init() {
	bsm.Price, bsm.D1, bsm.D2 = value(bsm.D, bsm.S, bsm.X, bsm.T, bsm.R, bsm.Iv)
	bsm.Nd1 = Pdf(bsm.D1)
	bsm.calcDelta()
	bsm.calcGamma()
	bsm.calcVega()
	bsm.calcTheta()
	bsm.calcRho()
}

// GetOptionPriceFromIv 通过波动率计算期权报价，不修改 bsm
func (bsm *BSM) GetOptionPriceFromIv(iv float64) float64 {
	price, _, _ := value(bsm.D, bsm.S, bsm.X, bsm.T, bsm.R, iv)
	return price
}

func value(t option.Type, s, x, tt, r, iv float64) (price, d1, d2 float64) {
	sqrtT := math.Sqrt(tt)
	d1 = (math.Log(s/x) + (r+iv*iv/2)*tt) / (iv * sqrtT)
	d2 = d1 - iv*sqrtT
	df := math.Exp(-r * tt)
	if t == option.Call {
		price = s*Cdf(d1) - x*df*Cdf(d2)
	} else {
		price = x*df*Cdf(-d2) - s*Cdf(-d1)
	}
	return
}

func (bsm *BSM) calcDelta() {
	if bsm.D == option.Call {
		bsm.Delta = Cdf(bsm.D1)
	} else {
		bsm.Delta = Cdf(bsm.D1) - 1
	}
}

func (bsm *BSM) calcGamma() {
	bsm.Gamma = bsm.Nd1 / (bsm.S * bsm.Iv * math.Sqrt(bsm.T))
}

func (bsm *BSM) calcVega() {
	bsm.Vega = bsm.S * math.Sqrt(bsm.T) * bsm.Nd1 / 100
}

func (bsm *BSM) calcTheta() {
	decay := -bsm.S * bsm.Iv / (2 * math.Sqrt(bsm.T)) * bsm.Nd1
	carry := bsm.R * bsm.X * math.Exp(-bsm.R*bsm.T)
	if bsm.D == option.Call {
		bsm.Theta = (decay - carry*Cdf(bsm.D2)) / 365
	} else {
		bsm.Theta = (decay + carry*Cdf(-bsm.D2)) / 365
	}
}

func (bsm *BSM) calcRho() {
	if bsm.D == option.Call {
		bsm.Rho = bsm.T * bsm.X * math.Exp(-bsm.R*bsm.T) * Cdf(bsm.D2) / 100
	} else {
		bsm.Rho = -bsm.T * bsm.X * math.Exp(-bsm.R*bsm.T) * Cdf(-bsm.D2) / 100
	}
}

// Cdf cumulative normal distribution function
func Cdf(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

func Pdf(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
