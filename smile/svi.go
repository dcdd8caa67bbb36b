package smile

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const ParamsLen = 5

var ErrTooFewPoints = errors.New("too few points to fit")

type SviParams struct {
	A   float64 `json:"a"`   // 方差大小
	B   float64 `json:"b"`   // 渐近线夹角
	C   float64 `json:"c"`   // 平滑度
	Rho float64 `json:"rho"` // 旋转
	Eta float64 `json:"eta"` // 平移
}

func paramsOf(x []float64) *SviParams {
	return &SviParams{A: x[0], B: x[1], C: x[2], Rho: x[3], Eta: x[4]}
}

// Surface is a fitted SVI slice for one maturity.
type Surface struct {
	*SviParams
	ForwardPrice float64 `json:"forward_price"` // 远期价格
	T            float64 `json:"t"`             // 剩余期限（年）
	Residual     float64 `json:"residual"`      // 总方差残差的 L2 范数
}

// ImVol 根据参数和行权价格找到波动率
func (s *Surface) ImVol(strikePrice float64) float64 {
	return math.Sqrt(math.Abs(s.GetVariance(strikePrice) / s.T))
}

// GetVariance returns the total implied variance at strikePrice.
func (s *Surface) GetVariance(strikePrice float64) float64 {
	kM := math.Log(strikePrice/s.ForwardPrice) - s.Eta
	return Variance(kM, s.A, s.B, s.C, s.Rho)
}

func Variance(kM, a, b, c, rho float64) float64 {
	return a + b*(rho*kM+math.Sqrt(kM*kM+c*c))
}

func TotalVariance(kList []float64, p *SviParams) []float64 {
	res := make([]float64, 0, len(kList))
	for _, k := range kList {
		res = append(res, Variance(k-p.Eta, p.A, p.B, p.C, p.Rho))
	}
	return res
}

/** wing constraints, feasible when > 0 **/
func RightConstraint1(p *SviParams) float64 {
	return ((4 - p.A + p.B*p.Eta*(p.Rho+1)) * (p.A - p.B*p.Eta*(p.Rho+1))) - (p.B * p.B * (p.Rho + 1) * (p.Rho + 1))
}

func RightConstraint2(p *SviParams) float64 {
	return 4 - (p.B * p.B * (p.Rho + 1) * (p.Rho + 1))
}

func LeftConstraint1(p *SviParams) float64 {
	return ((4 - p.A + p.B*p.Eta*(p.Rho-1)) * (p.A - p.B*p.Eta*(p.Rho-1))) - (p.B * p.B * (p.Rho - 1) * (p.Rho - 1))
}

func LeftConstraint2(p *SviParams) float64 {
	return 4 - (p.B * p.B * (p.Rho - 1) * (p.Rho - 1))
}

// LeastSquares is the objective: ‖w(k) - v‖₂ over total variances.
func LeastSquares(p *SviParams, kList, totImpliedVariance []float64) float64 {
	vList := TotalVariance(kList, p)
	for i, v := range vList {
		vList[i] = v - totImpliedVariance[i]
	}
	return mat.Norm(mat.NewVecDense(len(vList), vList), 2)
}

// Fit finds SVI parameters for the smile. Points with NaN implied
// volatility are skipped.
func Fit(points []Point, forward, t float64) (*Surface, error) {
	if !(forward > 0) || !(t > 0) {
		return nil, fmt.Errorf("svi fit: forward and t must be positive, got %v, %v", forward, t)
	}
	kList := make([]float64, 0, len(points))
	vList := make([]float64, 0, len(points))
	kMin, kMax, vMin, vMax := math.MaxFloat64, -math.MaxFloat64, math.MaxFloat64, -math.MaxFloat64
	for _, pt := range points {
		if math.IsNaN(pt.ImVol) || pt.Strike <= 0 {
			continue
		}
		k := math.Log(pt.Strike / forward)
		v := pt.ImVol * pt.ImVol * t
		kList = append(kList, k)
		vList = append(vList, v)
		kMin, kMax = math.Min(kMin, k), math.Max(kMax, k)
		vMin, vMax = math.Min(vMin, v), math.Max(vMax, v)
	}
	if len(kList) < ParamsLen {
		return nil, fmt.Errorf("%w: %d usable points, need %d", ErrTooFewPoints, len(kList), ParamsLen)
	}

	low := SviParams{A: 0.000001, B: 0.001, C: 0.001, Rho: -0.999999, Eta: 2 * math.Min(kMin, 0)}
	high := SviParams{A: vMax, B: 1., C: 2., Rho: 0.999999, Eta: 2 * math.Max(kMax, 0)}
	// b is kept at half the left-wing limit so the start point is feasible
	aInit := math.Max(vMin/2, low.A)
	bInit := math.Max(math.Min(0.1, math.Sqrt((4-aInit)*aInit)/3), low.B)
	paramInit := []float64{aInit, bInit, 0.1, -0.5, 0}

	pro := optimize.Problem{
		Func: func(x []float64) float64 {
			p := paramsOf(x)
			// bounds
			if p.A > high.A || p.A < low.A || p.B > high.B || p.B < low.B || p.C > high.C || p.C < low.C ||
				p.Rho > high.Rho || p.Rho < low.Rho || p.Eta > high.Eta || p.Eta < low.Eta {
				return math.MaxFloat64
			}
			if LeftConstraint1(p) <= 0 || LeftConstraint2(p) <= 0 || RightConstraint1(p) <= 0 || RightConstraint2(p) <= 0 {
				return math.MaxFloat64
			}
			return LeastSquares(p, kList, vList)
		},
	}
	result, err := optimize.Minimize(pro, paramInit, &optimize.Settings{}, nil)
	if result == nil {
		return nil, fmt.Errorf("svi fit: %w", err)
	}
	if err != nil {
		slog.Debug("svi fit stopped early", "status", result.Status.String(), "err", err)
	}
	if result.F == math.MaxFloat64 {
		return nil, fmt.Errorf("svi fit: no feasible parameters found (status %s)", result.Status)
	}
	return &Surface{
		SviParams:    paramsOf(result.X),
		ForwardPrice: forward,
		T:            t,
		Residual:     result.F,
	}, nil
}
