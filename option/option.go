package option

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrDomain marks inputs outside the model's mathematical preconditions.
	ErrDomain = errors.New("domain error")
	// ErrInvalidSelection marks an option type that is neither call nor put.
	ErrInvalidSelection = errors.New("invalid option type")
)

// Type 期权方向
type Type string

const (
	Call Type = "call"
	Put  Type = "put"
)

// ParseType accepts "call"/"c" and "put"/"p" in any case.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("%w: %q, use 'call' or 'put'", ErrInvalidSelection, s)
}

func (t Type) Validate() error {
	if t != Call && t != Put {
		return fmt.Errorf("%w: %q, use 'call' or 'put'", ErrInvalidSelection, string(t))
	}
	return nil
}

func (t Type) String() string {
	return string(t)
}

// Params holds the market inputs shared by every pricer.
type Params struct {
	S0    float64 `json:"s0"`    // 标的价格
	K     float64 `json:"k"`     // 行权价格
	T     float64 `json:"t"`     // 剩余期限（年）
	R     float64 `json:"r"`     // 无风险利率
	Sigma float64 `json:"sigma"` // 年化波动率
}

func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"S0", p.S0}, {"K", p.K}, {"T", p.T}, {"r", p.R}, {"sigma", p.Sigma}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrDomain, f.name, f.v)
		}
	}
	switch {
	case p.S0 <= 0:
		return fmt.Errorf("%w: S0 must be positive, got %v", ErrDomain, p.S0)
	case p.K <= 0:
		return fmt.Errorf("%w: K must be positive, got %v", ErrDomain, p.K)
	case p.T <= 0:
		return fmt.Errorf("%w: T must be positive, got %v", ErrDomain, p.T)
	case p.Sigma < 0:
		return fmt.Errorf("%w: sigma must be non-negative, got %v", ErrDomain, p.Sigma)
	}
	return nil
}

// Discount returns e^(-rT).
func (p Params) Discount() float64 {
	return math.Exp(-p.R * p.T)
}

// Payoff is the value at maturity for terminal price st.
func Payoff(t Type, st, k float64) float64 {
	if t == Call {
		return math.Max(0, st-k)
	}
	return math.Max(0, k-st)
}
