package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"

	"github.com/charlerive/optionpricer/montecarlo"
	"github.com/charlerive/optionpricer/option"
	"github.com/charlerive/optionpricer/smile"
)

const Places = 4

const (
	MethodAnalytic   = "analytic"
	MethodMonteCarlo = "monte carlo"
)

// Quote is one rendered price.
type Quote struct {
	Method string           `json:"method"`
	Type   option.Type      `json:"type"`
	Params option.Params    `json:"params"`
	Price  decimal.Decimal  `json:"price"`
	StdErr *decimal.Decimal `json:"std_err,omitempty"`
	Paths  int              `json:"paths,omitempty"`
}

func Analytic(t option.Type, p option.Params, price float64) Quote {
	return Quote{
		Method: MethodAnalytic,
		Type:   t,
		Params: p,
		Price:  round(price),
	}
}

func MonteCarlo(t option.Type, p option.Params, res *montecarlo.Result) Quote {
	stdErr := round(res.StdErr)
	return Quote{
		Method: MethodMonteCarlo,
		Type:   t,
		Params: p,
		Price:  round(res.Price),
		StdErr: &stdErr,
		Paths:  res.Paths,
	}
}

func round(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(Places)
}

// Write renders quotes as text lines or a JSON array.
func Write(w io.Writer, quotes []Quote, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(quotes)
	}
	for _, q := range quotes {
		var err error
		if q.StdErr != nil {
			_, err = fmt.Fprintf(w, "The price of the %s option (%s, %d paths) is: %s ± %s\n",
				q.Type, q.Method, q.Paths, q.Price.StringFixed(Places), q.StdErr.StringFixed(Places))
		} else {
			_, err = fmt.Fprintf(w, "The price of the %s option (%s) is: %s\n",
				q.Type, q.Method, q.Price.StringFixed(Places))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type smilePoint struct {
	Strike decimal.Decimal  `json:"strike"`
	ImVol  *decimal.Decimal `json:"im_vol"`
	Fitted *decimal.Decimal `json:"fitted,omitempty"`
}

type smileReport struct {
	Points []smilePoint     `json:"points"`
	Svi    *smile.SviParams `json:"svi,omitempty"`
	Fit    *decimal.Decimal `json:"residual,omitempty"`
}

// WriteSmile renders the simulated smile and, when surface is not nil, the
// fitted SVI volatility next to each point.
func WriteSmile(w io.Writer, points []smile.Point, surface *smile.Surface, format string) error {
	rep := smileReport{Points: make([]smilePoint, 0, len(points))}
	for _, pt := range points {
		sp := smilePoint{Strike: round(pt.Strike), ImVol: roundOrNil(pt.ImVol)}
		if surface != nil {
			sp.Fitted = roundOrNil(surface.ImVol(pt.Strike))
		}
		rep.Points = append(rep.Points, sp)
	}
	if surface != nil {
		rep.Svi = surface.SviParams
		rep.Fit = roundOrNil(surface.Residual)
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	if _, err := fmt.Fprintln(w, "strike\timplied_vol\tsvi_vol"); err != nil {
		return err
	}
	for _, sp := range rep.Points {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", sp.Strike.StringFixed(2), fixedOrNA(sp.ImVol), fixedOrNA(sp.Fitted)); err != nil {
			return err
		}
	}
	if rep.Svi != nil {
		_, err := fmt.Fprintf(w, "svi: a=%.6f b=%.6f c=%.6f rho=%.6f eta=%.6f residual=%s\n",
			rep.Svi.A, rep.Svi.B, rep.Svi.C, rep.Svi.Rho, rep.Svi.Eta, fixedOrNA(rep.Fit))
		return err
	}
	return nil
}

func roundOrNil(f float64) *decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	d := round(f)
	return &d
}

func fixedOrNA(d *decimal.Decimal) string {
	if d == nil {
		return "n/a"
	}
	return d.StringFixed(Places)
}
