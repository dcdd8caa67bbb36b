package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/pflag"

	"github.com/charlerive/optionpricer/blackscholes"
	"github.com/charlerive/optionpricer/config"
	"github.com/charlerive/optionpricer/logger"
	"github.com/charlerive/optionpricer/montecarlo"
	"github.com/charlerive/optionpricer/option"
	"github.com/charlerive/optionpricer/report"
	"github.com/charlerive/optionpricer/smile"
)

func main() {
	fs := pflag.NewFlagSet("optionpricer", pflag.ExitOnError)
	configPath := fs.String("config", "", "path to a toml, yaml or json config file")
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, NewPrompter(os.Stdin, os.Stdout), os.Stdout); err != nil {
		logger.Get().Error("pricing failed", "err", err)
		os.Exit(1)
	}
}

// run prices with every configured method and writes the report only when
// all of them succeed.
func run(cfg *config.Config, prompter *Prompter, out io.Writer) error {
	log := logger.Get()

	typ, err := optionType(cfg, prompter)
	if err != nil {
		return err
	}
	params := cfg.Market.Params()
	log.Debug("pricing", "type", typ, "params", params, "method", cfg.Pricing.Method)

	var quotes []report.Quote
	if cfg.Pricing.RunsAnalytic() {
		price, err := blackscholes.Price(typ, params)
		if err != nil {
			return fmt.Errorf("analytic: %w", err)
		}
		log.Info("analytic price", "type", typ, "price", price)
		quotes = append(quotes, report.Analytic(typ, params, price))
	}
	if cfg.Pricing.RunsMonteCarlo() {
		sim := montecarlo.NewSimulator(cfg.Simulation.Paths, cfg.Simulation.Source(0))
		res, err := sim.Price(typ, params)
		if err != nil {
			return fmt.Errorf("monte carlo: %w", err)
		}
		log.Info("monte carlo price", "type", typ, "price", res.Price, "std_err", res.StdErr, "paths", res.Paths)
		quotes = append(quotes, report.MonteCarlo(typ, params, res))
	}

	var (
		points  []smile.Point
		surface *smile.Surface
	)
	if cfg.Smile.Enabled {
		points, err = smile.Simulate(params, cfg.Smile.Config(), cfg.Simulation.Source(1))
		if err != nil {
			return fmt.Errorf("smile: %w", err)
		}
		forward := params.S0 * math.Exp(params.R*params.T)
		surface, err = smile.Fit(points, forward, params.T)
		if err != nil {
			log.Warn("svi fit failed, reporting raw smile", "err", err)
		}
	}

	if err := report.Write(out, quotes, cfg.Output.Format); err != nil {
		return err
	}
	if cfg.Smile.Enabled {
		return report.WriteSmile(out, points, surface, cfg.Output.Format)
	}
	return nil
}

func optionType(cfg *config.Config, prompter *Prompter) (option.Type, error) {
	if cfg.Option.Type != "" {
		return option.ParseType(cfg.Option.Type)
	}
	return prompter.OptionType()
}
