// Package config loads pricer settings from an optional file, PRICER_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/charlerive/optionpricer/logger"
	"github.com/charlerive/optionpricer/montecarlo"
	"github.com/charlerive/optionpricer/option"
	"github.com/charlerive/optionpricer/smile"
)

const EnvPrefix = "PRICER"

const (
	MethodAnalytic   = "analytic"
	MethodMonteCarlo = "montecarlo"
	MethodBoth       = "both"
)

type Config struct {
	Market     MarketConfig     `mapstructure:"market"`
	Option     OptionConfig     `mapstructure:"option"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Smile      SmileConfig      `mapstructure:"smile"`
	Log        logger.Config    `mapstructure:"log"`
	Output     OutputConfig     `mapstructure:"output"`
}

type MarketConfig struct {
	S0    float64 `mapstructure:"s0"`
	K     float64 `mapstructure:"k"`
	T     float64 `mapstructure:"t"`
	R     float64 `mapstructure:"r"`
	Sigma float64 `mapstructure:"sigma"`
}

func (m MarketConfig) Params() option.Params {
	return option.Params{S0: m.S0, K: m.K, T: m.T, R: m.R, Sigma: m.Sigma}
}

type OptionConfig struct {
	// call or put; empty means ask on stdin
	Type string `mapstructure:"type"`
}

type PricingConfig struct {
	Method string `mapstructure:"method"` // analytic, montecarlo, both
}

func (p PricingConfig) RunsAnalytic() bool {
	return p.Method == MethodAnalytic || p.Method == MethodBoth
}

func (p PricingConfig) RunsMonteCarlo() bool {
	return p.Method == MethodMonteCarlo || p.Method == MethodBoth
}

type SimulationConfig struct {
	Paths int    `mapstructure:"paths"`
	Seed  uint64 `mapstructure:"seed"` // 0 seeds from the clock
}

// Source returns a seeded source, or nil when Seed is 0. offset separates
// streams that share one seed.
func (s SimulationConfig) Source(offset uint64) rand.Source {
	if s.Seed == 0 {
		return nil
	}
	return rand.NewPCG(s.Seed, s.Seed+offset)
}

type SmileConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	Strikes  int     `mapstructure:"strikes"`
	Draws    int     `mapstructure:"draws"`
	VolOfVol float64 `mapstructure:"vol_of_vol"`
}

func (s SmileConfig) Config() smile.Config {
	c := smile.DefaultConfig()
	c.Strikes = s.Strikes
	c.Draws = s.Draws
	c.VolOfVol = s.VolOfVol
	return c
}

type OutputConfig struct {
	Format string `mapstructure:"format"` // text or json
}

// flagKeys maps config keys to the flags registered by RegisterFlags.
var flagKeys = map[string]string{
	"market.s0":        "s0",
	"market.k":         "k",
	"market.t":         "t",
	"market.r":         "r",
	"market.sigma":     "sigma",
	"option.type":      "type",
	"pricing.method":   "method",
	"simulation.paths": "paths",
	"simulation.seed":  "seed",
	"smile.enabled":    "smile",
	"output.format":    "format",
	"log.level":        "log-level",
}

// RegisterFlags defines the command-line overrides understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Float64("s0", 100, "initial asset price")
	fs.Float64("k", 105, "strike price")
	fs.Float64("t", 1, "time to maturity in years")
	fs.Float64("r", 0.05, "annualized risk-free rate")
	fs.Float64("sigma", 0.2, "annualized volatility")
	fs.String("type", "", "option type: call or put (prompted when empty)")
	fs.String("method", MethodBoth, "pricing method: analytic, montecarlo or both")
	fs.Int("paths", montecarlo.DefaultPaths, "number of Monte Carlo paths")
	fs.Uint64("seed", 0, "random seed, 0 for a clock seed")
	fs.Bool("smile", false, "also simulate and fit a volatility smile")
	fs.String("format", "text", "output format: text or json")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
}

// Load reads configPath when set, then applies environment variables and
// any changed flags in fs.
func Load(configPath string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for key, name := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate normalizes enum fields and checks everything that can be checked
// before pricing starts.
func (c *Config) Validate() error {
	c.Pricing.Method = strings.ToLower(strings.TrimSpace(c.Pricing.Method))
	switch c.Pricing.Method {
	case MethodAnalytic, MethodMonteCarlo, MethodBoth:
	default:
		return fmt.Errorf("unknown pricing method %q", c.Pricing.Method)
	}
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format != "text" && c.Output.Format != "json" {
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Option.Type != "" {
		t, err := option.ParseType(c.Option.Type)
		if err != nil {
			return err
		}
		c.Option.Type = string(t)
	}
	if c.Pricing.RunsMonteCarlo() && c.Simulation.Paths <= 0 {
		return fmt.Errorf("%w: simulation.paths must be positive, got %d", option.ErrDomain, c.Simulation.Paths)
	}
	if c.Smile.Enabled {
		if err := c.Smile.Config().Validate(); err != nil {
			return err
		}
	}
	return c.Market.Params().Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("market.s0", 100)
	v.SetDefault("market.k", 105)
	v.SetDefault("market.t", 1)
	v.SetDefault("market.r", 0.05)
	v.SetDefault("market.sigma", 0.2)

	v.SetDefault("option.type", "")

	v.SetDefault("pricing.method", MethodBoth)

	v.SetDefault("simulation.paths", montecarlo.DefaultPaths)
	v.SetDefault("simulation.seed", 0)

	sc := smile.DefaultConfig()
	v.SetDefault("smile.enabled", false)
	v.SetDefault("smile.strikes", sc.Strikes)
	v.SetDefault("smile.draws", sc.Draws)
	v.SetDefault("smile.vol_of_vol", sc.VolOfVol)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file_path", "logs/pricer.log")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 10)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.with_caller", false)

	v.SetDefault("output.format", "text")
}
