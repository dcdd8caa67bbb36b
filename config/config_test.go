package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/charlerive/optionpricer/option"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	want := option.Params{S0: 100, K: 105, T: 1, R: 0.05, Sigma: 0.2}
	if got := cfg.Market.Params(); got != want {
		t.Fatalf("params = %+v, want %+v", got, want)
	}
	if cfg.Simulation.Paths != 10000 || cfg.Simulation.Seed != 0 {
		t.Fatalf("simulation = %+v", cfg.Simulation)
	}
	if cfg.Pricing.Method != MethodBoth || !cfg.Pricing.RunsAnalytic() || !cfg.Pricing.RunsMonteCarlo() {
		t.Fatalf("pricing = %+v", cfg.Pricing)
	}
	if cfg.Option.Type != "" || cfg.Output.Format != "text" || cfg.Log.Level != "info" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Smile.Enabled || cfg.Smile.Strikes != 50 || cfg.Smile.Draws != 100 {
		t.Fatalf("smile = %+v", cfg.Smile)
	}
	if cfg.Simulation.Source(0) != nil {
		t.Fatal("seed 0 should leave the source to the simulator")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricer.toml")
	content := `
[market]
s0 = 120
sigma = 0.3

[option]
type = "P"

[pricing]
method = "analytic"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Market.S0 != 120 || cfg.Market.Sigma != 0.3 || cfg.Market.K != 105 {
		t.Fatalf("market = %+v", cfg.Market)
	}
	if cfg.Option.Type != "put" {
		t.Fatalf("type not normalized: %q", cfg.Option.Type)
	}
	if cfg.Pricing.RunsMonteCarlo() {
		t.Fatal("analytic only")
	}
}

func TestLoad_ExampleFileMatchesDefaults(t *testing.T) {
	defaults, err := Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	example, err := Load(filepath.Join("..", "pricer.example.toml"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if example.Market != defaults.Market {
		t.Fatalf("example market %+v, defaults %+v", example.Market, defaults.Market)
	}
	if example.Market.T != 1 {
		t.Fatalf("T = %v", example.Market.T)
	}
	if example.Simulation != defaults.Simulation || example.Pricing != defaults.Pricing {
		t.Fatalf("example %+v, defaults %+v", example, defaults)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("PRICER_MARKET_SIGMA", "0.35")
	t.Setenv("PRICER_MARKET_K", "90")
	t.Setenv("PRICER_SIMULATION_SEED", "7")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--k=95", "--type=c", "--paths=500"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("", fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Market.Sigma != 0.35 {
		t.Fatalf("env sigma ignored: %v", cfg.Market.Sigma)
	}
	if cfg.Market.K != 95 {
		t.Fatalf("flag should beat env: K=%v", cfg.Market.K)
	}
	if cfg.Market.S0 != 100 {
		t.Fatalf("unchanged flag overrode default: S0=%v", cfg.Market.S0)
	}
	if cfg.Option.Type != "call" || cfg.Simulation.Paths != 500 || cfg.Simulation.Seed != 7 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Simulation.Source(0) == nil {
		t.Fatal("seeded config should yield a source")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("", nil)
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	cfg := base()
	cfg.Option.Type = "straddle"
	if err := cfg.Validate(); !errors.Is(err, option.ErrInvalidSelection) {
		t.Fatalf("bad type: %v", err)
	}

	cfg = base()
	cfg.Simulation.Paths = 0
	if err := cfg.Validate(); !errors.Is(err, option.ErrDomain) {
		t.Fatalf("zero paths: %v", err)
	}

	cfg = base()
	cfg.Simulation.Paths = 0
	cfg.Pricing.Method = "Analytic"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("paths are irrelevant to analytic pricing: %v", err)
	}

	cfg = base()
	cfg.Pricing.Method = "binomial"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown method accepted")
	}

	cfg = base()
	cfg.Output.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown format accepted")
	}

	cfg = base()
	cfg.Market.T = 0
	if err := cfg.Validate(); !errors.Is(err, option.ErrDomain) {
		t.Fatalf("T=0: %v", err)
	}

	cfg = base()
	cfg.Smile.Enabled = true
	cfg.Smile.Draws = 0
	if err := cfg.Validate(); !errors.Is(err, option.ErrDomain) {
		t.Fatalf("smile draws: %v", err)
	}
}
