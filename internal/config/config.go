package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/tspmeta/internal/annealing/run"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	// Anneal holds the run parameter defaults applied before a parameter
	// file and command-line flags.
	Anneal struct {
		ParamsFile  string  `env:"ANNEAL_PARAMS_FILE"`
		Dist        string  `env:"ANNEAL_DIST" envDefault:"l2"`
		Dim         int     `env:"ANNEAL_DIM" envDefault:"2"`
		TempMax     float64 `env:"ANNEAL_TEMP_MAX" envDefault:"100"`
		TempMin     float64 `env:"ANNEAL_TEMP_MIN" envDefault:"0.5"`
		TempStep    float64 `env:"ANNEAL_TEMP_STEP" envDefault:"0.5"`
		SampleCount int     `env:"ANNEAL_SAMPLE_NUM" envDefault:"10000"`
		Format      string  `env:"ANNEAL_FORMAT" envDefault:"text"`
	}
	Server struct {
		// MaxActiveRuns bounds concurrently running jobs; 0 means no limit.
		MaxActiveRuns int `env:"SERVER_MAX_ACTIVE_RUNS" envDefault:"4"`
		// MaxTowns bounds the towns of a submitted run; 0 means no limit.
		MaxTowns int `env:"SERVER_MAX_TOWNS" envDefault:"5000"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RunParams returns the run parameter defaults, overlaid with the parameter
// file when one is configured.
func (c *Config) RunParams() (run.Params, error) {
	p := run.Params{
		Dist:        c.Anneal.Dist,
		Dim:         c.Anneal.Dim,
		TempMax:     c.Anneal.TempMax,
		TempMin:     c.Anneal.TempMin,
		TempStep:    c.Anneal.TempStep,
		SampleCount: c.Anneal.SampleCount,
	}
	if c.Anneal.ParamsFile == "" {
		return p, nil
	}
	data, err := os.ReadFile(c.Anneal.ParamsFile)
	if err != nil {
		return p, fmt.Errorf("reading parameter file: %w", err)
	}
	if err := p.ParseYAML(data); err != nil {
		return p, err
	}
	return p, nil
}
