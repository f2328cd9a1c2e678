package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/tspmeta/internal/annealing/run"
	"github.com/copyleftdev/tspmeta/internal/config"
)

func newRunCmd(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	var (
		p         run.Params
		paramFile string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one annealing schedule and print a line per temperature",
		Long: `
Prints "<temperature> <mean energy> <mean-square energy>" for every level, from
the highest temperature down. Energies are normalized by towns * box size.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if paramFile != "" {
				cfg.Anneal.ParamsFile = paramFile
			}
			params, err := cfg.RunParams()
			if err != nil {
				return err
			}
			for _, req := range requiredParams {
				if cmd.Flags().Changed(req.flag) || params.InFile(req.key) {
					continue
				}
				if cfg.Anneal.ParamsFile == "" {
					return fmt.Errorf("required flag %q not set", req.flag)
				}
				return fmt.Errorf("required flag %q not set and %q missing from %s", req.flag, req.key, cfg.Anneal.ParamsFile)
			}
			overlayFlags(cmd, &params, p)

			r, err := run.New(params, logger)
			if err != nil {
				return err
			}
			w, err := run.NewWriter(cmd.OutOrStdout(), format)
			if err != nil {
				return err
			}
			return errors.Join(r.Execute(cmd.Context(), w), w.Flush())
		},
	}

	f := cmd.Flags()
	f.Uint64VarP(&p.Seed, "seed", "s", 0, "random number seed (required)")
	f.IntVarP(&p.Towns, "towns", "t", 0, "number of towns (required)")
	f.Float64VarP(&p.BoxSize, "box-size", "l", 0, "side of the box towns are placed in (required)")
	f.StringVarP(&p.Dist, "dist", "d", cfg.Anneal.Dist, "distance definition: l1, l2, l2sq, linf")
	f.IntVarP(&p.Dim, "dim", "i", cfg.Anneal.Dim, "dimension of town positions")
	f.Float64VarP(&p.TempMax, "temp-max", "M", cfg.Anneal.TempMax, "maximum temperature")
	f.Float64VarP(&p.TempMin, "temp-min", "m", cfg.Anneal.TempMin, "minimum temperature")
	f.Float64VarP(&p.TempStep, "temp-step", "p", cfg.Anneal.TempStep, "temperature change step")
	f.IntVarP(&p.SampleCount, "sample-num", "c", cfg.Anneal.SampleCount, "sweeps per temperature")
	f.StringVar(&paramFile, "params", cfg.Anneal.ParamsFile, "YAML file of run parameters; flags override it")
	f.StringVar(&format, "format", cfg.Anneal.Format, "output format: text or json")

	return cmd
}

// requiredParams maps the flags without a default to their parameter file keys.
var requiredParams = []struct{ flag, key string }{
	{"seed", "seed"},
	{"towns", "towns"},
	{"box-size", "box_size"},
}

// overlayFlags copies every flag set on the command line from flags onto p.
func overlayFlags(cmd *cobra.Command, p *run.Params, flags run.Params) {
	set := cmd.Flags().Changed
	if set("seed") {
		p.Seed = flags.Seed
	}
	if set("towns") {
		p.Towns = flags.Towns
	}
	if set("box-size") {
		p.BoxSize = flags.BoxSize
	}
	if set("dist") {
		p.Dist = flags.Dist
	}
	if set("dim") {
		p.Dim = flags.Dim
	}
	if set("temp-max") {
		p.TempMax = flags.TempMax
	}
	if set("temp-min") {
		p.TempMin = flags.TempMin
	}
	if set("temp-step") {
		p.TempStep = flags.TempStep
	}
	if set("sample-num") {
		p.SampleCount = flags.SampleCount
	}
}
