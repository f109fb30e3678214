package main

import (
	"github.com/spf13/cobra"

	"github.com/sagecrest/cme-engine/internal/engine"
	"github.com/sagecrest/cme-engine/internal/scenario"
)

var (
	runScenario     string
	runScenarioFile string
	runOverrides    []string
	runBaseCurrency string
	runEquityModel  string
	runName         string
	runFormat       string
	runOutput       string
	runComponents   bool
	runSources      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute expected returns for one scenario",
	Long: `Computes expected returns for all asset classes under a single scenario.

The scenario's overrides come from, in increasing precedence:
a preset (--scenario), a scenario file (--scenario-file), and
individual --override path=value flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := assembleScenario(runScenario, runScenarioFile, runOverrides, runName)
		if err != nil {
			return err
		}

		eng, err := engine.New(s.Overrides, scenarioOptions(s, runBaseCurrency, runEquityModel))
		if err != nil {
			return err
		}

		result, err := eng.ComputeAll(s.Name)
		if err != nil {
			return err
		}

		w, err := openOutput(runOutput)
		if err != nil {
			return err
		}
		defer closeOutput(w)

		return writeResult(w, result, runFormat, runComponents, runSources)
	},
}

func init() {
	runCmd.Flags().StringVar(&runScenario, "scenario", "", "preset stress scenario (see 'cme scenarios')")
	runCmd.Flags().StringVar(&runScenarioFile, "scenario-file", "", "YAML scenario file")
	runCmd.Flags().StringArrayVar(&runOverrides, "override", nil, "override as path=value, repeatable (e.g. macro.us.inflation_forecast=0.045)")
	runCmd.Flags().StringVar(&runBaseCurrency, "base-currency", "", "base currency: usd or eur (default from config)")
	runCmd.Flags().StringVar(&runEquityModel, "equity-model", "", "equity methodology: ra or gk (default from config)")
	runCmd.Flags().StringVar(&runName, "name", "", "scenario name for the report")
	runCmd.Flags().StringVar(&runFormat, "format", "table", "output format: table, json, or csv")
	runCmd.Flags().StringVar(&runOutput, "output", "", "output file (default stdout)")
	runCmd.Flags().BoolVar(&runComponents, "components", true, "show the component breakdown")
	runCmd.Flags().BoolVar(&runSources, "sources", false, "show macro dependencies and provenance")
	rootCmd.AddCommand(runCmd)
}

// engineOptions merges config defaults with explicit flag values.
func engineOptions(baseCurrency, equityModel string) engine.Options {
	opts := engine.Options{
		BaseCurrency: cfg.Engine.BaseCurrency,
		EquityModel:  cfg.Engine.EquityModel,
		HorizonYears: cfg.Engine.HorizonYears,
	}
	if baseCurrency != "" {
		opts.BaseCurrency = baseCurrency
	}
	if equityModel != "" {
		opts.EquityModel = equityModel
	}
	return opts
}

// scenarioOptions layers a scenario file's pinned currency and model
// between the config defaults and explicit flags.
func scenarioOptions(s scenario.Scenario, baseCurrencyFlag, equityModelFlag string) engine.Options {
	baseCurrency := baseCurrencyFlag
	if baseCurrency == "" {
		baseCurrency = s.BaseCurrency
	}
	equityModel := equityModelFlag
	if equityModel == "" {
		equityModel = s.EquityModel
	}
	return engineOptions(baseCurrency, equityModel)
}

// assembleScenario builds the final scenario from a preset, a scenario
// file, and ad-hoc override flags, in increasing precedence.
func assembleScenario(preset, file string, overrideFlags []string, explicitName string) (scenario.Scenario, error) {
	out := scenario.Scenario{Name: "Base Case"}
	var layers []map[string]any

	if preset != "" {
		s, err := scenario.Preset(preset)
		if err != nil {
			return scenario.Scenario{}, err
		}
		out.Name = s.Name
		layers = append(layers, s.Overrides)
	}

	if file != "" {
		s, err := scenario.LoadFile(file)
		if err != nil {
			return scenario.Scenario{}, err
		}
		out.Name = s.Name
		out.BaseCurrency = s.BaseCurrency
		out.EquityModel = s.EquityModel
		layers = append(layers, s.Overrides)
	}

	for _, flag := range overrideFlags {
		o, err := scenario.ParseOverride(flag)
		if err != nil {
			return scenario.Scenario{}, err
		}
		layers = append(layers, o)
	}
	if len(overrideFlags) > 0 && preset == "" && file == "" {
		out.Name = "Custom Scenario"
	}

	if explicitName != "" {
		out.Name = explicitName
	}

	if len(layers) > 0 {
		out.Overrides = scenario.MergeOverrides(layers...)
	}
	return out, nil
}
