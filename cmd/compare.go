package main

import (
	"github.com/spf13/cobra"

	"github.com/sagecrest/cme-engine/internal/engine"
)

var (
	compareScenario     string
	compareScenarioFile string
	compareOverrides    []string
	compareBaseCurrency string
	compareEquityModel  string
	compareName         string
	compareFormat       string
	compareOutput       string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a stress scenario against the baseline defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := assembleScenario(compareScenario, compareScenarioFile, compareOverrides, compareName)
		if err != nil {
			return err
		}

		base, stress, err := engine.Compare(nil, s.Overrides,
			"Baseline Defaults", s.Name,
			scenarioOptions(s, compareBaseCurrency, compareEquityModel))
		if err != nil {
			return err
		}

		w, err := openOutput(compareOutput)
		if err != nil {
			return err
		}
		defer closeOutput(w)

		if compareFormat == "json" {
			return writeJSON(w, map[string]any{
				"base":   base,
				"stress": stress,
			})
		}
		renderComparison(w, base, stress)
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareScenario, "scenario", "", "preset stress scenario (see 'cme scenarios')")
	compareCmd.Flags().StringVar(&compareScenarioFile, "scenario-file", "", "YAML scenario file")
	compareCmd.Flags().StringArrayVar(&compareOverrides, "override", nil, "override as path=value, repeatable")
	compareCmd.Flags().StringVar(&compareBaseCurrency, "base-currency", "", "base currency: usd or eur (default from config)")
	compareCmd.Flags().StringVar(&compareEquityModel, "equity-model", "", "equity methodology: ra or gk (default from config)")
	compareCmd.Flags().StringVar(&compareName, "name", "", "stress scenario name for the report")
	compareCmd.Flags().StringVar(&compareFormat, "format", "table", "output format: table or json")
	compareCmd.Flags().StringVar(&compareOutput, "output", "", "output file (default stdout)")
	rootCmd.AddCommand(compareCmd)
}
