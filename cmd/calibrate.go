package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sagecrest/cme-engine/internal/calibrate"
	"github.com/sagecrest/cme-engine/internal/engine"
)

var (
	calibrateFormat string
	calibrateApply  bool
	calibrateName   string
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate <series-file>",
	Short: "Derive override values from historical input series",
	Long: `Reads a YAML file of historical series and suggests current-input
override values: EWMA-smoothed levels for rate series, log-linear trend
growth for level series. With --apply the suggestions are fed straight
into a scenario run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := calibrate.LoadSeriesFile(args[0])
		if err != nil {
			return err
		}

		suggestions, err := calibrate.Suggest(f)
		if err != nil {
			return err
		}
		zap.L().Info("calibration complete",
			zap.String("file", args[0]),
			zap.Int("series", len(suggestions)))

		w := cmd.OutOrStdout()

		if calibrateApply {
			eng, err := engine.New(calibrate.Overrides(suggestions), engineOptions("", ""))
			if err != nil {
				return err
			}
			result, err := eng.ComputeAll(calibrateName)
			if err != nil {
				return err
			}
			return writeResult(w, result, calibrateFormat, true, false)
		}

		if calibrateFormat == "json" {
			return writeJSON(w, suggestions)
		}

		fmt.Fprintf(w, "%-45s %-8s %-10s %-10s\n", "Override Path", "Method", "Value", "Previous")
		fmt.Fprintln(w, strings.Repeat("-", 76))
		for _, s := range suggestions {
			fmt.Fprintf(w, "%-45s %-8s %-10s %-10s\n",
				s.Path, s.Method, formatPercent(s.Value), formatPercent(s.Previous))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Equivalent flags:")
		for _, s := range suggestions {
			fmt.Fprintf(w, "  --override %s=%s\n", s.Path, strconv.FormatFloat(s.Value, 'g', 8, 64))
		}
		return nil
	},
}

func init() {
	calibrateCmd.Flags().StringVar(&calibrateFormat, "format", "table", "output format: table or json")
	calibrateCmd.Flags().BoolVar(&calibrateApply, "apply", false, "run a scenario with the calibrated overrides")
	calibrateCmd.Flags().StringVar(&calibrateName, "name", "Calibrated Inputs", "scenario name when using --apply")
	rootCmd.AddCommand(calibrateCmd)
}
