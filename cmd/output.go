package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/engine"
)

var printer = message.NewPrinter(language.English)

func formatPercent(v float64) string {
	return printer.Sprintf("%.2f%%", v*100)
}

// openOutput returns the writer for --output, defaulting to stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "create output %s", path)
	}
	return f, nil
}

func closeOutput(w io.WriteCloser) {
	if w != os.Stdout {
		_ = w.Close()
	}
}

// writeResult renders one scenario result in the requested format.
func writeResult(w io.Writer, result *engine.ScenarioResult, format string, showComponents, showSources bool) error {
	switch format {
	case "table":
		renderTable(w, result, showComponents, showSources)
		return nil
	case "json":
		return writeJSON(w, result)
	case "csv":
		return writeCSV(w, result)
	}
	return eris.Errorf("unknown output format %q (table, json, csv)", format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode json")
	}
	return nil
}

func writeCSV(w io.Writer, result *engine.ScenarioResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"asset_class", "key", "expected_return_nominal", "expected_return_real", "expected_volatility",
	}); err != nil {
		return eris.Wrap(err, "write csv header")
	}

	for _, asset := range catalog.Assets {
		r := result.Asset(asset)
		if r == nil {
			continue
		}
		row := []string{
			r.Asset,
			string(r.Key),
			strconv.FormatFloat(r.NominalReturn, 'f', 6, 64),
			strconv.FormatFloat(r.RealReturn, 'f', 6, 64),
			strconv.FormatFloat(r.Volatility, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "flush csv")
}

func renderTable(w io.Writer, result *engine.ScenarioResult, showComponents, showSources bool) {
	line := strings.Repeat("=", 80)
	rule := strings.Repeat("-", 50)

	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Capital Market Expectations: %s\n", result.ScenarioName)
	fmt.Fprintf(w, "Base currency: %s | Equity model: %s | Horizon: %d years\n",
		strings.ToUpper(result.BaseCurrency), result.EquityModel, result.HorizonYears)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-25s %-12s %-12s %-10s\n", "Asset Class", "Nominal", "Real", "Vol")
	fmt.Fprintln(w, rule)

	for _, asset := range catalog.Assets {
		r := result.Asset(asset)
		if r == nil {
			continue
		}
		fmt.Fprintf(w, "%-25s %-12s %-12s %-10s\n",
			r.Asset,
			formatPercent(r.NominalReturn),
			formatPercent(r.RealReturn),
			formatPercent(r.Volatility))

		if showComponents {
			for _, name := range sortedKeys(r.Components) {
				fmt.Fprintf(w, "  - %-21s %s\n", name, formatPercent(r.Components[name]))
			}
		}
		if showSources {
			for _, name := range sortedKeys(r.MacroDependencies) {
				dep := r.MacroDependencies[name]
				fmt.Fprintf(w, "  * %s = %s [%s] %s\n",
					dep.MacroInput, formatPercent(dep.ValueUsed), dep.Source, dep.Impact)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Macro Assumptions:")
	for _, region := range catalog.Regions {
		summary, ok := result.MacroSummary[region]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %s:\n", strings.ToUpper(string(region)))
		fmt.Fprintf(w, "    rgdp_growth: %s\n", formatPercent(summary.RGDPGrowth))
		fmt.Fprintf(w, "    inflation: %s\n", formatPercent(summary.Inflation))
		fmt.Fprintf(w, "    tbill_rate: %s\n", formatPercent(summary.TBillRate))
	}
	fmt.Fprintf(w, "  GLOBAL:\n    rgdp_growth: %s\n", formatPercent(result.GlobalRGDPGrowth))

	if len(result.FXForecasts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "FX Forecasts (vs base currency):")
		for _, ccy := range sortedKeys(result.FXForecasts) {
			f := result.FXForecasts[ccy]
			fmt.Fprintf(w, "  %s: %s (carry %s, ppp %s)\n",
				strings.ToUpper(ccy), formatPercent(f.Change), formatPercent(f.Carry), formatPercent(f.PPP))
		}
	}

	if overrides := flattenOverrides("", result.OverridesApplied); len(overrides) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Overrides Applied:")
		for _, o := range overrides {
			fmt.Fprintf(w, "  %s: %v\n", o.path, o.value)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
}

func renderComparison(w io.Writer, base, stress *engine.ScenarioResult) {
	line := strings.Repeat("=", 90)

	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "Capital Market Expectations Comparison")
	fmt.Fprintf(w, "Base: %s vs Stress: %s\n", base.ScenarioName, stress.ScenarioName)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-25s %-12s %-12s %-10s %-12s %-12s\n",
		"Asset Class", "Base Nom", "Stress Nom", "Diff", "Base Real", "Stress Real")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, asset := range catalog.Assets {
		b, s := base.Asset(asset), stress.Asset(asset)
		if b == nil || s == nil {
			continue
		}

		diff := s.NominalReturn - b.NominalReturn
		diffStr := formatPercent(diff)
		if diff > 0 {
			diffStr = "+" + diffStr
		}

		fmt.Fprintf(w, "%-25s %-12s %-12s %-10s %-12s %-12s\n",
			b.Asset,
			formatPercent(b.NominalReturn),
			formatPercent(s.NominalReturn),
			diffStr,
			formatPercent(b.RealReturn),
			formatPercent(s.RealReturn))
	}

	if overrides := flattenOverrides("", stress.OverridesApplied); len(overrides) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Stress Scenario Overrides:")
		for _, o := range overrides {
			fmt.Fprintf(w, "  %s: %v\n", o.path, o.value)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
}

type flatOverride struct {
	path  string
	value any
}

// flattenOverrides converts a nested override structure into sorted dotted
// paths for display.
func flattenOverrides(prefix string, m map[string]any) []flatOverride {
	var out []flatOverride
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			out = append(out, flattenOverrides(path, sub)...)
			continue
		}
		out = append(out, flatOverride{path: path, value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
