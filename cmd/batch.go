package main

import (
	"context"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sagecrest/cme-engine/internal/engine"
	"github.com/sagecrest/cme-engine/internal/scenario"
)

var (
	batchBaseCurrency string
	batchEquityModel  string
	batchFormat       string
	batchOutput       string
)

var batchCmd = &cobra.Command{
	Use:   "batch <scenario-file>...",
	Short: "Compute multiple scenarios from YAML files",
	Long: `Runs each scenario file on its own engine instance, bounded by
batch.max_concurrent_scenarios. Results are emitted in argument order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		results, err := runBatch(ctx, args, cfg.Batch.MaxConcurrentScenarios,
			engineOptions(batchBaseCurrency, batchEquityModel))
		if err != nil {
			return err
		}

		w, err := openOutput(batchOutput)
		if err != nil {
			return err
		}
		defer closeOutput(w)

		if batchFormat == "json" {
			return writeJSON(w, results)
		}
		for _, result := range results {
			renderTable(w, result, true, false)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchBaseCurrency, "base-currency", "", "base currency: usd or eur (default from config)")
	batchCmd.Flags().StringVar(&batchEquityModel, "equity-model", "", "equity methodology: ra or gk (default from config)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "table", "output format: table or json")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "output file (default stdout)")
	rootCmd.AddCommand(batchCmd)
}

// runBatch computes each scenario file on an independent engine instance.
// Concurrency is safe because engines share nothing.
func runBatch(ctx context.Context, files []string, maxConcurrent int, opts engine.Options) ([]*engine.ScenarioResult, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	type indexed struct {
		order  int
		result *engine.ScenarioResult
	}

	var mu sync.Mutex
	var results []indexed

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			s, err := scenario.LoadFile(file)
			if err != nil {
				return err
			}

			// A file's pinned currency or model beats the shared options.
			fileOpts := opts
			if s.BaseCurrency != "" {
				fileOpts.BaseCurrency = s.BaseCurrency
			}
			if s.EquityModel != "" {
				fileOpts.EquityModel = s.EquityModel
			}

			eng, err := engine.New(s.Overrides, fileOpts)
			if err != nil {
				return err
			}
			result, err := eng.ComputeAll(s.Name)
			if err != nil {
				return err
			}

			zap.L().Info("batch: scenario done",
				zap.String("file", file),
				zap.String("scenario", s.Name),
			)

			mu.Lock()
			results = append(results, indexed{order: i, result: result})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(a, b int) bool { return results[a].order < results[b].order })
	out := make([]*engine.ScenarioResult, len(results))
	for i, r := range results {
		out[i] = r.result
	}
	return out, nil
}
