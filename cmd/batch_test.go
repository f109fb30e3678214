package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagecrest/cme-engine/internal/catalog"
	"github.com/sagecrest/cme-engine/internal/engine"
)

func writeScenarioFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()

	first := writeScenarioFile(t, dir, "inflation.yaml", `name: Inflation Shock
overrides:
  macro:
    us:
      inflation_forecast: 0.045
`)
	second := writeScenarioFile(t, dir, "base.yaml", `name: Base Case
overrides: {}
`)
	third := writeScenarioFile(t, dir, "eur.yaml", `name: EUR View
base_currency: eur
overrides: {}
`)

	results, err := runBatch(context.Background(), []string{first, second, third}, 2, engine.Options{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Argument order is preserved regardless of completion order.
	assert.Equal(t, "Inflation Shock", results[0].ScenarioName)
	assert.Equal(t, "Base Case", results[1].ScenarioName)

	// A file-pinned base currency beats the shared options.
	assert.Equal(t, "usd", results[1].BaseCurrency)
	assert.Equal(t, "eur", results[2].BaseCurrency)

	assert.Equal(t, 0.045, results[0].MacroSummary[catalog.RegionUS].Inflation)
	assert.NotEqual(t,
		results[0].MacroSummary[catalog.RegionUS].Inflation,
		results[1].MacroSummary[catalog.RegionUS].Inflation)
}

func TestRunBatch_BadFile(t *testing.T) {
	_, err := runBatch(context.Background(), []string{"/nonexistent.yaml"}, 1, engine.Options{})
	require.Error(t, err)
}

func TestRunBatch_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeScenarioFile(t, dir, "base.yaml", "name: Base Case\noverrides: {}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runBatch(ctx, []string{path}, 1, engine.Options{})
	require.Error(t, err)
}
