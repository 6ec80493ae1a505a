package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("pricing:\n  lattice_steps: 40\nmarket:\n  quotes_file: \"\"\n  chain_file: \"\"\n"), 0o600))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestRateCmd(t *testing.T) {
	out, err := run(t, "rate", "--years", "1")
	require.NoError(t, err)
	assert.Equal(t, "rate at 1 years: 4.0500%\n", out)
}

func TestPriceCmd(t *testing.T) {
	out, err := run(t, "price", "--ticker", "SPY", "--spot", "100", "--rate", "0.05", "--days", "365",
		"--strike", "100", "--iv", "0.2", "--type", "call")
	require.NoError(t, err)
	// zero carry is a 5% yield against the 5% rate
	assert.Contains(t, out, "SPY Call 100 (black_scholes): ")

	_, err = run(t, "price", "--ticker", "SPY", "--days", "30", "--strike", "100", "--iv", "0.2")
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestGreeksCmd_Binomial(t *testing.T) {
	out, err := run(t, "greeks", "--ticker", "SPY", "--spot", "100", "--days", "90",
		"--strike", "95", "--iv", "0.3", "--type", "put", "--model", "binomial", "--style", "american")
	require.NoError(t, err)
	assert.Contains(t, out, "Greeks of SPY Put 95 (binomial)")
	assert.Contains(t, out, "Delta")
}

func TestScenarioCmd(t *testing.T) {
	out, err := run(t, "scenario", "straddle", "--ticker", "QQQ", "--spot", "500", "--days", "45",
		"--direction", "short", "--strikes", "500,500", "--prices", "18,17", "--ivs", "0.22,0.24")
	require.NoError(t, err)
	assert.Contains(t, out, "PnL of Short Straddle for QQQ")
	assert.Contains(t, out, "palette")
	assert.Contains(t, out, "Greeks of Short Straddle")

	_, err = run(t, "scenario", "butterfly", "--spot", "500", "--strikes", "480,500", "--prices", "1,2", "--ivs", "0.2,0.2")
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestLegQuotes(t *testing.T) {
	quotes, err := legQuotes(2, []float64{90, 110}, []float64{3, 1}, []float64{0.2, 0.25})
	require.NoError(t, err)
	assert.Equal(t, 110.0, quotes[1].Strike)
	assert.Equal(t, 0.25, quotes[1].ImpliedVol)

	_, err = legQuotes(2, []float64{90}, []float64{3, 1}, []float64{0.2, 0.25})
	assert.True(t, apperrors.IsInvalidInput(err))
}
