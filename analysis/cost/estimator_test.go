package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmscope/tracegas/analysis"
)

var prices = analysis.PriceConfig{GasPriceGwei: 20, NativeUsdPrice: 2000}

func TestForGas(t *testing.T) {
	// 100k gas at 20 gwei = 0.002 native; at $2000 = $4.
	native, usd := ForGas(prices, 100_000)
	assert.InDelta(t, 0.002, native, 1e-12)
	assert.InDelta(t, 4.0, usd, 1e-9)
}

func TestForGasZeroPricing(t *testing.T) {
	native, usd := ForGas(analysis.PriceConfig{}, 100_000)
	require.Zero(t, native)
	require.Zero(t, usd)
}

func TestEstimateSortsAndTruncates(t *testing.T) {
	consumers := []Consumer{
		{Name: "a", GasUsed: 100},
		{Name: "b", GasUsed: 700},
		{Name: "c", GasUsed: 300},
		{Name: "d", GasUsed: 900},
		{Name: "e", GasUsed: 500},
		{Name: "f", GasUsed: 200},
		{Name: "g", GasUsed: 400},
	}
	entries := Estimate(prices, consumers)
	require.Len(t, entries, TopConsumers)
	require.Equal(t, []string{"d", "b", "e", "g", "c"}, names(entries))
	for i := 1; i < len(entries); i++ {
		require.GreaterOrEqual(t, entries[i-1].CostUsd, entries[i].CostUsd)
	}
}

func TestEstimateTiesKeepInputOrder(t *testing.T) {
	entries := Estimate(prices, []Consumer{
		{Name: "first", GasUsed: 100},
		{Name: "second", GasUsed: 100},
	})
	require.Equal(t, []string{"first", "second"}, names(entries))
}

func TestEstimateEmpty(t *testing.T) {
	require.Empty(t, Estimate(prices, nil))
}

func names(entries []analysis.CostEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
