// Package cost converts gas figures into native-currency and fiat estimates
// using externally supplied pricing.
package cost

import (
	"sort"

	"github.com/evmscope/tracegas/analysis"
)

// TopConsumers caps the cost table at the heaviest gas consumers.
const TopConsumers = 5

// weiPerGwei / weiPerNative convert gas prices quoted in gwei into native
// currency units.
const (
	weiPerGwei   = 1e9
	weiPerNative = 1e18
)

// Consumer is one gas-consuming entry (a category or a contract) to price.
type Consumer struct {
	Name    string
	GasUsed uint64
}

// ForGas prices a raw gas amount.
func ForGas(prices analysis.PriceConfig, gas uint64) (native, usd float64) {
	native = float64(gas) * prices.GasPriceGwei * weiPerGwei / weiPerNative
	usd = native * prices.NativeUsdPrice
	return native, usd
}

// Estimate prices the given consumers and returns the TopConsumers most
// expensive, descending by fiat cost. Ties keep input order.
func Estimate(prices analysis.PriceConfig, consumers []Consumer) []analysis.CostEntry {
	entries := make([]analysis.CostEntry, 0, len(consumers))
	for _, c := range consumers {
		native, usd := ForGas(prices, c.GasUsed)
		entries = append(entries, analysis.CostEntry{
			Name:       c.Name,
			GasUsed:    c.GasUsed,
			CostNative: native,
			CostUsd:    usd,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CostUsd > entries[j].CostUsd
	})
	if len(entries) > TopConsumers {
		entries = entries[:TopConsumers]
	}
	return entries
}
