package calltrace

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmscope/tracegas/analysis"
)

var (
	addrRouter = common.HexToAddress("0x1111111111111111111111111111111111111111")
	addrToken  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	addrVault  = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func call(id string, trace []int, to common.Address, gas int64) analysis.CallRecord {
	return analysis.CallRecord{
		ID:           id,
		TraceAddress: trace,
		From:         addrRouter,
		To:           to,
		Type:         "CALL",
		GasUsed:      gas,
		Success:      true,
	}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil, 0)
	require.Zero(t, s.TotalGas)
	require.Empty(t, s.Forest)
	require.Empty(t, s.ContractEntries)
	require.Empty(t, s.Warnings)
}

func TestForestReconstruction(t *testing.T) {
	calls := []analysis.CallRecord{
		call("root", nil, addrRouter, 100000),
		call("c0", []int{0}, addrToken, 40000),
		call("c1", []int{1}, addrVault, 30000),
		call("c0-0", []int{0, 0}, addrVault, 10000),
	}
	s := Aggregate(calls, 0)

	require.Len(t, s.Forest, 1)
	root := s.Forest[0]
	require.Equal(t, "root", root.Call.ID)
	require.Len(t, root.Children, 2)
	require.Equal(t, "c0", root.Children[0].Call.ID)
	require.Equal(t, "c1", root.Children[1].Call.ID)
	require.Len(t, root.Children[0].Children, 1)
	require.Equal(t, "c0-0", root.Children[0].Children[0].Call.ID)
	require.Empty(t, s.Warnings)

	// Total gas comes from the root frame, which covers its subtree.
	require.EqualValues(t, 100000, s.TotalGas)
}

// A child whose parent id cannot be resolved becomes an additional root with
// a warning; the record is never dropped and the condition is never fatal.
func TestOrphanedParentBecomesRoot(t *testing.T) {
	calls := []analysis.CallRecord{
		call("root", nil, addrRouter, 50000),
		{ID: "orphan", ParentID: "missing", TraceAddress: []int{0}, To: addrToken, GasUsed: 10000, Success: true},
	}
	s := Aggregate(calls, 0)

	require.Len(t, s.Forest, 2)
	require.Len(t, s.Warnings, 1)
	require.Contains(t, s.Warnings[0], "missing")
}

func TestMissingPathParentBecomesRoot(t *testing.T) {
	calls := []analysis.CallRecord{
		call("root", nil, addrRouter, 50000),
		call("deep", []int{3, 1}, addrToken, 10000), // no node at [3]
	}
	s := Aggregate(calls, 0)

	require.Len(t, s.Forest, 2)
	require.Len(t, s.Warnings, 1)
}

func TestGasAttribution(t *testing.T) {
	calls := []analysis.CallRecord{
		call("root", nil, addrRouter, 100000),
		call("c0", []int{0}, addrToken, 30000),
		call("c1", []int{1}, addrToken, 10000),
		{ID: "c2", TraceAddress: []int{2}, To: addrVault, GasUsed: 20000, Success: false, Error: "reverted"},
	}
	s := Aggregate(calls, 0)

	require.Len(t, s.ContractEntries, 3)
	// Descending by gas.
	require.Equal(t, addrRouter, s.ContractEntries[0].Address)
	require.Equal(t, addrToken, s.ContractEntries[1].Address)
	require.Equal(t, addrVault, s.ContractEntries[2].Address)

	token := s.ContractEntries[1]
	require.EqualValues(t, 40000, token.GasUsed)
	require.EqualValues(t, 2, token.CallCount)
	assert.InDelta(t, 40.0, token.Percentage, 1e-9)
	assert.InDelta(t, 100.0, token.SuccessRate, 1e-9)

	require.Zero(t, s.ContractEntries[2].SuccessRate)
	assert.InDelta(t, 100.0, s.SuccessRates[addrRouter], 1e-9)
}

func TestTotalGasHintWins(t *testing.T) {
	calls := []analysis.CallRecord{call("root", nil, addrRouter, 80000)}
	s := Aggregate(calls, 100000)
	require.EqualValues(t, 100000, s.TotalGas)
	assert.InDelta(t, 80.0, s.ContractEntries[0].Percentage, 1e-9)
}

func TestValueTransfersSortedDescending(t *testing.T) {
	calls := []analysis.CallRecord{
		call("root", nil, addrRouter, 50000),
		call("c0", []int{0}, addrToken, 10000),
		call("c1", []int{1}, addrVault, 10000),
	}
	calls[1].Value = uint256.NewInt(500)
	calls[2].Value = uint256.NewInt(2500)
	calls[0].Value = uint256.NewInt(0) // zero transfers are filtered

	s := Aggregate(calls, 0)
	require.Len(t, s.ValueTransfers, 2)
	require.Equal(t, "c1", s.ValueTransfers[0].CallID)
	require.Equal(t, "c0", s.ValueTransfers[1].CallID)
	require.Equal(t, uint256.NewInt(2500), s.ValueTransfers[0].Value)
}

func TestInteractionSummary(t *testing.T) {
	calls := []analysis.CallRecord{
		call("root", nil, addrRouter, 100000),
		call("c0", []int{0}, addrToken, 30000),
		call("c1", []int{1}, addrToken, 10000),
		{ID: "c2", TraceAddress: []int{2}, To: addrVault, GasUsed: 5000, Success: false, Error: "reverted"},
	}
	s := Aggregate(calls, 0)

	in := s.Interactions
	require.Equal(t, 3, in.UniqueContracts)
	require.Equal(t, addrToken, in.MostCalled)
	require.EqualValues(t, 2, in.MostCalledCount)
	assert.InDelta(t, 0.75, in.AvgCallDepth, 1e-9) // depths 0,1,1,1
	assert.InDelta(t, 25.0, in.FailureRate, 1e-9)
	assert.InDelta(t, 3*0.75+1, in.ComplexityScore, 1e-9)
}

func TestMostCalledTieKeepsFirstEncountered(t *testing.T) {
	calls := []analysis.CallRecord{
		call("root", nil, addrVault, 10000),
		call("c0", []int{0}, addrToken, 5000),
	}
	s := Aggregate(calls, 0)
	require.Equal(t, addrVault, s.Interactions.MostCalled)
}

func TestDuplicateTraceAddress(t *testing.T) {
	calls := []analysis.CallRecord{
		call("root", nil, addrRouter, 50000),
		call("a", []int{0}, addrToken, 10000),
		call("b", []int{0}, addrVault, 5000),
	}
	s := Aggregate(calls, 0)
	// The duplicate is kept as an extra root rather than silently dropped.
	require.Len(t, s.Forest, 2)
	require.Len(t, s.Warnings, 1)
	require.Contains(t, s.Warnings[0], "duplicate")
}

func TestPathKey(t *testing.T) {
	require.Equal(t, "", pathKey(nil))
	require.Equal(t, "0", pathKey([]int{0}))
	require.Equal(t, "0.1.12", pathKey([]int{0, 1, 12}))
	require.Equal(t, "0.1", parentKey([]int{0, 1, 12}))
}
