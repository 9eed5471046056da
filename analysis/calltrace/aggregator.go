// Package calltrace reconstructs the call forest from flat trace-address
// paths and derives per-contract gas attribution, value transfers and
// interaction statistics.
package calltrace

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/evmscope/tracegas/analysis"
)

// Summary is the derived output of one call-trace aggregation pass.
type Summary struct {
	TotalGas        uint64
	ContractEntries []analysis.ContractGasEntry
	Forest          []*analysis.CallNode
	ValueTransfers  []analysis.ValueTransfer
	SuccessRates    map[common.Address]float64
	Interactions    analysis.InteractionSummary
	// Warnings records recoverable structural inconsistencies (unresolvable
	// parents); the affected records are kept as additional roots.
	Warnings []string
}

// pathKey renders a trace address as a dotted path; the root key is "".
func pathKey(traceAddress []int) string {
	if len(traceAddress) == 0 {
		return ""
	}
	var b strings.Builder
	for i, elem := range traceAddress {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(elem))
	}
	return b.String()
}

func parentKey(traceAddress []int) string {
	return pathKey(traceAddress[:len(traceAddress)-1])
}

// node is one arena slot. Children hold arena indices, not pointers, so the
// forest is linked through the index map and materialized once at the end.
type node struct {
	record   int
	children []int
}

// Aggregate reconstructs the call forest and derives the contract-level
// aggregates. totalGasHint is the upstream-declared transaction gas; when
// zero the roots' gas (which already covers their subtrees) is used instead.
// The input records are read-only; the result may legitimately contain
// multiple roots.
func Aggregate(calls []analysis.CallRecord, totalGasHint int64) Summary {
	s := Summary{SuccessRates: map[common.Address]float64{}}
	if len(calls) == 0 {
		return s
	}

	arena := make([]node, len(calls))
	index := make(map[string]int, len(calls))
	ids := make(map[string]struct{}, len(calls))
	for i, call := range calls {
		arena[i] = node{record: i}
		if call.ID != "" {
			ids[call.ID] = struct{}{}
		}
		key := pathKey(call.TraceAddress)
		if _, dup := index[key]; dup {
			s.Warnings = append(s.Warnings,
				fmt.Sprintf("call %s: duplicate trace address %q, treated as additional root", call.ID, key))
			continue
		}
		index[key] = i
	}

	var roots []int
	for i, call := range calls {
		if idx, ok := index[pathKey(call.TraceAddress)]; ok && idx != i {
			// Duplicate trace address, already warned above.
			roots = append(roots, i)
			continue
		}
		if len(call.TraceAddress) == 0 {
			roots = append(roots, i)
			continue
		}
		if call.ParentID != "" {
			if _, ok := ids[call.ParentID]; !ok {
				s.Warnings = append(s.Warnings,
					fmt.Sprintf("call %s: parent id %q not present in trace, treated as additional root", call.ID, call.ParentID))
				roots = append(roots, i)
				continue
			}
		}
		parent, ok := index[parentKey(call.TraceAddress)]
		if !ok {
			s.Warnings = append(s.Warnings,
				fmt.Sprintf("call %s: no parent at trace address %q, treated as additional root", call.ID, parentKey(call.TraceAddress)))
			roots = append(roots, i)
			continue
		}
		arena[parent].children = append(arena[parent].children, i)
	}

	s.Forest = make([]*analysis.CallNode, 0, len(roots))
	for _, root := range roots {
		s.Forest = append(s.Forest, materialize(calls, arena, root))
	}

	s.TotalGas = uint64(totalGasHint)
	if totalGasHint <= 0 {
		s.TotalGas = rootGas(calls, roots)
	}
	s.aggregateContracts(calls)
	s.collectTransfers(calls)
	s.summarizeInteractions(calls)
	return s
}

// materialize converts an arena subtree into the serializable node form.
// Children keep record order, which follows the trailing trace-address index
// for well-formed traces.
func materialize(calls []analysis.CallRecord, arena []node, i int) *analysis.CallNode {
	n := &analysis.CallNode{Call: calls[arena[i].record]}
	for _, child := range arena[i].children {
		n.Children = append(n.Children, materialize(calls, arena, child))
	}
	return n
}

// rootGas sums the root frames' gas, which already covers their subtrees.
// Summing every record would double-count nested call gas.
func rootGas(calls []analysis.CallRecord, roots []int) uint64 {
	var total uint64
	for _, root := range roots {
		total += uint64(calls[root].GasUsed)
	}
	return total
}

func (s *Summary) aggregateContracts(calls []analysis.CallRecord) {
	type acc struct {
		gas     uint64
		count   int64
		success int64
		label   string
		order   int
	}
	perContract := make(map[common.Address]*acc, 8)
	for i, call := range calls {
		a := perContract[call.To]
		if a == nil {
			a = &acc{order: i}
			perContract[call.To] = a
		}
		a.gas += uint64(call.GasUsed)
		a.count++
		if call.Success {
			a.success++
		}
		if a.label == "" {
			a.label = call.ContractLabel
		}
	}

	s.ContractEntries = make([]analysis.ContractGasEntry, 0, len(perContract))
	for addr, a := range perContract {
		entry := analysis.ContractGasEntry{
			Address:   addr,
			Label:     a.label,
			GasUsed:   a.gas,
			CallCount: a.count,
		}
		if s.TotalGas > 0 {
			entry.Percentage = float64(a.gas) / float64(s.TotalGas) * 100
		}
		if a.count > 0 {
			entry.SuccessRate = float64(a.success) / float64(a.count) * 100
		}
		s.ContractEntries = append(s.ContractEntries, entry)
		s.SuccessRates[addr] = entry.SuccessRate
	}
	sort.SliceStable(s.ContractEntries, func(i, j int) bool {
		if s.ContractEntries[i].GasUsed != s.ContractEntries[j].GasUsed {
			return s.ContractEntries[i].GasUsed > s.ContractEntries[j].GasUsed
		}
		return perContract[s.ContractEntries[i].Address].order < perContract[s.ContractEntries[j].Address].order
	})
}

func (s *Summary) collectTransfers(calls []analysis.CallRecord) {
	for _, call := range calls {
		if call.Value == nil || call.Value.IsZero() {
			continue
		}
		s.ValueTransfers = append(s.ValueTransfers, analysis.ValueTransfer{
			CallID: call.ID,
			From:   call.From,
			To:     call.To,
			Value:  call.Value.Clone(),
		})
	}
	sort.SliceStable(s.ValueTransfers, func(i, j int) bool {
		return s.ValueTransfers[i].Value.Cmp(s.ValueTransfers[j].Value) > 0
	})
}

func (s *Summary) summarizeInteractions(calls []analysis.CallRecord) {
	type counter struct {
		count int64
		order int
	}
	perContract := make(map[common.Address]*counter, 8)
	var depthSum int64
	var failed int64
	for i, call := range calls {
		c := perContract[call.To]
		if c == nil {
			c = &counter{order: i}
			perContract[call.To] = c
		}
		c.count++
		depthSum += int64(len(call.TraceAddress))
		if !call.Success {
			failed++
		}
	}

	var most common.Address
	var mostCount int64
	var mostOrder int
	for addr, c := range perContract {
		if c.count > mostCount || (c.count == mostCount && c.order < mostOrder) {
			most = addr
			mostCount = c.count
			mostOrder = c.order
		}
	}

	n := float64(len(calls))
	avgDepth := float64(depthSum) / n
	s.Interactions = analysis.InteractionSummary{
		UniqueContracts: len(perContract),
		MostCalled:      most,
		MostCalledCount: mostCount,
		AvgCallDepth:    avgDepth,
		FailureRate:     float64(failed) / n * 100,
		ComplexityScore: float64(len(perContract))*avgDepth + float64(failed),
	}
}
