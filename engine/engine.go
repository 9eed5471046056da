// Package engine composes the trace aggregators into the unified analysis
// pipeline: validate, aggregate both trace forms, merge into one gas model,
// then score, price and run pattern detection over it. The engine is
// stateless per invocation and never mutates its inputs; it either completes
// or returns an error, partial results are not produced.
package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/evmscope/tracegas/analysis"
	"github.com/evmscope/tracegas/analysis/calltrace"
	"github.com/evmscope/tracegas/analysis/cost"
	"github.com/evmscope/tracegas/analysis/efficiency"
	"github.com/evmscope/tracegas/analysis/patterns"
	"github.com/evmscope/tracegas/analysis/structlog"
)

// Engine runs the analysis pipeline. Construct with New; the zero value is
// not usable.
type Engine struct {
	detector *patterns.Detector
	prices   cost.PriceSource
	logger   log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPatterns replaces the built-in pattern table.
func WithPatterns(table []patterns.Pattern) Option {
	return func(e *Engine) { e.detector = patterns.NewDetector(table) }
}

// WithPriceSource injects the pricing used for cost estimates. Without one,
// all prices are zero and cost columns carry no value; pricing is
// caller-supplied configuration, never a built-in constant.
func WithPriceSource(src cost.PriceSource) Option {
	return func(e *Engine) { e.prices = src }
}

// WithLogger routes structural-inconsistency warnings somewhere specific.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		detector: patterns.NewDetector(nil),
		prices:   cost.Static{},
		logger:   log.Root(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze runs the full pipeline over whichever trace forms the input
// carries. Malformed input is rejected with a *analysis.ValidationError
// listing every violation; degenerate (empty) input yields a zero result.
func (e *Engine) Analyze(ctx context.Context, in analysis.Input) (*analysis.Result, error) {
	if err := analysis.ValidateInput(in); err != nil {
		return nil, err
	}
	if in.Shape() == analysis.ShapeNeither {
		return &analysis.Result{}, nil
	}

	prices, err := e.prices.Prices(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving pricing config: %w", err)
	}

	// The two aggregations are independent; this join is the pipeline's only
	// parallelism boundary.
	var (
		slSum structlog.Summary
		ctSum calltrace.Summary
	)
	g, _ := errgroup.WithContext(ctx)
	if in.StructLog != nil {
		g.Go(func() error {
			slSum = structlog.Aggregate(in.StructLog.Steps)
			return nil
		})
	}
	if in.CallTrace != nil {
		g.Go(func() error {
			ctSum = calltrace.Aggregate(in.CallTrace.CallData, in.CallTrace.Stats.TotalGas)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, w := range ctSum.Warnings {
		e.logger.Warn("call trace structural inconsistency", "detail", w)
	}

	return e.merge(in, prices, slSum, ctSum), nil
}

// merge builds the unified model and fans out to the scorer, the estimator
// and the detector. Category and contract keys are disjoint namespaces;
// each grouping keeps its own percentage denominator (step gas for
// categories, transaction gas for contracts), while totalGasUsed comes from
// the call trace when it carries calls, else the struct log. A present but
// empty call trace must not zero out a total the struct log accounts for.
func (e *Engine) merge(in analysis.Input, prices analysis.PriceConfig, slSum structlog.Summary, ctSum calltrace.Summary) *analysis.Result {
	total := slSum.TotalGas
	if in.CallTrace != nil && len(in.CallTrace.CallData) > 0 {
		total = ctSum.TotalGas
	}

	var callCount int64
	if in.CallTrace != nil {
		callCount = int64(len(in.CallTrace.CallData))
	}

	res := &analysis.Result{
		TotalGasUsed:        total,
		GasBreakdown:        slSum.CategoryTotals,
		ContractAttribution: ctSum.ContractEntries,
		CallHierarchy:       ctSum.Forest,
		ExecutionTimeline:   slSum.Timeline,
		MemoryUsage:         slSum.MemoryUsage,
		Heatmap:             slSum.Heatmap,
		ValueTransfers:      ctSum.ValueTransfers,
		Interactions:        ctSum.Interactions,
		ExecutionStats:      slSum.Stats,
		Warnings:            ctSum.Warnings,
	}

	res.EfficiencyMetrics = efficiency.Score(efficiency.Inputs{
		TotalGas:    total,
		CallCount:   callCount,
		SuccessRate: 100 - ctSum.Interactions.FailureRate,
		StepCount:   slSum.Stats.TotalSteps,
		PeakMemory:  slSum.Stats.PeakMemorySize,
	})

	res.CostAnalysis = cost.Estimate(prices, costConsumers(slSum, ctSum))

	profile := patterns.Profile{
		TotalGas:     total,
		Categories:   slSum.CategoryTotals,
		Contracts:    ctSum.ContractEntries,
		Interactions: ctSum.Interactions,
		CallCount:    callCount,
		StepCount:    slSum.Stats.TotalSteps,
		PeakMemory:   slSum.Stats.PeakMemorySize,
	}
	res.Findings = e.detector.Detect(profile, prices)
	return res
}

// costConsumers picks what the cost table prices: per-contract attribution
// when a call trace is available, per-category totals otherwise.
func costConsumers(slSum structlog.Summary, ctSum calltrace.Summary) []cost.Consumer {
	if len(ctSum.ContractEntries) > 0 {
		out := make([]cost.Consumer, 0, len(ctSum.ContractEntries))
		for _, entry := range ctSum.ContractEntries {
			name := entry.Label
			if name == "" {
				name = entry.Address.Hex()
			}
			out = append(out, cost.Consumer{Name: name, GasUsed: entry.GasUsed})
		}
		return out
	}
	out := make([]cost.Consumer, 0, len(slSum.CategoryTotals))
	for _, ct := range slSum.CategoryTotals {
		out = append(out, cost.Consumer{Name: ct.Category.String(), GasUsed: ct.GasUsed})
	}
	return out
}
