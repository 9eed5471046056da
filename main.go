package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/evmscope/tracegas/analysis"
	"github.com/evmscope/tracegas/analysis/cost"
	"github.com/evmscope/tracegas/engine"
)

func main() {
	log.SetDefault(log.NewLogger(log.NewTerminalHandler(os.Stderr, false)))

	app := &cli.App{
		Name:      "tracegas",
		Usage:     "analyze Ethereum execution traces for gas attribution and optimization findings",
		ArgsUsage: "TRACE_BUNDLE_JSON...",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "gas-price-gwei",
				Usage: "gas price used for cost estimates, in gwei",
			},
			&cli.Float64Flag{
				Name:  "native-usd-price",
				Usage: "native currency price in USD used for cost estimates",
			},
			&cli.DurationFlag{
				Name:  "pricing-ttl",
				Usage: "how long the pricing configuration is cached",
				Value: cost.DefaultPricingTTL,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "number of concurrent trace processors",
				Value: runtime.NumCPU(),
			},
			&cli.StringFlag{
				Name:  "out-dir",
				Usage: "directory for per-trace JSON results (omit to skip)",
			},
			&cli.StringFlag{
				Name:  "findings-csv",
				Usage: "path of the findings summary CSV",
				Value: "findings.csv",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error("tracegas failed", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("no trace bundle files given")
	}

	prices := cost.NewCached(cost.Static{Config: analysis.PriceConfig{
		GasPriceGwei:   c.Float64("gas-price-gwei"),
		NativeUsdPrice: c.Float64("native-usd-price"),
	}}, c.Duration("pricing-ttl"))
	eng := engine.New(engine.WithPriceSource(prices))

	outDir := c.String("out-dir")
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	csvFile, err := os.OpenFile(c.String("findings-csv"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening findings csv: %w", err)
	}
	defer csvFile.Close()
	csvWriter := csv.NewWriter(csvFile)
	defer csvWriter.Flush()
	if err := csvWriter.Write([]string{"trace", "total_gas", "pattern", "severity", "savings_gas", "savings_pct", "savings_usd"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	// Splice the files across the workers: each worker owns a contiguous
	// slice and streams results into one channel.
	numWorkers := c.Int("workers")
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}
	results := make(chan traceResult, len(paths))
	sliceSize := len(paths) / numWorkers
	for i := 0; i < numWorkers; i++ {
		if i == numWorkers-1 {
			go processFiles(c.Context, eng, paths[i*sliceSize:], results)
		} else {
			go processFiles(c.Context, eng, paths[i*sliceSize:(i+1)*sliceSize], results)
		}
	}

	start := time.Now()
	var failed int
	for i := 0; i < len(paths); i++ {
		res := <-results
		if res.err != nil {
			failed++
			log.Warn("trace analysis failed", "trace", res.path, "err", res.err)
			continue
		}
		for _, finding := range res.result.Findings {
			row := []string{
				filepath.Base(res.path),
				strconv.FormatUint(res.result.TotalGasUsed, 10),
				finding.PatternID,
				finding.Severity.String(),
				strconv.FormatUint(finding.Savings.GasAmount, 10),
				strconv.FormatFloat(finding.Savings.Percentage, 'f', 2, 64),
				strconv.FormatFloat(finding.Savings.CostUsd, 'f', 4, 64),
			}
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("writing csv row: %w", err)
			}
		}
		if outDir != "" {
			if err := writeResult(outDir, res.path, res.result); err != nil {
				return err
			}
		}
	}
	log.Info("batch done", "traces", len(paths), "failed", failed, "took", time.Since(start))
	return nil
}

func writeResult(outDir, tracePath string, result *analysis.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result for %s: %w", tracePath, err)
	}
	name := filepath.Base(tracePath) + ".analysis.json"
	if err := os.WriteFile(filepath.Join(outDir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing result for %s: %w", tracePath, err)
	}
	return nil
}
