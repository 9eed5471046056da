package patterns

import (
	"sort"

	"github.com/evmscope/tracegas/analysis"
	"github.com/evmscope/tracegas/analysis/cost"
)

// Detector evaluates an immutable pattern table against a profile. Given
// identical inputs the output list and its ordering are always identical:
// patterns are evaluated in table order and ranked with a stable sort.
type Detector struct {
	patterns []Pattern
}

// NewDetector builds a detector over the given table. A nil table means the
// built-in defaults.
func NewDetector(table []Pattern) *Detector {
	if table == nil {
		table = DefaultPatterns()
	}
	return &Detector{patterns: table}
}

// Detect runs every pattern whose gas gate and predicate both pass and
// returns the findings ranked by estimated gas savings descending, ties
// broken by severity ordinal descending, then table order.
func (d *Detector) Detect(profile Profile, prices analysis.PriceConfig) []analysis.OptimizationFinding {
	var findings []analysis.OptimizationFinding
	for _, pat := range d.patterns {
		if profile.TotalGas < pat.GasThreshold {
			continue
		}
		evidence := pat.Detect(profile)
		if len(evidence) == 0 {
			continue
		}

		savings := estimateSavings(pat, profile)
		native, usd := cost.ForGas(prices, savings)
		finding := analysis.OptimizationFinding{
			PatternID: pat.ID,
			Title:     pat.Title,
			Category:  pat.Category,
			Severity:  pat.Severity,
			Savings: analysis.PotentialSavings{
				GasAmount:  savings,
				CostNative: native,
				CostUsd:    usd,
			},
			Evidence:        evidence,
			Recommendations: pat.Recommendations,
		}
		if profile.TotalGas > 0 {
			finding.Savings.Percentage = float64(savings) / float64(profile.TotalGas) * 100
		}
		findings = append(findings, finding)
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Savings.GasAmount != findings[j].Savings.GasAmount {
			return findings[i].Savings.GasAmount > findings[j].Savings.GasAmount
		}
		return findings[i].Severity > findings[j].Severity
	})
	return findings
}

// estimateSavings caps the pattern's static estimate by the share of the
// observed gas a rewrite could realistically capture.
func estimateSavings(pat Pattern, profile Profile) uint64 {
	capped := uint64(float64(pat.SavingsBase(profile)) * SavingsCaptureFactor)
	if pat.StaticSavings < capped {
		return pat.StaticSavings
	}
	return capped
}
