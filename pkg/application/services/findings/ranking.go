package findings

import (
	"cmp"
	"slices"
	"strings"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

// merge flattens per-product outcomes in input order, keeping the first
// finding for each (product, engine) key
func merge(outcomes []productOutcome) ([]entities.Finding, []entities.RowError) {
	findings := make([]entities.Finding, 0, len(outcomes))
	rowErrors := make([]entities.RowError, 0)
	seen := make(map[entities.FindingKey]struct{}, len(outcomes))

	for _, outcome := range outcomes {
		rowErrors = append(rowErrors, outcome.rowErrors...)
		for _, finding := range outcome.findings {
			key := finding.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			findings = append(findings, finding)
		}
	}
	return findings, rowErrors
}

// compareFindings orders by priority score descending, then annual savings
// descending, then product identifier ascending. Engine order settles the last
// tie so the ordering is total.
func compareFindings(a, b entities.Finding) int {
	if c := cmp.Compare(b.PriorityScore, a.PriorityScore); c != 0 {
		return c
	}
	if c := b.Impact.AnnualSavingsEUR.Cmp(a.Impact.AnnualSavingsEUR); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.ProductID), string(b.ProductID)); c != 0 {
		return c
	}
	return cmp.Compare(a.SourceEngine, b.SourceEngine)
}

// rankFindings sorts findings in place, most important first
func rankFindings(findings []entities.Finding) {
	slices.SortFunc(findings, compareFindings)
}
