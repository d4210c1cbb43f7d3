package findings

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

func buildSummary(findings []entities.Finding, outcomes []productOutcome, aborted bool) entities.Summary {
	summary := entities.NewFindingsResult().Summary
	summary.TotalFindings = len(findings)
	summary.Aborted = aborted

	total := decimal.Zero
	for _, finding := range findings {
		total = total.Add(finding.Impact.AnnualSavingsEUR)
		summary.CountsByPriority[finding.Priority]++
		summary.CountsByEngine[finding.SourceEngine]++
	}
	summary.TotalAnnualOpportunityEUR = total

	for _, outcome := range outcomes {
		if outcome.evaluated {
			summary.ProductsEvaluated++
		} else {
			summary.ProductsSkipped++
		}
	}
	return summary
}
