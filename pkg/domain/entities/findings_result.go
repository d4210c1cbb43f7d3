package entities

import "github.com/shopspring/decimal"

// Summary aggregates the final findings list
type Summary struct {
	TotalFindings             int              `json:"total_findings"`
	TotalAnnualOpportunityEUR decimal.Decimal  `json:"total_annual_opportunity_eur"`
	CountsByPriority          map[Priority]int `json:"counts_by_priority"`
	CountsByEngine            map[Engine]int   `json:"counts_by_engine"`
	ProductsEvaluated         int              `json:"products_evaluated"`
	ProductsSkipped           int              `json:"products_skipped"`

	// Aborted is set when evaluation was cancelled before every product was submitted
	Aborted bool `json:"aborted"`
}

// FindingsResult is the complete output of one evaluation
type FindingsResult struct {
	Findings   []Finding   `json:"findings"`
	Summary    Summary     `json:"summary"`
	RowErrors  []RowError  `json:"row_errors"`
	BatchError *BatchError `json:"batch_error,omitempty"`
}

// NewFindingsResult returns an empty result with zeroed tallies for every priority and engine
func NewFindingsResult() *FindingsResult {
	summary := Summary{
		TotalAnnualOpportunityEUR: decimal.Zero,
		CountsByPriority:          make(map[Priority]int, len(Priorities)),
		CountsByEngine:            make(map[Engine]int, len(Engines)),
	}
	for _, p := range Priorities {
		summary.CountsByPriority[p] = 0
	}
	for _, e := range Engines {
		summary.CountsByEngine[e] = 0
	}

	return &FindingsResult{
		Findings:  []Finding{},
		Summary:   summary,
		RowErrors: []RowError{},
	}
}
