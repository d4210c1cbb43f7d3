package entities

import "github.com/shopspring/decimal"

// AnalysisConfig holds the thresholds and rates every detector reads.
// It is a plain value: build it once and pass it into each evaluation.
type AnalysisConfig struct {
	// TargetMarginPercent is the net margin (0-100) a product should reach
	TargetMarginPercent decimal.Decimal

	// DeadStockAgeThresholdDays is the age above which held stock counts as dead
	DeadStockAgeThresholdDays int

	// CostOfCapitalRate is the annual opportunity-cost rate applied to tied-up capital (0.08 = 8%)
	CostOfCapitalRate decimal.Decimal

	// TargetTurnoverRatio is the expected annual_volume / quantity_on_hand
	TargetTurnoverRatio decimal.Decimal

	// HighImpactEUR and MediumImpactEUR split the euro value driving priority into tiers
	HighImpactEUR   decimal.Decimal
	MediumImpactEUR decimal.Decimal
}

// DefaultAnalysisConfig returns the documented default thresholds
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		TargetMarginPercent:       decimal.NewFromInt(20),
		DeadStockAgeThresholdDays: 90,
		CostOfCapitalRate:         decimal.RequireFromString("0.08"),
		TargetTurnoverRatio:       decimal.NewFromInt(4),
		HighImpactEUR:             decimal.NewFromInt(5000),
		MediumImpactEUR:           decimal.NewFromInt(1000),
	}
}

// NewAnalysisConfig creates a validated AnalysisConfig
func NewAnalysisConfig(
	targetMarginPercent decimal.Decimal,
	deadStockAgeThresholdDays int,
	costOfCapitalRate, targetTurnoverRatio decimal.Decimal,
	highImpactEUR, mediumImpactEUR decimal.Decimal,
) (*AnalysisConfig, error) {
	cfg := AnalysisConfig{
		TargetMarginPercent:       targetMarginPercent,
		DeadStockAgeThresholdDays: deadStockAgeThresholdDays,
		CostOfCapitalRate:         costOfCapitalRate,
		TargetTurnoverRatio:       targetTurnoverRatio,
		HighImpactEUR:             highImpactEUR,
		MediumImpactEUR:           mediumImpactEUR,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every threshold is usable
func (c AnalysisConfig) Validate() error {
	hundred := decimal.NewFromInt(100)

	if !c.TargetMarginPercent.IsPositive() || c.TargetMarginPercent.GreaterThan(hundred) {
		return &ConfigError{Key: "target_margin_percent", Reason: "must be in (0, 100], got " + c.TargetMarginPercent.String()}
	}
	if c.DeadStockAgeThresholdDays < 0 {
		return &ConfigError{Key: "dead_stock_age_threshold_days", Reason: "cannot be negative"}
	}
	if c.CostOfCapitalRate.IsNegative() {
		return &ConfigError{Key: "cost_of_capital_rate", Reason: "cannot be negative, got " + c.CostOfCapitalRate.String()}
	}
	if !c.TargetTurnoverRatio.IsPositive() {
		return &ConfigError{Key: "target_turnover_ratio", Reason: "must be positive, got " + c.TargetTurnoverRatio.String()}
	}
	if !c.MediumImpactEUR.IsPositive() {
		return &ConfigError{Key: "medium_impact_eur", Reason: "must be positive, got " + c.MediumImpactEUR.String()}
	}
	if !c.HighImpactEUR.GreaterThan(c.MediumImpactEUR) {
		return &ConfigError{Key: "high_impact_eur", Reason: "must be greater than medium_impact_eur"}
	}
	return nil
}
