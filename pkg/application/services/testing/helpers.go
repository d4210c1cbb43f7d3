package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

// ReferenceDate is the fixed evaluation date used across tests
var ReferenceDate = time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)

// DaysBefore returns a pointer to the date n days before ref
func DaysBefore(ref time.Time, n int) *time.Time {
	d := ref.AddDate(0, 0, -n)
	return &d
}

// Dec parses a decimal literal, panicking on malformed input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// MustCreateProduct is a helper for tests - panics on validation error
func MustCreateProduct(
	id string,
	sellingPrice, buyingPrice string,
	quantityOnHand, annualVolume entities.Quantity,
	feesAndVAT string,
	purchaseDate *time.Time,
) entities.ProductInput {
	product, err := entities.NewProductInput(
		entities.ProductID(id),
		"electronics",
		Dec(sellingPrice),
		Dec(buyingPrice),
		quantityOnHand,
		annualVolume,
		Dec(feesAndVAT),
		purchaseDate,
	)
	if err != nil {
		panic(err)
	}
	return *product
}

// TestConfig returns thresholds with round numbers that make expected values easy to compute
func TestConfig() entities.AnalysisConfig {
	return entities.AnalysisConfig{
		TargetMarginPercent:       decimal.NewFromInt(10),
		DeadStockAgeThresholdDays: 90,
		CostOfCapitalRate:         Dec("0.08"),
		TargetTurnoverRatio:       decimal.NewFromInt(4),
		HighImpactEUR:             decimal.NewFromInt(5000),
		MediumImpactEUR:           decimal.NewFromInt(1000),
	}
}

// BuildMixedPortfolio creates a portfolio exercising every detector plus
// healthy products that should raise nothing
func BuildMixedPortfolio() []entities.ProductInput {
	ref := ReferenceDate
	return []entities.ProductInput{
		// dead + slow: 200 days old, 100 on hand, 50 sold/year
		MustCreateProduct("B00DEAD001", "30", "10", 100, 50, "5", DaysBefore(ref, 200)),
		// low margin: 6.25% margin
		MustCreateProduct("B00THIN002", "48", "20", 10, 400, "25", DaysBefore(ref, 10)),
		// healthy: fresh stock, good margin, fast turnover
		MustCreateProduct("B00GOOD003", "40", "15", 20, 500, "8", DaysBefore(ref, 20)),
		// large dead stock, no sales yet
		MustCreateProduct("B00BULK004", "25", "12", 2000, 0, "5", DaysBefore(ref, 365)),
		// no purchase date, slow turnover
		MustCreateProduct("B00SLOW005", "60", "30", 300, 100, "10", nil),
	}
}
