package detectors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

// LowMarginDetector flags products whose net margin per unit is below target.
// Fees and VAT arrive already resolved on the product.
type LowMarginDetector struct{}

func (LowMarginDetector) sealed() {}

// Engine returns entities.LowMargin
func (LowMarginDetector) Engine() entities.Engine {
	return entities.LowMargin
}

// Evaluate raises a finding when the net margin is strictly below the target margin
func (d LowMarginDetector) Evaluate(
	product *entities.ProductInput,
	_ time.Time,
	cfg entities.AnalysisConfig,
) (*entities.Finding, error) {
	if err := product.Validate(
		entities.FieldSellingPrice,
		entities.FieldBuyingPrice,
		entities.FieldFeesAndVAT,
		entities.FieldAnnualVolume,
	); err != nil {
		return nil, err
	}

	sellingPrice := product.SellingPrice.Decimal
	if sellingPrice.IsZero() {
		return nil, nil
	}

	netProfit := sellingPrice.Sub(product.BuyingPrice.Decimal).Sub(product.FeesAndVATPerUnit.Decimal)
	marginPercent := netProfit.Mul(hundred).Div(sellingPrice)
	if !marginPercent.LessThan(cfg.TargetMarginPercent) {
		return nil, nil
	}

	volume := product.AnnualVolume.Quantity
	targetProfit := sellingPrice.Mul(cfg.TargetMarginPercent).Div(hundred)
	gapPerUnit := targetProfit.Sub(netProfit)
	savings := gapPerUnit.Mul(decimal.NewFromInt(int64(volume)))
	if savings.IsNegative() {
		savings = decimal.Zero
	}
	priority, score := Band(savings, cfg)

	impact := entities.Impact{
		AnnualSavingsEUR: savings,
		CalculationExplanation: fmt.Sprintf(
			"%d units/year × (%s target profit at %s%% margin − %s current profit) = %s per year",
			volume,
			euro(targetProfit),
			cfg.TargetMarginPercent.StringFixed(2),
			euro(netProfit),
			euro(savings),
		),
	}

	return entities.NewFinding(
		d.Engine(),
		product.ID,
		fmt.Sprintf("Margin of %s%% is below the %s%% target", marginPercent.StringFixed(2), cfg.TargetMarginPercent.StringFixed(2)),
		fmt.Sprintf(
			"%s sells at %s and costs %s plus %s in fees and VAT, leaving %s net profit per unit (%s%%). "+
				"Reaching the target margin would add %s per unit across %d units a year.",
			product.ID, euro(sellingPrice), euro(product.BuyingPrice.Decimal), euro(product.FeesAndVATPerUnit.Decimal),
			euro(netProfit), marginPercent.StringFixed(2), euro(gapPerUnit), volume,
		),
		"Raise the price, renegotiate the purchase cost or move to a cheaper fulfilment option to restore the target margin.",
		"trending-down",
		impact,
		priority,
		score,
	)
}
