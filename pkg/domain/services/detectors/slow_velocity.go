package detectors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

// SlowVelocityDetector flags stock that turns over slower than the target ratio
type SlowVelocityDetector struct{}

func (SlowVelocityDetector) sealed() {}

// Engine returns entities.SlowVelocity
func (SlowVelocityDetector) Engine() entities.Engine {
	return entities.SlowVelocity
}

// Evaluate raises a finding when annual_volume / quantity_on_hand is below the target.
// Products with nothing on hand or no recorded sales have no measurable turnover and are skipped.
func (d SlowVelocityDetector) Evaluate(
	product *entities.ProductInput,
	_ time.Time,
	cfg entities.AnalysisConfig,
) (*entities.Finding, error) {
	if err := product.Validate(
		entities.FieldQuantityOnHand,
		entities.FieldAnnualVolume,
		entities.FieldBuyingPrice,
	); err != nil {
		return nil, err
	}

	quantity := product.QuantityOnHand.Quantity
	volume := product.AnnualVolume.Quantity
	if quantity == 0 || volume == 0 {
		return nil, nil
	}

	onHand := decimal.NewFromInt(int64(quantity))
	sold := decimal.NewFromInt(int64(volume))
	turnover := sold.Div(onHand)
	if !turnover.LessThan(cfg.TargetTurnoverRatio) {
		return nil, nil
	}

	// shortfall = 1 - turnover/target = (target*onHand - sold) / (target*onHand)
	expected := cfg.TargetTurnoverRatio.Mul(onHand)
	capital := product.CapitalTiedUp()
	savings := capital.Mul(cfg.CostOfCapitalRate).Mul(expected.Sub(sold)).Div(expected)
	if savings.IsNegative() {
		savings = decimal.Zero
	}
	shortfall := expected.Sub(sold).Div(expected)
	priority, score := Band(capital, cfg)

	impact := entities.Impact{
		AnnualSavingsEUR: savings,
		CalculationExplanation: fmt.Sprintf(
			"%s capital × %s cost of capital × %s turnover shortfall (%s vs %s target) = %s per year",
			euro(capital),
			percent(cfg.CostOfCapitalRate),
			percent(shortfall),
			turnover.StringFixed(2),
			cfg.TargetTurnoverRatio.StringFixed(2),
			euro(savings),
		),
	}

	return entities.NewFinding(
		d.Engine(),
		product.ID,
		fmt.Sprintf("Stock turns %sx a year against a %sx target", turnover.StringFixed(2), cfg.TargetTurnoverRatio.StringFixed(2)),
		fmt.Sprintf(
			"%s sells %d units a year with %d on hand, a turnover of %s. "+
				"The %s held in this stock earns less than it should while it waits to sell.",
			product.ID, volume, quantity, turnover.StringFixed(2), euro(capital),
		),
		"Reduce the reorder quantity to match sales velocity and push the existing stock with advertising or a promotion.",
		"hourglass",
		impact,
		priority,
		score,
	)
}
