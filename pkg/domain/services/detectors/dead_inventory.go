package detectors

import (
	"fmt"
	"time"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

// DeadInventoryDetector flags capital trapped in stock held past the age threshold
type DeadInventoryDetector struct{}

func (DeadInventoryDetector) sealed() {}

// Engine returns entities.DeadInventory
func (DeadInventoryDetector) Engine() entities.Engine {
	return entities.DeadInventory
}

// Evaluate raises a finding when the stock is older than the threshold and some is still on hand.
// Products without a purchase date are skipped; no age is ever assumed.
func (d DeadInventoryDetector) Evaluate(
	product *entities.ProductInput,
	asOf time.Time,
	cfg entities.AnalysisConfig,
) (*entities.Finding, error) {
	if err := product.Validate(entities.FieldPurchaseDate); err != nil {
		return nil, err
	}

	ageDays, ok := product.AgeDays(asOf)
	if !ok || ageDays <= cfg.DeadStockAgeThresholdDays {
		return nil, nil
	}

	if err := product.Validate(entities.FieldQuantityOnHand, entities.FieldBuyingPrice); err != nil {
		return nil, err
	}

	quantity := product.QuantityOnHand.Quantity
	if quantity == 0 {
		return nil, nil
	}

	capital := product.CapitalTiedUp()
	savings := capital.Mul(cfg.CostOfCapitalRate)
	priority, score := Band(capital, cfg)

	impact := entities.Impact{
		AnnualSavingsEUR: savings,
		CalculationExplanation: fmt.Sprintf(
			"%d units × %s buying price × %s cost of capital = %s per year",
			quantity,
			euro(product.BuyingPrice.Decimal),
			percent(cfg.CostOfCapitalRate),
			euro(savings),
		),
	}

	return entities.NewFinding(
		d.Engine(),
		product.ID,
		fmt.Sprintf("%s ties up capital in %d-day-old stock", euro(capital), ageDays),
		fmt.Sprintf(
			"%d units of %s were bought %d days ago, past the %d-day dead stock threshold. "+
				"They hold %s of capital that could be redeployed, costing %s per year at %s.",
			quantity, product.ID, ageDays, cfg.DeadStockAgeThresholdDays,
			euro(capital), euro(savings), percent(cfg.CostOfCapitalRate),
		),
		"Clear the aged stock with a markdown, bundle or liquidation sale and stop reordering until it sells through.",
		"package-x",
		impact,
		priority,
		score,
	)
}
