package detectors

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

// scoreStep is the resolution of priority scores
const scoreStep = 0.0001

var (
	one         = decimal.NewFromInt(1)
	lowWidth    = decimal.NewFromFloat(entities.MediumBandFloorScore - entities.MinPriorityScore)
	mediumFloor = decimal.NewFromFloat(entities.MediumBandFloorScore)
	mediumWidth = decimal.NewFromFloat(entities.HighBandFloorScore - entities.MediumBandFloorScore)
	highFloor   = decimal.NewFromFloat(entities.HighBandFloorScore)
	highWidth   = decimal.NewFromFloat(entities.MaxPriorityScore - entities.HighBandFloorScore)
)

// Band maps the euro value driving a finding to its priority and score.
//
// Values above HighImpactEUR are High, values above MediumImpactEUR are
// Medium, the rest Low. Inside each band the score grows monotonically with
// the value, so a larger amount never scores below a smaller one.
func Band(value decimal.Decimal, cfg entities.AnalysisConfig) (entities.Priority, float64) {
	if value.IsNegative() {
		value = decimal.Zero
	}

	var (
		priority entities.Priority
		score    decimal.Decimal
	)

	switch {
	case value.GreaterThan(cfg.HighImpactEUR):
		// saturates towards the top of the band: 1 - high/value is in (0, 1)
		fraction := one.Sub(cfg.HighImpactEUR.Div(value))
		priority = entities.High
		score = highFloor.Add(highWidth.Mul(fraction))
	case value.GreaterThan(cfg.MediumImpactEUR):
		fraction := value.Sub(cfg.MediumImpactEUR).Div(cfg.HighImpactEUR.Sub(cfg.MediumImpactEUR))
		priority = entities.Medium
		score = mediumFloor.Add(mediumWidth.Mul(fraction))
	default:
		fraction := value.Div(cfg.MediumImpactEUR)
		priority = entities.Low
		score = lowWidth.Mul(fraction)
	}

	return priority, keepInBand(score.Round(4).InexactFloat64(), priority)
}

// keepInBand nudges a rounded score back inside its band's open lower bound
func keepInBand(score float64, priority entities.Priority) float64 {
	switch priority {
	case entities.High:
		if score <= entities.HighBandFloorScore {
			return entities.HighBandFloorScore + scoreStep
		}
		if score >= entities.MaxPriorityScore {
			return entities.MaxPriorityScore - scoreStep
		}
	case entities.Medium:
		if score <= entities.MediumBandFloorScore {
			return entities.MediumBandFloorScore + scoreStep
		}
	default:
		if score < entities.MinPriorityScore {
			return entities.MinPriorityScore
		}
	}
	return score
}
