// Package detectors holds the fixed set of portfolio detectors. Each one looks
// at a single product and raises at most one finding for it.
package detectors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

// Detector evaluates one product against the analysis thresholds.
//
// A nil finding with a nil error means the detector is inapplicable or found
// nothing. A *entities.ValidationError means the product lacks a field the
// detector needs; the caller records it and carries on with the next detector.
type Detector interface {
	Engine() entities.Engine
	Evaluate(
		product *entities.ProductInput,
		asOf time.Time,
		cfg entities.AnalysisConfig,
	) (*entities.Finding, error)

	sealed()
}

// All returns every detector in engine order
func All() []Detector {
	return []Detector{
		DeadInventoryDetector{},
		LowMarginDetector{},
		SlowVelocityDetector{},
	}
}

// ForEngine returns the detector implementing engine
func ForEngine(engine entities.Engine) (Detector, error) {
	for _, d := range All() {
		if d.Engine() == engine {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no detector for engine %s", engine)
}

var hundred = decimal.NewFromInt(100)

func euro(d decimal.Decimal) string {
	return "€" + d.StringFixed(2)
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(hundred).StringFixed(2) + "%"
}
