package entities

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine identifies the detector that produced a finding
type Engine int

const (
	DeadInventory Engine = iota
	LowMargin
	SlowVelocity
)

// Engines lists every engine in evaluation order
var Engines = []Engine{DeadInventory, LowMargin, SlowVelocity}

// String method for Engine enum
func (e Engine) String() string {
	switch e {
	case DeadInventory:
		return "DeadInventory"
	case LowMargin:
		return "LowMargin"
	case SlowVelocity:
		return "SlowVelocity"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the engine by name, also when used as a map key
func (e Engine) MarshalText() ([]byte, error) {
	if e < DeadInventory || e > SlowVelocity {
		return nil, fmt.Errorf("unknown engine %d", int(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText decodes an engine name
func (e *Engine) UnmarshalText(text []byte) error {
	for _, candidate := range Engines {
		if candidate.String() == string(text) {
			*e = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown engine %q", string(text))
}

// Priority represents the urgency tier of a finding
type Priority int

const (
	Low Priority = iota
	Medium
	High
)

// Priorities lists every tier from most to least important
var Priorities = []Priority{High, Medium, Low}

// String method for Priority enum
func (p Priority) String() string {
	switch p {
	case High:
		return "High"
	case Medium:
		return "Medium"
	case Low:
		return "Low"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the priority by name, also when used as a map key
func (p Priority) MarshalText() ([]byte, error) {
	if p < Low || p > High {
		return nil, fmt.Errorf("unknown priority %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a priority name
func (p *Priority) UnmarshalText(text []byte) error {
	for _, candidate := range Priorities {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown priority %q", string(text))
}

// Impact quantifies the annual money at stake for a finding
type Impact struct {
	AnnualSavingsEUR       decimal.Decimal `json:"annual_savings_eur"`
	CalculationExplanation string          `json:"calculation_explanation"`
}

// Finding represents one detected issue for one product
type Finding struct {
	ID              string    `json:"finding_id"`
	SourceEngine    Engine    `json:"source_engine"`
	ProductID       ProductID `json:"product_identifier"`
	ProblemHeadline string    `json:"problem_headline"`
	Description     string    `json:"description"`
	Impact          Impact    `json:"impact"`
	Actionable      string    `json:"actionable"`
	Priority        Priority  `json:"priority"`
	PriorityScore   float64   `json:"priority_score"`
	Icon            string    `json:"icon"`
}

// FindingKey is the deduplication key of a finding
type FindingKey struct {
	ProductID ProductID
	Engine    Engine
}

// Key returns the deduplication key of the finding
func (f *Finding) Key() FindingKey {
	return FindingKey{ProductID: f.ProductID, Engine: f.SourceEngine}
}

// findingNamespace scopes finding ids so they never collide with other UUIDv5 users
var findingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/vsinha/sellerscope/findings"))

// FindingID derives the stable id of the finding an engine raises for a product.
// Re-running the same batch yields the same ids.
func FindingID(engine Engine, productID ProductID) string {
	return uuid.NewSHA1(findingNamespace, []byte(engine.String()+"/"+string(productID))).String()
}

// NewFinding creates a validated Finding with a deterministic id
func NewFinding(
	engine Engine,
	productID ProductID,
	headline, description, actionable, icon string,
	impact Impact,
	priority Priority,
	score float64,
) (*Finding, error) {
	if productID == "" {
		return nil, fmt.Errorf("product identifier cannot be empty")
	}
	if impact.AnnualSavingsEUR.IsNegative() {
		return nil, fmt.Errorf("annual savings cannot be negative, got %s", impact.AnnualSavingsEUR)
	}
	if band := PriorityForScore(score); band != priority {
		return nil, fmt.Errorf("priority score %.4f belongs to %s band, not %s", score, band, priority)
	}

	return &Finding{
		ID:              FindingID(engine, productID),
		SourceEngine:    engine,
		ProductID:       productID,
		ProblemHeadline: headline,
		Description:     description,
		Impact:          impact,
		Actionable:      actionable,
		Priority:        priority,
		PriorityScore:   score,
		Icon:            icon,
	}, nil
}
