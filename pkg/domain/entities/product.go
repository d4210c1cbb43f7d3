package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductID represents a unique product identifier within one batch (ASIN, SKU, ...)
type ProductID string

// Quantity represents an integer unit count
type Quantity int64

// NullQuantity is a Quantity that may be absent from the input row
type NullQuantity struct {
	Quantity Quantity
	Valid    bool
}

// NewNullQuantity returns a present quantity
func NewNullQuantity(q Quantity) NullQuantity {
	return NullQuantity{Quantity: q, Valid: true}
}

// MarshalJSON encodes an absent quantity as null
func (q NullQuantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(int64(q.Quantity))
}

// UnmarshalJSON accepts an integer or null
func (q *NullQuantity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*q = NullQuantity{}
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("quantity must be an integer: %w", err)
	}
	*q = NewNullQuantity(Quantity(v))
	return nil
}

// Field names a ProductInput field that detectors may require
type Field string

const (
	FieldIdentifier     Field = "identifier"
	FieldSellingPrice   Field = "selling_price"
	FieldBuyingPrice    Field = "buying_price"
	FieldQuantityOnHand Field = "quantity_on_hand"
	FieldAnnualVolume   Field = "annual_volume"
	FieldFeesAndVAT     Field = "fees_and_vat_per_unit"
	FieldPurchaseDate   Field = "inventory_purchase_date"
)

// Dimensions holds the optional physical attributes used by fee and eligibility collaborators
type Dimensions struct {
	WeightKg decimal.Decimal `json:"weight_kg"`
	LengthCm decimal.Decimal `json:"length_cm"`
	WidthCm  decimal.Decimal `json:"width_cm"`
	HeightCm decimal.Decimal `json:"height_cm"`
}

// ProductInput represents one portfolio line item.
//
// Numeric fields are nullable so that a row with a missing value can still be
// evaluated by the detectors that do not need it. Presence and sign are checked
// by Validate, which every detector calls with the fields it depends on.
type ProductInput struct {
	ID                    ProductID           `json:"identifier"`
	Category              string              `json:"category,omitempty"`
	SellingPrice          decimal.NullDecimal `json:"selling_price"`
	BuyingPrice           decimal.NullDecimal `json:"buying_price"`
	QuantityOnHand        NullQuantity        `json:"quantity_on_hand"`
	AnnualVolume          NullQuantity        `json:"annual_volume"`
	FeesAndVATPerUnit     decimal.NullDecimal `json:"fees_and_vat_per_unit"`
	InventoryPurchaseDate *time.Time          `json:"inventory_purchase_date,omitempty"`
	Dimensions            *Dimensions         `json:"dimensions,omitempty"`

	// SourceLine is the 1-based line of the row in an uploaded file, 0 when unknown
	SourceLine int `json:"-"`

	// invalid holds raw values that were supplied but could not be parsed
	invalid map[Field]string
}

// NewProductInput creates a ProductInput with every numeric field present and validated
func NewProductInput(
	id ProductID,
	category string,
	sellingPrice, buyingPrice decimal.Decimal,
	quantityOnHand, annualVolume Quantity,
	feesAndVATPerUnit decimal.Decimal,
	purchaseDate *time.Time,
) (*ProductInput, error) {
	p := &ProductInput{
		ID:                    id,
		Category:              category,
		SellingPrice:          decimal.NewNullDecimal(sellingPrice),
		BuyingPrice:           decimal.NewNullDecimal(buyingPrice),
		QuantityOnHand:        NewNullQuantity(quantityOnHand),
		AnnualVolume:          NewNullQuantity(annualVolume),
		FeesAndVATPerUnit:     decimal.NewNullDecimal(feesAndVATPerUnit),
		InventoryPurchaseDate: purchaseDate,
	}

	if err := p.Validate(
		FieldIdentifier,
		FieldSellingPrice,
		FieldBuyingPrice,
		FieldQuantityOnHand,
		FieldAnnualVolume,
		FieldFeesAndVAT,
	); err != nil {
		return nil, err
	}

	return p, nil
}

// MarkInvalid records that field was supplied as raw but could not be parsed.
// Validate reports it for every detector that needs the field.
func (p *ProductInput) MarkInvalid(field Field, raw string) {
	if p.invalid == nil {
		p.invalid = make(map[Field]string)
	}
	p.invalid[field] = raw
}

// IsInvalid reports whether field was supplied but could not be parsed
func (p *ProductInput) IsInvalid(field Field) bool {
	_, bad := p.invalid[field]
	return bad
}

// Validate checks that each requested field is present and non-negative.
// The purchase date is optional and only fails when it was supplied unparsable.
// The first failing field is reported as a *ValidationError.
func (p *ProductInput) Validate(fields ...Field) error {
	for _, field := range fields {
		if raw, bad := p.invalid[field]; bad {
			return &ValidationError{Field: field, Reason: ReasonInvalid, Value: raw}
		}

		switch field {
		case FieldPurchaseDate:
			continue
		case FieldIdentifier:
			if p.ID == "" {
				return &ValidationError{Field: field, Reason: ReasonMissing}
			}
		case FieldSellingPrice:
			if err := checkDecimal(field, p.SellingPrice); err != nil {
				return err
			}
		case FieldBuyingPrice:
			if err := checkDecimal(field, p.BuyingPrice); err != nil {
				return err
			}
		case FieldFeesAndVAT:
			if err := checkDecimal(field, p.FeesAndVATPerUnit); err != nil {
				return err
			}
		case FieldQuantityOnHand:
			if err := checkQuantity(field, p.QuantityOnHand); err != nil {
				return err
			}
		case FieldAnnualVolume:
			if err := checkQuantity(field, p.AnnualVolume); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown product field: %s", field)
		}
	}
	return nil
}

func checkDecimal(field Field, v decimal.NullDecimal) error {
	if !v.Valid {
		return &ValidationError{Field: field, Reason: ReasonMissing}
	}
	if v.Decimal.IsNegative() {
		return &ValidationError{Field: field, Reason: ReasonNegative, Value: v.Decimal.String()}
	}
	return nil
}

func checkQuantity(field Field, v NullQuantity) error {
	if !v.Valid {
		return &ValidationError{Field: field, Reason: ReasonMissing}
	}
	if v.Quantity < 0 {
		return &ValidationError{Field: field, Reason: ReasonNegative, Value: fmt.Sprintf("%d", v.Quantity)}
	}
	return nil
}

// CapitalTiedUp returns quantity_on_hand × buying_price. Callers must have validated both fields.
func (p *ProductInput) CapitalTiedUp() decimal.Decimal {
	return decimal.NewFromInt(int64(p.QuantityOnHand.Quantity)).Mul(p.BuyingPrice.Decimal)
}

// AgeDays returns the number of calendar days between the purchase date and asOf.
// ok is false when the product has no purchase date.
func (p *ProductInput) AgeDays(asOf time.Time) (days int, ok bool) {
	if p.InventoryPurchaseDate == nil {
		return 0, false
	}
	return calendarDaysBetween(*p.InventoryPurchaseDate, asOf), true
}

func calendarDaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
