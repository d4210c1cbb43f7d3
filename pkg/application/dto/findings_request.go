package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

const dateLayout = "2006-01-02"

// ProductRequest is one product as posted to the findings API.
//
// Every field is kept raw and parsed in ToProductInput, so a value of the
// wrong type only invalidates that field of that product. Numbers may be JSON
// numbers or numeric strings; dates are YYYY-MM-DD or RFC 3339.
type ProductRequest struct {
	Identifier            json.RawMessage `json:"identifier"`
	Category              json.RawMessage `json:"category,omitempty"`
	SellingPrice          json.RawMessage `json:"selling_price"`
	BuyingPrice           json.RawMessage `json:"buying_price"`
	QuantityOnHand        json.RawMessage `json:"quantity_on_hand"`
	AnnualVolume          json.RawMessage `json:"annual_volume"`
	FeesAndVATPerUnit     json.RawMessage `json:"fees_and_vat_per_unit"`
	InventoryPurchaseDate json.RawMessage `json:"inventory_purchase_date,omitempty"`
	Dimensions            json.RawMessage `json:"dimensions,omitempty"`
}

// FindingsRequest is the body of POST /api/v1/findings.
// A missing or null "products" decodes to a nil slice. Elements stay raw so
// that one malformed product does not reject the others.
type FindingsRequest struct {
	ReferenceDate string            `json:"reference_date,omitempty"`
	Country       string            `json:"country,omitempty"`
	Products      []json.RawMessage `json:"products"`
}

// AsOf returns the reference date, or today's UTC date when none was sent
func (r *FindingsRequest) AsOf(now time.Time) (time.Time, error) {
	if strings.TrimSpace(r.ReferenceDate) == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	date, err := parseDate(r.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("reference_date: %w", err)
	}
	return date, nil
}

// ToProducts converts the request into product inputs.
// A nil Products slice stays nil so the aggregator reports it as invalid input.
// An element that is not a JSON object becomes a product with an invalid identifier.
func (r *FindingsRequest) ToProducts() []entities.ProductInput {
	if r.Products == nil {
		return nil
	}

	products := make([]entities.ProductInput, len(r.Products))
	for i, raw := range r.Products {
		var p ProductRequest
		if err := json.Unmarshal(raw, &p); err != nil {
			products[i].MarkInvalid(entities.FieldIdentifier, compact(raw))
			continue
		}
		products[i] = p.ToProductInput()
	}
	return products
}

// ToProductInput converts a single product. Absent or null fields stay absent;
// values that cannot be parsed are marked invalid on the product so only the
// detectors needing them report a row error.
func (p ProductRequest) ToProductInput() entities.ProductInput {
	var product entities.ProductInput

	if !isAbsent(p.Identifier) {
		if id, ok := scalarText(p.Identifier); ok {
			product.ID = entities.ProductID(id)
		} else {
			product.MarkInvalid(entities.FieldIdentifier, compact(p.Identifier))
		}
	}
	if category, ok := scalarText(p.Category); ok {
		product.Category = category
	}

	product.SellingPrice = decodeDecimal(&product, entities.FieldSellingPrice, p.SellingPrice)
	product.BuyingPrice = decodeDecimal(&product, entities.FieldBuyingPrice, p.BuyingPrice)
	product.FeesAndVATPerUnit = decodeDecimal(&product, entities.FieldFeesAndVAT, p.FeesAndVATPerUnit)
	product.QuantityOnHand = decodeQuantity(&product, entities.FieldQuantityOnHand, p.QuantityOnHand)
	product.AnnualVolume = decodeQuantity(&product, entities.FieldAnnualVolume, p.AnnualVolume)

	if !isAbsent(p.InventoryPurchaseDate) {
		raw, ok := scalarText(p.InventoryPurchaseDate)
		switch {
		case !ok:
			product.MarkInvalid(entities.FieldPurchaseDate, compact(p.InventoryPurchaseDate))
		case raw != "":
			if date, err := parseDate(raw); err == nil {
				product.InventoryPurchaseDate = &date
			} else {
				product.MarkInvalid(entities.FieldPurchaseDate, raw)
			}
		}
	}

	// dimensions feed no detector; unreadable ones are dropped
	if !isAbsent(p.Dimensions) {
		var dims entities.Dimensions
		if err := json.Unmarshal(p.Dimensions, &dims); err == nil {
			product.Dimensions = &dims
		}
	}
	return product
}

func decodeDecimal(product *entities.ProductInput, field entities.Field, raw json.RawMessage) decimal.NullDecimal {
	if isAbsent(raw) {
		return decimal.NullDecimal{}
	}
	text, ok := scalarText(raw)
	if !ok {
		product.MarkInvalid(field, compact(raw))
		return decimal.NullDecimal{}
	}
	if text == "" {
		return decimal.NullDecimal{}
	}
	value, err := decimal.NewFromString(text)
	if err != nil {
		product.MarkInvalid(field, text)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(value)
}

// decodeQuantity accepts whole numbers only; 12 and 12.0 are fine, 2.5 is not
func decodeQuantity(product *entities.ProductInput, field entities.Field, raw json.RawMessage) entities.NullQuantity {
	value := decodeDecimal(product, field, raw)
	if !value.Valid {
		return entities.NullQuantity{}
	}
	if !value.Decimal.Equal(value.Decimal.Truncate(0)) {
		product.MarkInvalid(field, value.Decimal.String())
		return entities.NullQuantity{}
	}
	return entities.NewNullQuantity(entities.Quantity(value.Decimal.IntPart()))
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// scalarText returns the trimmed text of a JSON string or number.
// ok is false for null, booleans, objects and arrays.
func scalarText(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", false
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", false
	}
	return n.String(), true
}

func compact(raw json.RawMessage) string {
	return string(bytes.TrimSpace(raw))
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", raw)
}
