// Package fees resolves the per-unit marketplace fee and VAT a product carries.
package fees

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Schedule holds the fee and VAT lookup tables. Keys are matched case-insensitively.
type Schedule struct {
	// ReferralRates maps category to the referral fee rate (0.15 = 15%)
	ReferralRates       map[string]decimal.Decimal
	DefaultReferralRate decimal.Decimal

	// FixedFeePerUnit is added to every unit (fulfilment, closing fee)
	FixedFeePerUnit decimal.Decimal

	// VATRates maps destination country code to VAT rate (0.19 = 19%)
	VATRates       map[string]decimal.Decimal
	DefaultVATRate decimal.Decimal
}

// DefaultSchedule returns the documented fallback tables
func DefaultSchedule() Schedule {
	return Schedule{
		ReferralRates: map[string]decimal.Decimal{
			"electronics": decimal.RequireFromString("0.07"),
			"computers":   decimal.RequireFromString("0.07"),
			"books":       decimal.RequireFromString("0.15"),
			"home":        decimal.RequireFromString("0.15"),
			"toys":        decimal.RequireFromString("0.15"),
			"beauty":      decimal.RequireFromString("0.08"),
			"clothing":    decimal.RequireFromString("0.15"),
			"jewelry":     decimal.RequireFromString("0.20"),
		},
		DefaultReferralRate: decimal.RequireFromString("0.15"),
		FixedFeePerUnit:     decimal.Zero,
		VATRates: map[string]decimal.Decimal{
			"DE": decimal.RequireFromString("0.19"),
			"FR": decimal.RequireFromString("0.20"),
			"IT": decimal.RequireFromString("0.22"),
			"ES": decimal.RequireFromString("0.21"),
			"NL": decimal.RequireFromString("0.21"),
			"AT": decimal.RequireFromString("0.20"),
			"BE": decimal.RequireFromString("0.21"),
			"PL": decimal.RequireFromString("0.23"),
		},
		DefaultVATRate: decimal.RequireFromString("0.19"),
	}
}

// Resolution reports which lookups fell back to a default rate.
// Fallbacks are expected and never turn into row errors.
type Resolution struct {
	ReferralFee       decimal.Decimal
	VAT               decimal.Decimal
	CategoryDefaulted bool
	CountryDefaulted  bool
}

// Total returns referral fee plus VAT
func (r Resolution) Total() decimal.Decimal {
	return r.ReferralFee.Add(r.VAT)
}

// Resolver computes resolved fees and VAT per unit from a Schedule
type Resolver struct {
	referral map[string]decimal.Decimal
	vat      map[string]decimal.Decimal
	schedule Schedule
}

// NewResolver creates a Resolver over a copy of schedule
func NewResolver(schedule Schedule) *Resolver {
	r := &Resolver{
		referral: make(map[string]decimal.Decimal, len(schedule.ReferralRates)),
		vat:      make(map[string]decimal.Decimal, len(schedule.VATRates)),
		schedule: schedule,
	}
	for category, rate := range schedule.ReferralRates {
		r.referral[normalizeKey(category)] = rate
	}
	for country, rate := range schedule.VATRates {
		r.vat[normalizeKey(country)] = rate
	}
	return r
}

// ResolvePerUnit returns the fee and VAT contained in one unit sold at sellingPrice.
// VAT is assumed to be included in the gross selling price.
func (r *Resolver) ResolvePerUnit(sellingPrice decimal.Decimal, category, country string) Resolution {
	referralRate, ok := r.referral[normalizeKey(category)]
	categoryDefaulted := !ok
	if !ok {
		referralRate = r.schedule.DefaultReferralRate
	}

	vatRate, ok := r.vat[normalizeKey(country)]
	countryDefaulted := !ok
	if !ok {
		vatRate = r.schedule.DefaultVATRate
	}

	vat := sellingPrice.Mul(vatRate).Div(decimal.NewFromInt(1).Add(vatRate))

	return Resolution{
		ReferralFee:       sellingPrice.Mul(referralRate).Add(r.schedule.FixedFeePerUnit),
		VAT:               vat,
		CategoryDefaulted: categoryDefaulted,
		CountryDefaulted:  countryDefaulted,
	}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
