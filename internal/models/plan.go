package models

import (
	"time"

	"github.com/google/uuid"
)

// Card types a plan can offer
const (
	CardTypePhysical = "physical"
	CardTypeDigital  = "digital"
	CardTypeNFC      = "NFC"
)

// Billing currencies accepted at purchase time
const (
	CurrencyRupees = "rupees"
	CurrencyDollar = "dollar"
)

// ValidCardType reports whether the given card type is one of the
// supported values.
func ValidCardType(cardType string) bool {
	return cardType == CardTypePhysical || cardType == CardTypeDigital || cardType == CardTypeNFC
}

type Plan struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	DurationDays int       `json:"duration_days" db:"duration_days"`
	PriceRupees  float64   `json:"price_rupees" db:"price_rupees"`
	PriceDollars float64   `json:"price_dollars" db:"price_dollars"`
	CardTypes    []string  `json:"card_types" db:"card_types"`
	Features     []string  `json:"features" db:"features"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PriceFor returns the plan price in the requested billing currency.
func (p *Plan) PriceFor(currency string) (float64, bool) {
	switch currency {
	case CurrencyRupees:
		return p.PriceRupees, true
	case CurrencyDollar:
		return p.PriceDollars, true
	default:
		return 0, false
	}
}

// OffersCardType reports whether the plan's catalog includes cardType.
func (p *Plan) OffersCardType(cardType string) bool {
	for _, ct := range p.CardTypes {
		if ct == cardType {
			return true
		}
	}
	return false
}

// PlanSummary is the redacted plan view returned alongside a purchase.
type PlanSummary struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	DurationDays int      `json:"duration_days"`
	Features     []string `json:"features"`
}

// Summary returns the redacted view of the plan.
func (p *Plan) Summary() PlanSummary {
	return PlanSummary{
		Title:        p.Title,
		Description:  p.Description,
		DurationDays: p.DurationDays,
		Features:     p.Features,
	}
}
