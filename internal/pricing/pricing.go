// Package pricing derives the price a customer actually pays from a stored
// product, taking its promotion window into account.
package pricing

import (
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/shopspring/decimal"
)

// Price is the storefront view of a product's pricing. Amounts are rounded
// to two decimals.
type Price struct {
	Regular         decimal.Decimal `json:"regular"`
	Effective       decimal.Decimal `json:"effective"`
	PromoActive     bool            `json:"promoActive"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	PromoEndsAt     *time.Time      `json:"promoEndsAt,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// PromoActive reports whether the promotional price applies at now. A zero
// promotional price never applies, whatever the stored flag says, and
// neither does one that is not below the regular price.
func PromoActive(p *models.Product, now time.Time) bool {
	if p.Pp1Ht <= 0 || p.Pp1Ht >= p.Pv1Ht {
		return false
	}
	if p.D1 != nil && now.Before(*p.D1) {
		return false
	}
	if p.D2 != nil && now.After(*p.D2) {
		return false
	}
	return true
}

// Derive computes the effective price of p at now.
func Derive(p *models.Product, now time.Time) Price {
	regular := decimal.NewFromFloat(p.Pv1Ht).Round(2)
	price := Price{
		Regular:         regular,
		Effective:       regular,
		DiscountPercent: decimal.Zero,
	}

	if !PromoActive(p, now) {
		return price
	}

	promo := decimal.NewFromFloat(p.Pp1Ht).Round(2)
	price.Effective = promo
	price.PromoActive = true
	price.PromoEndsAt = p.D2
	price.DiscountPercent = regular.Sub(promo).Mul(hundred).Div(regular).Round(0)
	return price
}
