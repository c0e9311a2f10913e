package rules

import (
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

var hundred = decimal.NewFromInt(100)

type RewardResult struct {
	DiscountAmount decimal.Decimal
	FreeProducts   []models.FreeProduct
	FreeShipping   bool
}

// Calculate computes what the offer grants on this cart. Reward contributions
// are summed and the sum is clamped by MaxDiscountAmount, then by the cart
// total, and never goes below zero. Amounts are rounded half-up to 2 places.
func Calculate(offer *models.Offer, cart models.Cart) RewardResult {
	var res RewardResult
	total := cart.Total()
	base := percentBase(offer, cart)
	discount := decimal.Zero

	for _, rw := range offer.Rewards {
		switch v := rw.Value.(type) {
		case models.PercentValue:
			discount = discount.Add(base.Mul(v.Percent).Div(hundred).Round(2))
		case models.AmountValue:
			discount = discount.Add(v.Amount.Round(2))
		case models.FreeProductValue:
			qty := rw.MaxFreeQty
			if qty <= 0 {
				qty = 1
			}
			res.FreeProducts = append(res.FreeProducts, models.FreeProduct{ProductID: v.ProductID, Quantity: qty})
		case models.FreeShippingValue:
			// valued by checkout
			res.FreeShipping = true
		}
	}

	if offer.MaxDiscountAmount != nil && discount.GreaterThan(*offer.MaxDiscountAmount) {
		discount = *offer.MaxDiscountAmount
	}
	if discount.GreaterThan(total) {
		discount = total
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	res.DiscountAmount = discount.Round(2)
	return res
}

// percentBase is the amount percent rewards apply to: the subtotal of the
// eligible categories for category discounts, the whole cart otherwise.
func percentBase(offer *models.Offer, cart models.Cart) decimal.Decimal {
	if offer.Type != models.OfferCategoryDiscount || len(offer.CategoryIDs) == 0 {
		return cart.Total()
	}
	eligible := make(map[string]bool, len(offer.CategoryIDs))
	for _, c := range offer.CategoryIDs {
		eligible[c] = true
	}
	sub := decimal.Zero
	for _, it := range cart.Items {
		if eligible[it.CategoryID] {
			sub = sub.Add(it.LineTotal())
		}
	}
	return sub
}
