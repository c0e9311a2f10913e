package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type FreeProduct struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OfferEvaluation is the outcome of evaluating one offer against one cart.
type OfferEvaluation struct {
	OfferID        int64           `json:"offer_id"`
	OfferName      string          `json:"offer_name"`
	Priority       int             `json:"priority"`
	CreatedAt      time.Time       `json:"-"`
	Applicable     bool            `json:"applicable"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FreeProducts   []FreeProduct   `json:"free_products,omitempty"`
	FreeShipping   bool            `json:"free_shipping,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Code           string          `json:"code,omitempty"`
}
