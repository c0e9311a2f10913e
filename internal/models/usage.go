package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferUsage is the immutable ledger row written per redemption.
type OfferUsage struct {
	ID             int64           `json:"id"`
	OfferID        int64           `json:"offer_id"`
	CustomerID     string          `json:"customer_id,omitempty"`
	OrderID        string          `json:"order_id"`
	OfferCodeID    *int64          `json:"offer_code_id,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	UsedAt         time.Time       `json:"used_at"`
}

// Redemption is everything the store needs to apply one redemption inside a
// single transaction.
type Redemption struct {
	OfferID        int64
	CustomerID     string
	OrderID        string
	OfferCodeID    *int64
	DiscountAmount decimal.Decimal
	// CustomerLimit is the effective per-customer cap (offer and code caps
	// combined). nil means unlimited.
	CustomerLimit *int
	UsedAt        time.Time
}
