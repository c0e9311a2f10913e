package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferType string

const (
	OfferPercentage       OfferType = "percentage"
	OfferFlat             OfferType = "flat"
	OfferBOGO             OfferType = "bogo"
	OfferFreeProduct      OfferType = "free_product"
	OfferBundle           OfferType = "bundle"
	OfferCategoryDiscount OfferType = "category_discount"
)

type OfferStatus string

const (
	StatusActive   OfferStatus = "active"
	StatusInactive OfferStatus = "inactive"
)

// Offer is read-only to the engine. CurrentUsage only moves through redemption.
type Offer struct {
	ID                int64
	Name              string
	Type              OfferType
	Status            OfferStatus
	StartTime         time.Time
	EndTime           time.Time
	Priority          int
	AutoApply         bool
	MaxUsageTotal     *int // nil = unlimited
	CurrentUsage      int
	MaxUsagePerUser   *int
	MinCartAmount     *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	CreatedAt         time.Time

	Conditions  []Condition
	Rewards     []Reward
	ProductIDs  []string
	CategoryIDs []string
}

// IsLive reports whether the offer is active and now falls inside its window.
func (o *Offer) IsLive(now time.Time) bool {
	if o.Status != StatusActive {
		return false
	}
	return !now.Before(o.StartTime) && !now.After(o.EndTime)
}

// UsageExhausted reports whether the global cap has been reached.
func (o *Offer) UsageExhausted() bool {
	return o.MaxUsageTotal != nil && o.CurrentUsage >= *o.MaxUsageTotal
}
