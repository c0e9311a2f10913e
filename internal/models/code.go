package models

import (
	"strings"
	"time"
)

// OfferCode is a redeemable string bound to one offer.
type OfferCode struct {
	ID                 int64
	Code               string
	OfferID            int64
	MaxUses            *int
	CurrentUses        int
	AssignedCustomerID *string
	MaxUsesPerCustomer *int
	ValidFrom          *time.Time
	ValidTo            *time.Time
	IsActive           bool
	CreatedAt          time.Time
}

func (c *OfferCode) UsesExhausted() bool {
	return c.MaxUses != nil && c.CurrentUses >= *c.MaxUses
}

// InWindow reports whether at falls inside the optional validity window.
func (c *OfferCode) InWindow(at time.Time) bool {
	if c.ValidFrom != nil && at.Before(*c.ValidFrom) {
		return false
	}
	return c.ValidTo == nil || !at.After(*c.ValidTo)
}

// NormalizeCode is applied to codes on issue and on lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
