package service

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

// Limiter is the optimistic usage pre-check run before condition evaluation.
// It filters candidates only; Redeem is what actually enforces the caps.
type Limiter struct {
	usages UsageCounter
}

func NewLimiter(usages UsageCounter) *Limiter {
	return &Limiter{usages: usages}
}

// IsWithinLimits reports whether offer can still be redeemed, globally and by
// customerID when given. reason is set when it cannot.
func (l *Limiter) IsWithinLimits(ctx context.Context, offer *models.Offer, customerID string) (ok bool, reason string, err error) {
	if offer.UsageExhausted() {
		return false, "offer usage limit reached", nil
	}
	if customerID == "" || offer.MaxUsagePerUser == nil {
		return true, "", nil
	}

	n, err := l.usages.CountUsagesByCustomer(ctx, offer.ID, customerID)
	if err != nil {
		return false, "", errors.Wrap(err, "count customer usages")
	}
	if n >= *offer.MaxUsagePerUser {
		return false, "customer has already used this offer the maximum number of times", nil
	}
	return true, "", nil
}
