package service

import (
	"context"
	"log"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/repository"
)

type RecordUsageRequest struct {
	OfferID        int64
	CustomerID     string
	OrderID        string
	DiscountAmount decimal.Decimal
	// Code is the offer code the customer redeemed, if any.
	Code string
}

// RecordUsage redeems an offer for a confirmed order. It is idempotent per
// (offer, order): a retry returns the original usage without counting again.
// ErrUsageLimitExceeded means the discount must be dropped from the order.
func (s *OfferService) RecordUsage(ctx context.Context, req RecordUsageRequest) (*models.OfferUsage, error) {
	if req.OfferID <= 0 || req.OrderID == "" {
		return nil, newError(KindInvalidRequest, "offer_id and order_id are required")
	}
	if req.DiscountAmount.IsNegative() {
		return nil, newError(KindInvalidRequest, "discount_amount must not be negative")
	}

	offer, err := s.store.GetOfferByID(ctx, req.OfferID)
	if err != nil {
		return nil, errors.Wrap(err, "get offer")
	}
	if offer == nil {
		return nil, newError(KindOfferNotFound, "offer %d does not exist", req.OfferID)
	}

	r := models.Redemption{
		OfferID:        offer.ID,
		CustomerID:     req.CustomerID,
		OrderID:        req.OrderID,
		DiscountAmount: req.DiscountAmount.Round(2),
		CustomerLimit:  offer.MaxUsagePerUser,
		UsedAt:         s.now(),
	}

	var code *models.OfferCode
	if req.Code != "" {
		code, err = s.store.GetOfferCodeByCode(ctx, models.NormalizeCode(req.Code))
		if err != nil {
			return nil, errors.Wrap(err, "get offer code")
		}
		if code == nil || code.OfferID != offer.ID {
			return nil, newError(KindCodeNotFound, "code %s is not valid for offer %d", models.NormalizeCode(req.Code), offer.ID)
		}
		if code.AssignedCustomerID != nil && *code.AssignedCustomerID != req.CustomerID {
			return nil, newError(KindCodeNotAssignedToCustomer, "code %s belongs to another customer", code.Code)
		}
		r.OfferCodeID = &code.ID
		r.CustomerLimit = minLimit(offer.MaxUsagePerUser, code.MaxUsesPerCustomer)
	}

	usage, created, err := s.store.Redeem(ctx, r)
	switch {
	case errors.Is(err, repository.ErrCodeInactive):
		return nil, newError(KindCodeInactive, "code %s is no longer active", code.Code)
	case errors.Is(err, repository.ErrCodeOutOfWindow):
		return nil, codeWindowError(code, r.UsedAt)
	case errors.Is(err, repository.ErrOfferUsageCapReached):
		return nil, newError(KindUsageLimitExceeded, "offer %d has reached its usage limit", offer.ID)
	case errors.Is(err, repository.ErrCustomerUsageCapReached):
		return nil, newError(KindUsageLimitExceeded, "customer %s has reached the usage limit for offer %d", req.CustomerID, offer.ID)
	case errors.Is(err, repository.ErrCodeUsageCapReached):
		return nil, newError(KindUsageLimitExceeded, "code %s has been fully redeemed", code.Code)
	case err != nil:
		return nil, errors.Wrap(err, "redeem")
	}

	if created {
		log.Printf("usage recorded: offer=%d order=%s customer=%s discount=%s", offer.ID, req.OrderID, req.CustomerID, usage.DiscountAmount.StringFixed(2))
	} else {
		log.Printf("usage already recorded: offer=%d order=%s", offer.ID, req.OrderID)
	}
	return &usage, nil
}

func codeWindowError(code *models.OfferCode, at time.Time) error {
	if code.ValidFrom != nil && at.Before(*code.ValidFrom) {
		return newError(KindCodeNotYetActive, "code %s is valid from %s", code.Code, code.ValidFrom.Format(time.RFC3339))
	}
	var until string
	if code.ValidTo != nil {
		until = code.ValidTo.Format(time.RFC3339)
	}
	return newError(KindCodeExpired, "code %s expired at %s", code.Code, until)
}

// minLimit combines two optional caps, nil meaning unlimited.
func minLimit(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b < *a:
		return b
	}
	return a
}
