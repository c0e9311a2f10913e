package service

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

// CodeResolver maps a code string to its offer, failing fast with a distinct
// error kind per check.
type CodeResolver struct {
	codes   CodeStore
	catalog OfferCatalog
	usages  UsageCounter
}

func NewCodeResolver(codes CodeStore, catalog OfferCatalog, usages UsageCounter) *CodeResolver {
	return &CodeResolver{codes: codes, catalog: catalog, usages: usages}
}

func (r *CodeResolver) Resolve(ctx context.Context, code, customerID string, now time.Time) (*models.Offer, *models.OfferCode, error) {
	normalized := models.NormalizeCode(code)
	if normalized == "" {
		return nil, nil, newError(KindCodeNotFound, "code is empty")
	}

	oc, err := r.codes.GetOfferCodeByCode(ctx, normalized)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get offer code")
	}
	if oc == nil {
		return nil, nil, newError(KindCodeNotFound, "code %s does not exist", normalized)
	}
	if !oc.IsActive {
		return nil, nil, newError(KindCodeInactive, "code %s is no longer active", oc.Code)
	}
	if oc.UsesExhausted() {
		return nil, nil, newError(KindCodeUsageExhausted, "code %s has been fully redeemed", oc.Code)
	}
	if oc.AssignedCustomerID != nil && *oc.AssignedCustomerID != customerID {
		return nil, nil, newError(KindCodeNotAssignedToCustomer, "code %s belongs to another customer", oc.Code)
	}
	if oc.ValidFrom != nil && now.Before(*oc.ValidFrom) {
		return nil, nil, newError(KindCodeNotYetActive, "code %s is valid from %s", oc.Code, oc.ValidFrom.Format(time.RFC3339))
	}
	if oc.ValidTo != nil && now.After(*oc.ValidTo) {
		return nil, nil, newError(KindCodeExpired, "code %s expired at %s", oc.Code, oc.ValidTo.Format(time.RFC3339))
	}
	if oc.MaxUsesPerCustomer != nil && customerID != "" {
		n, err := r.usages.CountUsagesByCustomer(ctx, oc.OfferID, customerID)
		if err != nil {
			return nil, nil, errors.Wrap(err, "count customer usages")
		}
		if n >= *oc.MaxUsesPerCustomer {
			return nil, nil, newError(KindCodeUsageExhausted, "code %s already used %d times by this customer", oc.Code, n)
		}
	}

	offer, err := r.catalog.GetOfferByID(ctx, oc.OfferID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get offer")
	}
	if offer == nil {
		return nil, nil, newError(KindOfferNotFound, "offer %d for code %s does not exist", oc.OfferID, oc.Code)
	}
	if !offer.IsLive(now) {
		return nil, nil, newError(KindOfferInactiveOrOutOfWindow, "offer %q is not currently available", offer.Name)
	}

	return offer, oc, nil
}
