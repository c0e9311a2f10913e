package service

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/repository"
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9]{0,16}$`)

type IssueCodeOptions struct {
	AssignedCustomerID *string
	MaxUses            *int
	MaxUsesPerCustomer *int
	ValidFrom          *time.Time
	ValidTo            *time.Time
	Prefix             string
}

func (o IssueCodeOptions) validate() error {
	if !prefixPattern.MatchString(o.Prefix) {
		return newError(KindInvalidRequest, "prefix must be at most 16 letters or digits")
	}
	if o.MaxUses != nil && *o.MaxUses < 1 {
		return newError(KindInvalidRequest, "max_uses must be at least 1")
	}
	if o.MaxUsesPerCustomer != nil && *o.MaxUsesPerCustomer < 1 {
		return newError(KindInvalidRequest, "max_uses_per_customer must be at least 1")
	}
	if o.ValidFrom != nil && o.ValidTo != nil && o.ValidFrom.After(*o.ValidTo) {
		return newError(KindInvalidRequest, "valid_from must not be after valid_to")
	}
	return nil
}

// IssueCode generates a unique code for offerID, retrying on collision a
// bounded number of times.
func (s *OfferService) IssueCode(ctx context.Context, offerID int64, opts IssueCodeOptions) (*models.OfferCode, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	offer, err := s.store.GetOfferByID(ctx, offerID)
	if err != nil {
		return nil, errors.Wrap(err, "get offer")
	}
	if offer == nil {
		return nil, newError(KindOfferNotFound, "offer %d does not exist", offerID)
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		oc := &models.OfferCode{
			Code:               models.NormalizeCode(s.generateCode(opts.Prefix)),
			OfferID:            offer.ID,
			MaxUses:            opts.MaxUses,
			AssignedCustomerID: opts.AssignedCustomerID,
			MaxUsesPerCustomer: opts.MaxUsesPerCustomer,
			ValidFrom:          opts.ValidFrom,
			ValidTo:            opts.ValidTo,
			IsActive:           true,
			CreatedAt:          s.now(),
		}
		err := s.store.CreateOfferCode(ctx, oc)
		if errors.Is(err, repository.ErrDuplicateCode) {
			log.Printf("code collision on attempt %d for offer %d", attempt, offer.ID)
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "create offer code")
		}
		return oc, nil
	}
	return nil, newError(KindCodeGenerationCollision, "could not generate a unique code after %d attempts", s.attempts)
}

// generateCode returns PREFIX-XXXXXXXX, or just XXXXXXXX without a prefix.
func generateCode(prefix string) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	if prefix == "" {
		return raw
	}
	return prefix + "-" + raw
}
