package service

import (
	"context"
	"time"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

// OfferCatalog is the read side of offer storage. Lookups return nil, nil
// when nothing matches.
type OfferCatalog interface {
	// ListActiveOffers returns live offers ordered by priority desc, then
	// created_at desc.
	ListActiveOffers(ctx context.Context, now time.Time) ([]models.Offer, error)
	GetOfferByID(ctx context.Context, id int64) (*models.Offer, error)
}

type CodeStore interface {
	GetOfferCodeByCode(ctx context.Context, code string) (*models.OfferCode, error)
	// CreateOfferCode returns repository.ErrDuplicateCode on a code collision.
	CreateOfferCode(ctx context.Context, code *models.OfferCode) error
}

type UsageCounter interface {
	CountUsagesByCustomer(ctx context.Context, offerID int64, customerID string) (int, error)
}

type UsageStore interface {
	UsageCounter
	// Redeem applies one redemption atomically. created is false when a usage
	// for (offer, order) already existed; that row is returned unchanged.
	Redeem(ctx context.Context, r models.Redemption) (usage models.OfferUsage, created bool, err error)
}

type Store interface {
	OfferCatalog
	CodeStore
	UsageStore
}
