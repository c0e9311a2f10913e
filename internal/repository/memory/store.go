// Package memory is an in-process Store used for local runs and tests. Every
// operation runs under one mutex, so Redeem has the same all-or-nothing
// behaviour as the Postgres transaction.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/repository"
)

type usageKey struct {
	offerID int64
	orderID string
}

type customerKey struct {
	offerID    int64
	customerID string
}

type Store struct {
	mu sync.RWMutex

	offers map[int64]*models.Offer
	codes  map[string]*models.OfferCode
	codeID map[int64]*models.OfferCode

	usages       []models.OfferUsage
	usageByOrder map[usageKey]int
	customerUses map[customerKey]int

	nextOfferID int64
	nextCodeID  int64
}

func NewStore() *Store {
	return &Store{
		offers:       make(map[int64]*models.Offer),
		codes:        make(map[string]*models.OfferCode),
		codeID:       make(map[int64]*models.OfferCode),
		usageByOrder: make(map[usageKey]int),
		customerUses: make(map[customerKey]int),
	}
}

// AddOffer stores offer, assigning an ID when it has none. It returns the ID.
func (s *Store) AddOffer(offer models.Offer) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offer.ID == 0 {
		s.nextOfferID++
		offer.ID = s.nextOfferID
	} else if offer.ID > s.nextOfferID {
		s.nextOfferID = offer.ID
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}
	s.offers[offer.ID] = &offer
	return offer.ID
}

func (s *Store) ListActiveOffers(ctx context.Context, now time.Time) ([]models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Offer, 0, len(s.offers))
	for _, o := range s.offers {
		if o.IsLive(now) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetOfferByID(ctx context.Context, id int64) (*models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.offers[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *Store) GetOfferCodeByCode(ctx context.Context, code string) (*models.OfferCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.codes[models.NormalizeCode(code)]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *Store) CreateOfferCode(ctx context.Context, code *models.OfferCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code.Code = models.NormalizeCode(code.Code)
	if _, exists := s.codes[code.Code]; exists {
		return repository.ErrDuplicateCode
	}
	if _, ok := s.offers[code.OfferID]; !ok {
		return errors.Errorf("offer %d does not exist", code.OfferID)
	}
	s.nextCodeID++
	code.ID = s.nextCodeID
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now().UTC()
	}
	cp := *code
	s.codes[cp.Code] = &cp
	s.codeID[cp.ID] = &cp
	return nil
}

func (s *Store) CountUsagesByCustomer(ctx context.Context, offerID int64, customerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, u := range s.usages {
		if u.OfferID == offerID && u.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

// Redeem checks every cap before mutating anything, so a rejected redemption
// leaves no trace.
func (s *Store) Redeem(ctx context.Context, r models.Redemption) (models.OfferUsage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := usageKey{offerID: r.OfferID, orderID: r.OrderID}
	if idx, ok := s.usageByOrder[key]; ok {
		return s.usages[idx], false, nil
	}

	offer, ok := s.offers[r.OfferID]
	if !ok {
		return models.OfferUsage{}, false, errors.Errorf("offer %d does not exist", r.OfferID)
	}
	if offer.UsageExhausted() {
		return models.OfferUsage{}, false, repository.ErrOfferUsageCapReached
	}

	ck := customerKey{offerID: r.OfferID, customerID: r.CustomerID}
	if r.CustomerID != "" && r.CustomerLimit != nil && s.customerUses[ck] >= *r.CustomerLimit {
		return models.OfferUsage{}, false, repository.ErrCustomerUsageCapReached
	}

	var code *models.OfferCode
	if r.OfferCodeID != nil {
		code, ok = s.codeID[*r.OfferCodeID]
		if !ok {
			return models.OfferUsage{}, false, errors.Errorf("offer code %d does not exist", *r.OfferCodeID)
		}
		switch {
		case !code.IsActive:
			return models.OfferUsage{}, false, repository.ErrCodeInactive
		case !code.InWindow(r.UsedAt):
			return models.OfferUsage{}, false, repository.ErrCodeOutOfWindow
		case code.UsesExhausted():
			return models.OfferUsage{}, false, repository.ErrCodeUsageCapReached
		}
	}

	offer.CurrentUsage++
	if r.CustomerID != "" {
		s.customerUses[ck]++
	}
	if code != nil {
		code.CurrentUses++
	}

	usage := models.OfferUsage{
		ID:             int64(len(s.usages) + 1),
		OfferID:        r.OfferID,
		CustomerID:     r.CustomerID,
		OrderID:        r.OrderID,
		OfferCodeID:    r.OfferCodeID,
		DiscountAmount: r.DiscountAmount,
		UsedAt:         r.UsedAt,
	}
	s.usages = append(s.usages, usage)
	s.usageByOrder[key] = len(s.usages) - 1
	return usage, true, nil
}

// UsageCount returns how many usage rows exist, for tests and diagnostics.
func (s *Store) UsageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.usages)
}
