package memory

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

// SeedFile is the YAML layout accepted by LoadFile.
type SeedFile struct {
	Offers []SeedOffer `yaml:"offers"`
	Codes  []SeedCode  `yaml:"codes"`
}

type SeedOffer struct {
	ID                int64           `yaml:"id"`
	Name              string          `yaml:"name"`
	Type              string          `yaml:"type"`
	Status            string          `yaml:"status"`
	StartTime         time.Time       `yaml:"start_time"`
	EndTime           time.Time       `yaml:"end_time"`
	Priority          int             `yaml:"priority"`
	AutoApply         bool            `yaml:"auto_apply"`
	MaxUsageTotal     *int            `yaml:"max_usage_total"`
	CurrentUsage      int             `yaml:"current_usage"`
	MaxUsagePerUser   *int            `yaml:"max_usage_per_user"`
	MinCartAmount     string          `yaml:"min_cart_amount"`
	MaxDiscountAmount string          `yaml:"max_discount_amount"`
	Products          []string        `yaml:"products"`
	Categories        []string        `yaml:"categories"`
	Conditions        []SeedCondition `yaml:"conditions"`
	Rewards           []SeedReward    `yaml:"rewards"`
}

type SeedCondition struct {
	Type     string         `yaml:"type"`
	Operator string         `yaml:"operator"`
	Value    map[string]any `yaml:"value"`
}

type SeedReward struct {
	Type       string         `yaml:"type"`
	Value      map[string]any `yaml:"value"`
	MaxFreeQty int            `yaml:"max_free_qty"`
}

type SeedCode struct {
	Code               string     `yaml:"code"`
	OfferID            int64      `yaml:"offer_id"`
	MaxUses            *int       `yaml:"max_uses"`
	AssignedCustomerID *string    `yaml:"assigned_customer_id"`
	MaxUsesPerCustomer *int       `yaml:"max_uses_per_customer"`
	ValidFrom          *time.Time `yaml:"valid_from"`
	ValidTo            *time.Time `yaml:"valid_to"`
	Inactive           bool       `yaml:"inactive"`
}

// LoadFile reads a YAML seed file into s.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read seed file %s", path)
	}
	return s.Load(data)
}

// Load seeds s from YAML. Condition and reward payloads go through the same
// decoders as rows read from Postgres.
func (s *Store) Load(data []byte) error {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed")
	}

	for _, so := range seed.Offers {
		offer, err := so.toOffer()
		if err != nil {
			return err
		}
		s.AddOffer(offer)
	}

	for _, sc := range seed.Codes {
		code := &models.OfferCode{
			Code:               sc.Code,
			OfferID:            sc.OfferID,
			MaxUses:            sc.MaxUses,
			AssignedCustomerID: sc.AssignedCustomerID,
			MaxUsesPerCustomer: sc.MaxUsesPerCustomer,
			ValidFrom:          sc.ValidFrom,
			ValidTo:            sc.ValidTo,
			IsActive:           !sc.Inactive,
		}
		if err := s.CreateOfferCode(context.Background(), code); err != nil {
			return errors.Wrapf(err, "seed code %s", sc.Code)
		}
	}
	return nil
}

func (so SeedOffer) toOffer() (models.Offer, error) {
	offer := models.Offer{
		ID:              so.ID,
		Name:            so.Name,
		Type:            models.OfferType(so.Type),
		Status:          models.OfferStatus(so.Status),
		StartTime:       so.StartTime,
		EndTime:         so.EndTime,
		Priority:        so.Priority,
		AutoApply:       so.AutoApply,
		MaxUsageTotal:   so.MaxUsageTotal,
		CurrentUsage:    so.CurrentUsage,
		MaxUsagePerUser: so.MaxUsagePerUser,
		ProductIDs:      so.Products,
		CategoryIDs:     so.Categories,
	}
	if offer.Status == "" {
		offer.Status = models.StatusActive
	}

	var err error
	if offer.MinCartAmount, err = optionalDecimal(so.MinCartAmount); err != nil {
		return offer, errors.Wrapf(err, "offer %q min_cart_amount", so.Name)
	}
	if offer.MaxDiscountAmount, err = optionalDecimal(so.MaxDiscountAmount); err != nil {
		return offer, errors.Wrapf(err, "offer %q max_discount_amount", so.Name)
	}

	for i, c := range so.Conditions {
		raw, err := json.Marshal(c.Value)
		if err != nil {
			return offer, err
		}
		cond, err := models.DecodeCondition(int64(i+1), models.ConditionType(c.Type), models.Operator(c.Operator), raw)
		if err != nil {
			return offer, errors.Wrapf(err, "offer %q", so.Name)
		}
		offer.Conditions = append(offer.Conditions, cond)
	}
	for i, r := range so.Rewards {
		raw, err := json.Marshal(r.Value)
		if err != nil {
			return offer, err
		}
		rw, err := models.DecodeReward(int64(i+1), models.RewardType(r.Type), raw, r.MaxFreeQty)
		if err != nil {
			return offer, errors.Wrapf(err, "offer %q", so.Name)
		}
		offer.Rewards = append(offer.Rewards, rw)
	}
	return offer, nil
}

func optionalDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
