package models

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

type RewardType string

const (
	RewardPercent      RewardType = "percent_discount"
	RewardFlat         RewardType = "flat_discount"
	RewardFreeProduct  RewardType = "free_product"
	RewardFreeShipping RewardType = "free_shipping"
)

type Reward struct {
	ID         int64
	Type       RewardType
	Value      RewardValue
	MaxFreeQty int
}

type RewardValue interface {
	rewardType() RewardType
}

type PercentValue struct {
	Percent decimal.Decimal `json:"percent"`
}

type AmountValue struct {
	Amount decimal.Decimal `json:"amount"`
}

type FreeProductValue struct {
	ProductID string `json:"product_id"`
}

type FreeShippingValue struct{}

func (PercentValue) rewardType() RewardType      { return RewardPercent }
func (AmountValue) rewardType() RewardType       { return RewardFlat }
func (FreeProductValue) rewardType() RewardType  { return RewardFreeProduct }
func (FreeShippingValue) rewardType() RewardType { return RewardFreeShipping }

// DecodeReward is the reward counterpart of DecodeCondition. Unlike
// conditions, an unknown reward type is an error: there is no safe default
// for money.
func DecodeReward(id int64, typ RewardType, raw []byte, maxFreeQty int) (Reward, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var (
		value RewardValue
		err   error
	)
	switch typ {
	case RewardPercent:
		var v PercentValue
		err = json.Unmarshal(raw, &v)
		if err == nil && (v.Percent.IsNegative() || v.Percent.GreaterThan(decimal.NewFromInt(100))) {
			err = errors.New("percent must be within 0..100")
		}
		value = v
	case RewardFlat:
		var v AmountValue
		err = json.Unmarshal(raw, &v)
		if err == nil && v.Amount.IsNegative() {
			err = errors.New("amount must not be negative")
		}
		value = v
	case RewardFreeProduct:
		var v FreeProductValue
		err = json.Unmarshal(raw, &v)
		if err == nil && v.ProductID == "" {
			err = errors.New("product_id required")
		}
		value = v
	case RewardFreeShipping:
		value = FreeShippingValue{}
	default:
		err = errors.New("unsupported reward type")
	}
	if err != nil {
		return Reward{}, errors.Wrapf(err, "reward %d (%s)", id, typ)
	}

	return Reward{ID: id, Type: typ, Value: value, MaxFreeQty: maxFreeQty}, nil
}
