package models

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

type ConditionType string

const (
	CondCartTotal   ConditionType = "cart_total"
	CondProductQty  ConditionType = "product_qty"
	CondCategory    ConditionType = "category"
	CondBrand       ConditionType = "brand"
	CondFirstOrder  ConditionType = "first_order"
	CondUserLevel   ConditionType = "user_level"
	CondUserSegment ConditionType = "user_segment"
	CondMinItems    ConditionType = "min_items"
	CondExpression  ConditionType = "expression"
)

type Operator string

const (
	OpGTE Operator = ">="
	OpGT  Operator = ">"
	OpLTE Operator = "<="
	OpLT  Operator = "<"
	OpEQ  Operator = "="
)

func (op Operator) Valid() bool {
	switch op {
	case "", OpGTE, OpGT, OpLTE, OpLT, OpEQ:
		return true
	}
	return false
}

// Condition is one predicate of an offer. Value holds the payload variant
// matching Type.
type Condition struct {
	ID       int64
	Type     ConditionType
	Operator Operator
	Value    ConditionValue
}

// ConditionValue is implemented by one struct per condition type.
type ConditionValue interface {
	conditionType() ConditionType
}

type CartTotalValue struct {
	Amount decimal.Decimal `json:"amount"`
}

type ProductQtyValue struct {
	ProductID string `json:"product_id"`
	Min       int    `json:"min"`
}

type MinItemsValue struct {
	Min int `json:"min"`
}

type CategoryValue struct {
	CategoryID string `json:"category_id"`
}

type BrandValue struct {
	Brand string `json:"brand"`
}

type FirstOrderValue struct{}

type UserLevelValue struct {
	Level int `json:"level"`
}

type UserSegmentValue struct {
	Segment string `json:"segment"`
}

// ExpressionValue is a JSON Logic expression evaluated against cart facts.
type ExpressionValue struct {
	Logic json.RawMessage `json:"logic"`
}

// UnknownValue keeps the payload of a condition type this build does not know.
type UnknownValue struct {
	Type ConditionType
	Raw  json.RawMessage
}

func (CartTotalValue) conditionType() ConditionType   { return CondCartTotal }
func (ProductQtyValue) conditionType() ConditionType  { return CondProductQty }
func (MinItemsValue) conditionType() ConditionType    { return CondMinItems }
func (CategoryValue) conditionType() ConditionType    { return CondCategory }
func (BrandValue) conditionType() ConditionType       { return CondBrand }
func (FirstOrderValue) conditionType() ConditionType  { return CondFirstOrder }
func (UserLevelValue) conditionType() ConditionType   { return CondUserLevel }
func (UserSegmentValue) conditionType() ConditionType { return CondUserSegment }
func (ExpressionValue) conditionType() ConditionType  { return CondExpression }
func (u UnknownValue) conditionType() ConditionType   { return u.Type }

// DecodeCondition turns a stored (type, operator, raw JSON) triple into a
// typed Condition. Unrecognized types decode to UnknownValue.
func DecodeCondition(id int64, typ ConditionType, op Operator, raw []byte) (Condition, error) {
	if !op.Valid() {
		return Condition{}, errors.Errorf("condition %d: unsupported operator %q", id, op)
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var (
		value ConditionValue
		err   error
	)
	switch typ {
	case CondCartTotal:
		var v CartTotalValue
		err = json.Unmarshal(raw, &v)
		value = v
	case CondProductQty:
		var v ProductQtyValue
		err = json.Unmarshal(raw, &v)
		if err == nil && v.ProductID == "" {
			err = errors.New("product_id required")
		}
		value = v
	case CondMinItems:
		var v MinItemsValue
		err = json.Unmarshal(raw, &v)
		value = v
	case CondCategory:
		var v CategoryValue
		err = json.Unmarshal(raw, &v)
		value = v
	case CondBrand:
		var v BrandValue
		err = json.Unmarshal(raw, &v)
		value = v
	case CondFirstOrder:
		value = FirstOrderValue{}
	case CondUserLevel:
		var v UserLevelValue
		err = json.Unmarshal(raw, &v)
		value = v
	case CondUserSegment:
		var v UserSegmentValue
		err = json.Unmarshal(raw, &v)
		value = v
	case CondExpression:
		var v ExpressionValue
		err = json.Unmarshal(raw, &v)
		if err == nil && len(v.Logic) == 0 {
			err = errors.New("logic required")
		}
		value = v
	default:
		value = UnknownValue{Type: typ, Raw: json.RawMessage(raw)}
	}
	if err != nil {
		return Condition{}, errors.Wrapf(err, "condition %d (%s)", id, typ)
	}

	return Condition{ID: id, Type: typ, Operator: op, Value: value}, nil
}
