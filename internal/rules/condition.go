// Package rules holds the pure parts of offer evaluation: condition matching
// and reward computation. Nothing here touches storage.
package rules

import (
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

// Result is the outcome of evaluating a condition.
type Result struct {
	Matched bool
	Reason  string
}

func pass() Result { return Result{Matched: true} }

func fail(format string, args ...any) Result {
	return Result{Matched: false, Reason: fmt.Sprintf(format, args...)}
}

// EvaluateConditions ANDs every condition and reports the first that fails.
func EvaluateConditions(conds []models.Condition, cart models.Cart, cust *models.CustomerContext) Result {
	for _, c := range conds {
		if res := EvaluateCondition(c, cart, cust); !res.Matched {
			return res
		}
	}
	return pass()
}

// EvaluateCondition matches one condition against the cart and the optional
// customer context. Customer signals the caller did not supply pass.
func EvaluateCondition(cond models.Condition, cart models.Cart, cust *models.CustomerContext) Result {
	if cust == nil {
		cust = &models.CustomerContext{}
	}
	op := cond.Operator
	if op == "" {
		op = models.OpGTE
	}

	switch v := cond.Value.(type) {
	case models.CartTotalValue:
		total := cart.Total()
		if !compareDecimal(total, op, v.Amount) {
			return fail("cart total %s must be %s %s", total.StringFixed(2), op, v.Amount.StringFixed(2))
		}
		return pass()

	case models.ProductQtyValue:
		qty := 0
		for _, it := range cart.Items {
			if it.ProductID == v.ProductID {
				qty += it.Quantity
			}
		}
		if !compareInt(qty, op, v.Min) {
			return fail("quantity of product %s is %d, must be %s %d", v.ProductID, qty, op, v.Min)
		}
		return pass()

	case models.MinItemsValue:
		n := cart.ItemCount()
		if !compareInt(n, op, v.Min) {
			return fail("cart has %d items, must be %s %d", n, op, v.Min)
		}
		return pass()

	case models.CategoryValue:
		for _, it := range cart.Items {
			if it.CategoryID != "" && it.CategoryID == v.CategoryID {
				return pass()
			}
		}
		return fail("cart has no item in category %s", v.CategoryID)

	case models.BrandValue:
		for _, it := range cart.Items {
			if it.Brand != "" && strings.EqualFold(it.Brand, v.Brand) {
				return pass()
			}
		}
		return fail("cart has no item of brand %s", v.Brand)

	case models.FirstOrderValue:
		if cust.TotalOrders == nil || *cust.TotalOrders == 0 {
			return pass()
		}
		return fail("offer is only valid on a first order")

	case models.UserLevelValue:
		if cust.Level == nil {
			return pass()
		}
		if !compareInt(*cust.Level, op, v.Level) {
			return fail("customer level %d must be %s %d", *cust.Level, op, v.Level)
		}
		return pass()

	case models.UserSegmentValue:
		if cust.Segment == nil {
			return pass()
		}
		if !strings.EqualFold(*cust.Segment, v.Segment) {
			return fail("offer is only valid for the %s segment", v.Segment)
		}
		return pass()

	case models.ExpressionValue:
		return evaluateExpression(v, cart, cust)

	case models.UnknownValue:
		log.Printf("rules: unrecognized condition type %q (condition %d), treating as pass", v.Type, cond.ID)
		return pass()
	}

	log.Printf("rules: condition %d has no decoded value, treating as pass", cond.ID)
	return pass()
}

func compareDecimal(a decimal.Decimal, op models.Operator, b decimal.Decimal) bool {
	return compare(a.Cmp(b), op)
}

func compareInt(a int, op models.Operator, b int) bool {
	switch {
	case a < b:
		return compare(-1, op)
	case a > b:
		return compare(1, op)
	}
	return compare(0, op)
}

// compare interprets a three-way comparison result under op.
func compare(cmp int, op models.Operator) bool {
	switch op {
	case models.OpGT:
		return cmp > 0
	case models.OpLTE:
		return cmp <= 0
	case models.OpLT:
		return cmp < 0
	case models.OpEQ:
		return cmp == 0
	default:
		return cmp >= 0
	}
}
