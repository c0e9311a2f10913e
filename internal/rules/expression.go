package rules

import (
	"bytes"
	"encoding/json"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

// facts is the document JSON Logic expressions are evaluated against.
// Amounts are exposed as numbers since JSON Logic only compares numbers;
// nothing computed here feeds back into money.
func facts(cart models.Cart, cust *models.CustomerContext) map[string]any {
	items := make([]any, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, map[string]any{
			"product_id":  it.ProductID,
			"quantity":    it.Quantity,
			"unit_price":  it.UnitPrice.InexactFloat64(),
			"category_id": it.CategoryID,
			"brand":       it.Brand,
		})
	}

	customer := map[string]any{}
	if cust.TotalOrders != nil {
		customer["total_orders"] = *cust.TotalOrders
	}
	if cust.Level != nil {
		customer["level"] = *cust.Level
	}
	if cust.Segment != nil {
		customer["segment"] = *cust.Segment
	}

	return map[string]any{
		"cart_total": cart.Total().InexactFloat64(),
		"item_count": cart.ItemCount(),
		"items":      items,
		"customer":   customer,
	}
}

func evaluateExpression(v models.ExpressionValue, cart models.Cart, cust *models.CustomerContext) Result {
	data, err := json.Marshal(facts(cart, cust))
	if err != nil {
		return fail("expression facts: %v", err)
	}

	var out bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(v.Logic), bytes.NewReader(data), &out); err != nil {
		return fail("expression could not be evaluated: %v", err)
	}

	var res any
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &res); err != nil {
		return fail("expression returned invalid result")
	}
	if !truthy(res) {
		return fail("cart does not satisfy the offer rule")
	}
	return pass()
}

// truthy follows JSON Logic truthiness.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	}
	return true
}
