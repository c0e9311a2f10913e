package models

import "github.com/shopspring/decimal"

type CartItem struct {
	ProductID  string          `json:"product_id" validate:"required"`
	Quantity   int             `json:"quantity" validate:"gte=1"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CategoryID string          `json:"category_id,omitempty"`
	Brand      string          `json:"brand,omitempty"`
}

// LineTotal is unit price times quantity.
func (it CartItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Cart struct {
	Items []CartItem `json:"items" validate:"dive"`
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// ItemCount sums quantities across all lines.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// CustomerContext carries optional customer signals supplied by the caller.
// A nil field means the signal is unknown.
type CustomerContext struct {
	TotalOrders *int    `json:"total_orders,omitempty"`
	Level       *int    `json:"level,omitempty"`
	Segment     *string `json:"segment,omitempty"`
}
