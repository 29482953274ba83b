package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TaxRate is applied to the subtotal once, when the order is built.
var TaxRate = decimal.RequireFromString("0.08")

// MoneyPlaces is the number of decimal places money is kept with.
const MoneyPlaces = 2

// MaxAmount is the exclusive upper bound of a stored money value.
var MaxAmount = decimal.New(1, 8)

type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerID      int64           `json:"customer_id"`
	RestaurantID    int64           `json:"restaurant_id"`
	Status          Status          `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	Tax             decimal.Decimal `json:"tax"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DeliveryAddress string          `json:"delivery_address"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items"`
}

type OrderItem struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"order_id"`
	MenuItemID     int64           `json:"menu_item_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"` // snapshot taken at order time
	TotalPrice     decimal.Decimal `json:"total_price"`
	Customizations json.RawMessage `json:"customizations,omitempty"`
}

// StatusChange is one row of an order's status audit trail.
type StatusChange struct {
	ID         int64     `json:"id"`
	OrderID    int64     `json:"order_id"`
	FromStatus Status    `json:"from_status,omitempty"` // empty for the initial row
	ToStatus   Status    `json:"to_status"`
	ChangedBy  int64     `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}

// LineTotal is unit price times quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// ValidAmount reports whether d is non-negative, below MaxAmount and has at
// most MoneyPlaces decimals.
func ValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThan(MaxAmount) && d.Equal(d.Round(MoneyPlaces))
}

// ComputeTax rounds subtotal*TaxRate half away from zero to MoneyPlaces.
func ComputeTax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(MoneyPlaces)
}

// Reconciles reports whether the order's money fields agree with its lines.
func (o *Order) Reconciles() bool {
	sum := decimal.Zero
	for _, item := range o.Items {
		if !item.TotalPrice.Equal(LineTotal(item.UnitPrice, item.Quantity)) {
			return false
		}
		sum = sum.Add(item.TotalPrice)
	}
	if !sum.Equal(o.Subtotal) {
		return false
	}
	return o.TotalAmount.Equal(o.Subtotal.Add(o.DeliveryFee).Add(o.Tax))
}
