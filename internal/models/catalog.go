package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Restaurant and MenuItem are owned by the catalog; this service only reads them.
type Restaurant struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	OwnerID     int64           `json:"owner_id"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Active      bool            `json:"active"`
}

type MenuItem struct {
	ID           int64           `json:"id"`
	RestaurantID int64           `json:"restaurant_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
}
