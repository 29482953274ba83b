package models

import "github.com/shopspring/decimal"

// Summary is the sales analytics view of one restaurant over a trailing window.
type Summary struct {
	RestaurantID  int64           `json:"restaurant_id"`
	WindowDays    int             `json:"window_days"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalOrders   int             `json:"total_orders"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	PopularItems  []PopularItem   `json:"popular_items"`
}

type PopularItem struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	OrderCount int    `json:"order_count"`
}
