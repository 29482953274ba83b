package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"savorysync/internal/models"
	"savorysync/internal/service"

	"github.com/shopspring/decimal"
)

const (
	listTimeLayout = "2006-01-02 15:04"
	dateLayout     = "2006-01-02"

	avgPlaces = 4
)

var emptyCustomizations = json.RawMessage(`[]`)

// money renders an amount as a JSON number with two decimals.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(models.MoneyPlaces))
}

func customizations(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return emptyCustomizations
	}
	return raw
}

type createItemRequest struct {
	MenuItemID     int64           `json:"menu_item_id"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	Customizations json.RawMessage `json:"customizations"`
}

type createOrderRequest struct {
	RestaurantID    int64               `json:"restaurant_id"`
	Items           []createItemRequest `json:"items"`
	DeliveryAddress string              `json:"delivery_address"`
	DeliveryFee     decimal.Decimal     `json:"delivery_fee"`
	Notes           string              `json:"notes"`
}

func (req createOrderRequest) toService() service.CreateOrderRequest {
	lines := make([]service.LineRequest, len(req.Items))
	for i, item := range req.Items {
		lines[i] = service.LineRequest{
			MenuItemID:     item.MenuItemID,
			Quantity:       item.Quantity,
			UnitPriceHint:  item.Price,
			Customizations: item.Customizations,
		}
	}
	return service.CreateOrderRequest{
		RestaurantID:    req.RestaurantID,
		Lines:           lines,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryFee:     req.DeliveryFee,
		Notes:           req.Notes,
	}
}

type createdOrder struct {
	ID          int64         `json:"id"`
	OrderNumber string        `json:"order_number"`
	TotalAmount json.Number   `json:"total_amount"`
	Status      models.Status `json:"status"`
}

type createOrderResponse struct {
	Message string       `json:"message"`
	Order   createdOrder `json:"order"`
}

type orderItemView struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      json.Number     `json:"unit_price"`
	TotalPrice     json.Number     `json:"total_price"`
	Customizations json.RawMessage `json:"customizations"`
}

type orderView struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Customer        string          `json:"customer"`
	Items           []orderItemView `json:"items"`
	Total           json.Number     `json:"total"`
	Status          models.Status   `json:"status"`
	Time            string          `json:"time"`
	DeliveryAddress string          `json:"delivery_address"`
	Notes           string          `json:"notes"`
}

func newOrderView(d service.OrderDetail) orderView {
	items := make([]orderItemView, len(d.Lines))
	for i, l := range d.Lines {
		items[i] = orderItemView{
			ID:             l.MenuItemID,
			Name:           l.Name,
			Quantity:       l.Quantity,
			UnitPrice:      money(l.UnitPrice),
			TotalPrice:     money(l.TotalPrice),
			Customizations: customizations(l.Customizations),
		}
	}
	customer := d.CustomerName
	if customer == "" {
		customer = "Customer"
	}
	return orderView{
		ID:              d.ID,
		OrderNumber:     d.OrderNumber,
		Customer:        customer,
		Items:           items,
		Total:           money(d.TotalAmount),
		Status:          d.Status,
		Time:            d.CreatedAt.UTC().Format(listTimeLayout),
		DeliveryAddress: d.DeliveryAddress,
		Notes:           d.Notes,
	}
}

type orderDetailView struct {
	orderView
	RestaurantID int64       `json:"restaurant_id"`
	Subtotal     json.Number `json:"subtotal"`
	DeliveryFee  json.Number `json:"delivery_fee"`
	Tax          json.Number `json:"tax"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func newOrderDetailView(d service.OrderDetail) orderDetailView {
	return orderDetailView{
		orderView:    newOrderView(d),
		RestaurantID: d.RestaurantID,
		Subtotal:     money(d.Subtotal),
		DeliveryFee:  money(d.DeliveryFee),
		Tax:          money(d.Tax),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type previousItemView struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Price          json.Number     `json:"price"`
	Quantity       int             `json:"quantity"`
	Customizations json.RawMessage `json:"customizations"`
}

type previousOrderView struct {
	ID             string             `json:"id"`
	RestaurantID   int64              `json:"restaurantId"`
	RestaurantName string             `json:"restaurantName"`
	Items          []previousItemView `json:"items"`
	TotalAmount    json.Number        `json:"totalAmount"`
	OrderDate      string             `json:"orderDate"`
	Frequency      int                `json:"frequency"`
}

func newPreviousOrderView(p service.PreviousOrder) previousOrderView {
	items := make([]previousItemView, len(p.Lines))
	for i, l := range p.Lines {
		items[i] = previousItemView{
			ID:             l.MenuItemID,
			Name:           l.Name,
			Price:          money(l.UnitPrice),
			Quantity:       l.Quantity,
			Customizations: customizations(l.Customizations),
		}
	}
	return previousOrderView{
		ID:             fmt.Sprintf("order-%d", p.ID),
		RestaurantID:   p.RestaurantID,
		RestaurantName: p.RestaurantName,
		Items:          items,
		TotalAmount:    money(p.TotalAmount),
		OrderDate:      p.CreatedAt.UTC().Format(dateLayout),
		Frequency:      p.Frequency,
	}
}

type statusChangeView struct {
	FromStatus models.Status `json:"from_status,omitempty"`
	ToStatus   models.Status `json:"to_status"`
	ChangedBy  int64         `json:"changed_by"`
	ChangedAt  time.Time     `json:"changed_at"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type popularItemView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	OrderCount int    `json:"order_count"`
}

type salesView struct {
	TotalRevenue  json.Number       `json:"total_revenue"`
	TotalOrders   int               `json:"total_orders"`
	AvgOrderValue json.Number       `json:"avg_order_value"`
	PopularItems  []popularItemView `json:"popular_items"`
}

// newSalesView renders the average with avgPlaces decimals; the other amounts use two.
func newSalesView(s *models.Summary) salesView {
	items := make([]popularItemView, len(s.PopularItems))
	for i, p := range s.PopularItems {
		items[i] = popularItemView(p)
	}
	return salesView{
		TotalRevenue:  money(s.TotalRevenue),
		TotalOrders:   s.TotalOrders,
		AvgOrderValue: json.Number(s.AvgOrderValue.StringFixed(avgPlaces)),
		PopularItems:  items,
	}
}
