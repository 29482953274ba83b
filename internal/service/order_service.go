package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"savorysync/internal/apperr"
	"savorysync/internal/auth"
	"savorysync/internal/events"
	"savorysync/internal/models"
	"savorysync/internal/repo"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	previousOrdersLimit = 10
	orderNumberAttempts = 3
	maxLineQuantity     = 10000
)

type CreateOrderRequest struct {
	RestaurantID    int64
	Lines           []LineRequest
	DeliveryAddress string
	DeliveryFee     decimal.Decimal
	Notes           string
}

// OrderDetail is an order with display data for the customer and each line.
type OrderDetail struct {
	models.Order
	CustomerName string
	Lines        []LineDetail
}

type LineDetail struct {
	models.OrderItem
	Name  string
	Image string
}

type PreviousOrder struct {
	OrderDetail
	RestaurantName string
	Frequency      int // orders the customer placed at this restaurant
}

type OrderService struct {
	store     OrderStore
	catalog   Catalog
	pricer    LinePricer
	publisher events.Publisher
	log       zerolog.Logger

	now       func() time.Time
	newNumber func(time.Time) string
}

func NewOrderService(store OrderStore, catalog Catalog, pricer LinePricer, publisher events.Publisher, log zerolog.Logger) *OrderService {
	return &OrderService{
		store:     store,
		catalog:   catalog,
		pricer:    pricer,
		publisher: publisher,
		log:       log,
		now:       time.Now,
		newNumber: NewOrderNumber,
	}
}

// NewOrderNumber formats ORD-YYYYMMDDHHMMSS-XXXXXXXX. The random suffix keeps
// numbers unique when several orders share a second.
func NewOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + at.UTC().Format("20060102150405") + "-" + suffix
}

// Create prices and validates the request and stores the order with its items
// in one transaction.
func (s *OrderService) Create(ctx context.Context, caller auth.Caller, req CreateOrderRequest) (*models.Order, error) {
	customer, ok := caller.(auth.Customer)
	if !ok {
		return nil, apperr.Forbidden()
	}
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	restaurant, err := s.catalog.Restaurant(ctx, req.RestaurantID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.Validation("restaurant %d does not exist", req.RestaurantID)
	}
	if err != nil {
		return nil, apperr.Storage("restaurant lookup", err)
	}
	if !restaurant.Active {
		return nil, apperr.Validation("restaurant %d is not accepting orders", req.RestaurantID)
	}

	prices, err := s.pricer.UnitPrices(ctx, req.RestaurantID, req.Lines)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &models.Order{
		CustomerID:      customer.ID,
		RestaurantID:    req.RestaurantID,
		Status:          models.StatusPending,
		DeliveryFee:     req.DeliveryFee,
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		Notes:           strings.TrimSpace(req.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           make([]models.OrderItem, len(req.Lines)),
	}
	subtotal := decimal.Zero
	for i, l := range req.Lines {
		line := models.OrderItem{
			MenuItemID:     l.MenuItemID,
			Quantity:       l.Quantity,
			UnitPrice:      prices[i],
			TotalPrice:     models.LineTotal(prices[i], l.Quantity),
			Customizations: l.Customizations,
		}
		subtotal = subtotal.Add(line.TotalPrice)
		order.Items[i] = line
	}
	order.Subtotal = subtotal
	order.Tax = models.ComputeTax(subtotal)
	order.TotalAmount = subtotal.Add(order.DeliveryFee).Add(order.Tax)
	if !order.TotalAmount.LessThan(models.MaxAmount) {
		return nil, apperr.Validation("order total must be below %s", models.MaxAmount)
	}

	for attempt := 1; ; attempt++ {
		order.OrderNumber = s.newNumber(now)
		err = s.store.Create(ctx, order)
		if !errors.Is(err, repo.ErrDuplicateOrderNumber) || attempt == orderNumberAttempts {
			break
		}
		s.log.Warn().Str("order_number", order.OrderNumber).Int("attempt", attempt).Msg("order number taken, regenerating")
	}
	if err != nil {
		return nil, apperr.Storage("create order", err)
	}

	s.log.Info().
		Int64("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Int64("restaurant_id", order.RestaurantID).
		Str("total_amount", order.TotalAmount.StringFixed(models.MoneyPlaces)).
		Msg("order created")
	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, order, "", now))
	return order, nil
}

func validateCreate(req CreateOrderRequest) error {
	if req.RestaurantID <= 0 {
		return apperr.Validation("restaurant_id is required")
	}
	if len(req.Lines) == 0 {
		return apperr.Validation("items must not be empty")
	}
	if req.DeliveryFee.IsNegative() {
		return apperr.Validation("delivery_fee must not be negative")
	}
	if !models.ValidAmount(req.DeliveryFee) {
		return apperr.Validation("delivery_fee must have at most %d decimal places and be below %s", models.MoneyPlaces, models.MaxAmount)
	}
	for i, l := range req.Lines {
		if l.MenuItemID <= 0 {
			return apperr.Validation("items[%d]: menu_item_id is required", i)
		}
		if l.Quantity < 1 {
			return apperr.Validation("items[%d]: quantity must be at least 1", i)
		}
		if l.Quantity > maxLineQuantity {
			return apperr.Validation("items[%d]: quantity must be at most %d", i, maxLineQuantity)
		}
		if l.UnitPriceHint.IsNegative() {
			return apperr.Validation("items[%d]: price must not be negative", i)
		}
		if !models.ValidAmount(l.UnitPriceHint) {
			return apperr.Validation("items[%d]: price must have at most %d decimal places and be below %s", i, models.MoneyPlaces, models.MaxAmount)
		}
	}
	return nil
}

// List returns the caller's orders newest first: a customer's own orders or
// the orders of the restaurant a seller owns.
func (s *OrderService) List(ctx context.Context, caller auth.Caller) ([]OrderDetail, error) {
	var orders []models.Order
	var err error
	switch c := caller.(type) {
	case auth.Customer:
		orders, err = s.store.ListForCustomer(ctx, c.ID, 0)
	case auth.Seller:
		restaurant, rErr := s.catalog.RestaurantByOwner(ctx, c.ID)
		if errors.Is(rErr, repo.ErrNotFound) {
			return []OrderDetail{}, nil
		}
		if rErr != nil {
			return nil, apperr.Storage("restaurant lookup", rErr)
		}
		orders, err = s.store.ListForRestaurant(ctx, restaurant.ID)
	default:
		return nil, apperr.Forbidden()
	}
	if err != nil {
		return nil, apperr.Storage("list orders", err)
	}
	return s.details(ctx, orders)
}

// Previous returns the customer's last orders with reorder hints.
func (s *OrderService) Previous(ctx context.Context, caller auth.Caller) ([]PreviousOrder, error) {
	customer, ok := caller.(auth.Customer)
	if !ok {
		return nil, apperr.Forbidden()
	}

	orders, err := s.store.ListForCustomer(ctx, customer.ID, previousOrdersLimit)
	if err != nil {
		return nil, apperr.Storage("list orders", err)
	}
	counts, err := s.store.CountByRestaurant(ctx, customer.ID)
	if err != nil {
		return nil, apperr.Storage("count orders", err)
	}
	details, err := s.details(ctx, orders)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string)
	previous := make([]PreviousOrder, len(details))
	for i, d := range details {
		name, seen := names[d.RestaurantID]
		if !seen {
			rest, err := s.catalog.Restaurant(ctx, d.RestaurantID)
			switch {
			case errors.Is(err, repo.ErrNotFound):
			case err != nil:
				return nil, apperr.Storage("restaurant lookup", err)
			default:
				name = rest.Name
			}
			names[d.RestaurantID] = name
		}
		previous[i] = PreviousOrder{
			OrderDetail:    d,
			RestaurantName: name,
			Frequency:      counts[d.RestaurantID],
		}
	}
	return previous, nil
}

// Get returns one order to the customer who placed it or the owning seller.
func (s *OrderService) Get(ctx context.Context, caller auth.Caller, id int64) (*OrderDetail, error) {
	order, err := s.visibleOrder(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	details, err := s.details(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *OrderService) History(ctx context.Context, caller auth.Caller, id int64) ([]models.StatusChange, error) {
	if _, err := s.visibleOrder(ctx, caller, id); err != nil {
		return nil, err
	}
	changes, err := s.store.History(ctx, id)
	if err != nil {
		return nil, apperr.Storage("order history", err)
	}
	return changes, nil
}

func (s *OrderService) visibleOrder(ctx context.Context, caller auth.Caller, id int64) (*models.Order, error) {
	order, err := s.store.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound("order")
	}
	if err != nil {
		return nil, apperr.Storage("get order", err)
	}

	switch c := caller.(type) {
	case auth.Customer:
		if order.CustomerID == c.ID {
			return order, nil
		}
	case auth.Seller:
		owns, err := ownsRestaurant(ctx, s.catalog, c, order.RestaurantID)
		if err != nil {
			return nil, err
		}
		if owns {
			return order, nil
		}
	}
	return nil, apperr.Forbidden()
}

// details attaches the customer name and menu item names and images.
func (s *OrderService) details(ctx context.Context, orders []models.Order) ([]OrderDetail, error) {
	var ids, customers []int64
	seen := make(map[int64]bool)
	seenCustomer := make(map[int64]bool)
	for _, o := range orders {
		if !seenCustomer[o.CustomerID] {
			seenCustomer[o.CustomerID] = true
			customers = append(customers, o.CustomerID)
		}
		for _, item := range o.Items {
			if !seen[item.MenuItemID] {
				seen[item.MenuItemID] = true
				ids = append(ids, item.MenuItemID)
			}
		}
	}
	menu, err := s.catalog.MenuItems(ctx, ids)
	if err != nil {
		return nil, apperr.Storage("menu lookup", err)
	}
	names, err := s.catalog.UserNames(ctx, customers)
	if err != nil {
		return nil, apperr.Storage("customer lookup", err)
	}

	details := make([]OrderDetail, len(orders))
	for i, o := range orders {
		lines := make([]LineDetail, len(o.Items))
		for j, item := range o.Items {
			m := menu[item.MenuItemID]
			lines[j] = LineDetail{OrderItem: item, Name: m.Name, Image: m.Image}
		}
		details[i] = OrderDetail{Order: o, CustomerName: names[o.CustomerID], Lines: lines}
	}
	return details, nil
}

func (s *OrderService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		s.log.Error().Err(err).Str("event", string(e.Type)).Int64("order_id", e.OrderID).Msg("order event not delivered")
	}
}

// ownsRestaurant reports whether the seller owns the restaurant.
func ownsRestaurant(ctx context.Context, catalog Catalog, seller auth.Seller, restaurantID int64) (bool, error) {
	rest, err := catalog.Restaurant(ctx, restaurantID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Storage("restaurant lookup", err)
	}
	return rest.OwnerID == seller.ID, nil
}
