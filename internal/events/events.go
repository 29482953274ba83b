package events

import (
	"context"
	"errors"
	"time"

	"savorysync/internal/models"

	"github.com/shopspring/decimal"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
)

type Event struct {
	Type           Type            `json:"type"`
	OrderID        int64           `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	RestaurantID   int64           `json:"restaurant_id"`
	CustomerID     int64           `json:"customer_id"`
	Status         models.Status   `json:"status"`
	PreviousStatus models.Status   `json:"previous_status,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func NewOrderEvent(t Type, o *models.Order, previous models.Status, at time.Time) Event {
	return Event{
		Type:           t,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		RestaurantID:   o.RestaurantID,
		CustomerID:     o.CustomerID,
		Status:         o.Status,
		PreviousStatus: previous,
		TotalAmount:    o.TotalAmount,
		OccurredAt:     at,
	}
}

// Publisher delivers order events after the order change is committed.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
