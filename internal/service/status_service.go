package service

import (
	"context"
	"errors"
	"time"

	"savorysync/internal/apperr"
	"savorysync/internal/auth"
	"savorysync/internal/events"
	"savorysync/internal/models"
	"savorysync/internal/repo"

	"github.com/rs/zerolog"
)

// StatusService moves orders through pending -> preparing -> ready -> delivered,
// with cancelled reachable from any non-terminal status.
type StatusService struct {
	store     OrderStore
	catalog   Catalog
	publisher events.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewStatusService(store OrderStore, catalog Catalog, publisher events.Publisher, log zerolog.Logger) *StatusService {
	return &StatusService{
		store:     store,
		catalog:   catalog,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Transition applies next to the order. Only the seller owning the order's
// restaurant may do so.
func (s *StatusService) Transition(ctx context.Context, caller auth.Caller, orderID int64, next string) (*models.Order, error) {
	seller, ok := caller.(auth.Seller)
	if !ok {
		return nil, apperr.Forbidden()
	}
	status, err := models.ParseStatus(next)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}

	order, err := s.store.Get(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound("order")
	}
	if err != nil {
		return nil, apperr.Storage("get order", err)
	}
	owns, err := ownsRestaurant(ctx, s.catalog, seller, order.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, apperr.Forbidden()
	}

	var previous models.Status
	at := s.now().UTC()
	updated, err := s.store.UpdateStatus(ctx, orderID, status, seller.ID, at, func(current models.Status) error {
		if !current.CanTransition(status) {
			return apperr.InvalidTransition(string(current), string(status))
		}
		previous = current
		return nil
	})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, apperr.NotFound("order")
	case apperr.Is(err, apperr.KindInvalidTransition):
		return nil, err
	case err != nil:
		return nil, apperr.Storage("update status", err)
	}

	s.log.Info().
		Int64("order_id", orderID).
		Str("from", string(previous)).
		Str("to", string(status)).
		Int64("seller_id", seller.ID).
		Msg("order status changed")
	if err := s.publisher.Publish(context.WithoutCancel(ctx), events.NewOrderEvent(events.OrderStatusChanged, updated, previous, at)); err != nil {
		s.log.Error().Err(err).Int64("order_id", orderID).Msg("order event not delivered")
	}
	return updated, nil
}
