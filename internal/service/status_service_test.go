package service

import (
	"context"
	"testing"
	"time"

	"savorysync/internal/apperr"
	"savorysync/internal/auth"
	"savorysync/internal/events"
	"savorysync/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatusFixture(t *testing.T, status models.Status) (*StatusService, *memStore, *recorder, int64) {
	t.Helper()
	store := newMemStore()
	catalog := newMemCatalog()
	catalog.addRestaurant(models.Restaurant{ID: 1, Name: "Noodle Bar", OwnerID: 100, Active: true})
	catalog.addRestaurant(models.Restaurant{ID: 2, Name: "Taco Stand", OwnerID: 200, Active: true})
	store.put(models.Order{ID: 42, OrderNumber: "ORD-42", CustomerID: 7, RestaurantID: 1, Status: status, CreatedAt: fixedNow})

	pub := &recorder{}
	svc := NewStatusService(store, catalog, pub, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow.Add(time.Minute) }
	return svc, store, pub, 42
}

func TestTransitionGrid(t *testing.T) {
	all := []models.Status{
		models.StatusPending, models.StatusPreparing, models.StatusReady, models.StatusDelivered, models.StatusCancelled,
	}
	allowed := map[[2]models.Status]bool{
		{models.StatusPending, models.StatusPreparing}:   true,
		{models.StatusPending, models.StatusCancelled}:   true,
		{models.StatusPreparing, models.StatusReady}:     true,
		{models.StatusPreparing, models.StatusCancelled}: true,
		{models.StatusReady, models.StatusDelivered}:     true,
		{models.StatusReady, models.StatusCancelled}:     true,
	}

	for _, from := range all {
		for _, to := range all {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				svc, store, pub, id := newStatusFixture(t, from)
				updated, err := svc.Transition(context.Background(), auth.Seller{ID: 100}, id, string(to))

				stored, getErr := store.Get(context.Background(), id)
				require.NoError(t, getErr)

				if !allowed[[2]models.Status{from, to}] {
					assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "got %v", err)
					assert.Equal(t, from, stored.Status)
					assert.Empty(t, pub.published())
					return
				}
				require.NoError(t, err)
				assert.Equal(t, to, updated.Status)
				assert.Equal(t, to, stored.Status)

				published := pub.published()
				require.Len(t, published, 1)
				assert.Equal(t, events.OrderStatusChanged, published[0].Type)
				assert.Equal(t, from, published[0].PreviousStatus)
				assert.Equal(t, to, published[0].Status)
			})
		}
	}
}

func TestTransitionFullLifecycle(t *testing.T) {
	svc, store, _, id := newStatusFixture(t, models.StatusPending)
	ctx := context.Background()
	for _, next := range []string{"preparing", "ready", "delivered"} {
		_, err := svc.Transition(ctx, auth.Seller{ID: 100}, id, next)
		require.NoError(t, err, next)
	}

	changes, err := store.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, models.StatusPending, changes[0].FromStatus)
	assert.Equal(t, models.StatusDelivered, changes[2].ToStatus)
	assert.Equal(t, int64(100), changes[2].ChangedBy)

	_, err = svc.Transition(ctx, auth.Seller{ID: 100}, id, "cancelled")
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
	assert.Equal(t, "cannot change status from delivered to cancelled", apperr.Message(err))
}

func TestTransitionRejections(t *testing.T) {
	tests := []struct {
		name   string
		caller auth.Caller
		id     int64
		status string
		kind   apperr.Kind
	}{
		{"customer", auth.Customer{ID: 7}, 42, "preparing", apperr.KindForbidden},
		{"other seller", auth.Seller{ID: 200}, 42, "preparing", apperr.KindForbidden},
		{"unknown status", auth.Seller{ID: 100}, 42, "shipped", apperr.KindValidation},
		{"empty status", auth.Seller{ID: 100}, 42, "", apperr.KindValidation},
		{"missing order", auth.Seller{ID: 100}, 43, "preparing", apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, pub, id := newStatusFixture(t, models.StatusPending)
			_, err := svc.Transition(context.Background(), tt.caller, tt.id, tt.status)
			assert.Equal(t, tt.kind, apperr.KindOf(err), "got %v", err)

			stored, getErr := store.Get(context.Background(), id)
			require.NoError(t, getErr)
			assert.Equal(t, models.StatusPending, stored.Status)
			assert.Empty(t, pub.published())
		})
	}
}

func TestTransitionForbiddenHidesReason(t *testing.T) {
	svc, _, _, id := newStatusFixture(t, models.StatusPending)
	_, err := svc.Transition(context.Background(), auth.Seller{ID: 200}, id, "preparing")
	assert.Equal(t, "unauthorized", apperr.Message(err))
}
