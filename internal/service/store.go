package service

import (
	"context"
	"time"

	"savorysync/internal/models"
)

// OrderStore is the durable order storage. Create and UpdateStatus are atomic.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id int64) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID int64, limit int) ([]models.Order, error)
	ListForRestaurant(ctx context.Context, restaurantID int64) ([]models.Order, error)
	ListForRestaurantSince(ctx context.Context, restaurantID int64, since time.Time) ([]models.Order, error)
	CountByRestaurant(ctx context.Context, customerID int64) (map[int64]int, error)
	UpdateStatus(ctx context.Context, id int64, next models.Status, changedBy int64, at time.Time,
		check func(current models.Status) error) (*models.Order, error)
	History(ctx context.Context, orderID int64) ([]models.StatusChange, error)
}

// Catalog is the read-only view of restaurants, menu items and user names.
type Catalog interface {
	Restaurant(ctx context.Context, id int64) (*models.Restaurant, error)
	RestaurantByOwner(ctx context.Context, ownerID int64) (*models.Restaurant, error)
	MenuItems(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error)
	MenuForRestaurant(ctx context.Context, restaurantID int64) (map[int64]models.MenuItem, error)
	UserNames(ctx context.Context, ids []int64) (map[int64]string, error)
}
