package repo

import (
	"context"
	"database/sql"
	"errors"

	"savorysync/internal/models"
)

// RestaurantRepo reads restaurants owned by the catalog. It never writes.
type RestaurantRepo struct {
	db *sql.DB
}

func NewRestaurantRepo(db *sql.DB) *RestaurantRepo {
	return &RestaurantRepo{db: db}
}

func (r *RestaurantRepo) Restaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	query := `
		SELECT id, name, owner_id, delivery_fee, active
		FROM restaurants
		WHERE id = $1`
	return scanRestaurant(r.db.QueryRowContext(ctx, query, id))
}

// RestaurantByOwner returns the first restaurant the user owns.
func (r *RestaurantRepo) RestaurantByOwner(ctx context.Context, ownerID int64) (*models.Restaurant, error) {
	query := `
		SELECT id, name, owner_id, delivery_fee, active
		FROM restaurants
		WHERE owner_id = $1
		ORDER BY id
		LIMIT 1`
	return scanRestaurant(r.db.QueryRowContext(ctx, query, ownerID))
}

func scanRestaurant(row *sql.Row) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := row.Scan(&rest.ID, &rest.Name, &rest.OwnerID, &rest.DeliveryFee, &rest.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rest, nil
}
