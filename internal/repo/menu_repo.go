package repo

import (
	"context"
	"database/sql"

	"savorysync/internal/models"

	"github.com/lib/pq"
)

const menuColumns = `id, restaurant_id, name, price, image, active, created_at`

// MenuRepo reads menu items owned by the catalog. It never writes.
type MenuRepo struct {
	db *sql.DB
}

func NewMenuRepo(db *sql.DB) *MenuRepo {
	return &MenuRepo{db: db}
}

// MenuItems looks up items by id, including inactive ones. Unknown ids are absent from the map.
func (r *MenuRepo) MenuItems(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error) {
	if len(ids) == 0 {
		return map[int64]models.MenuItem{}, nil
	}
	query := `SELECT ` + menuColumns + `
		FROM menu_items
		WHERE id = ANY($1)`
	return r.queryItems(ctx, query, pq.Array(ids))
}

// MenuForRestaurant returns every item of the restaurant, active or not.
func (r *MenuRepo) MenuForRestaurant(ctx context.Context, restaurantID int64) (map[int64]models.MenuItem, error) {
	query := `SELECT ` + menuColumns + `
		FROM menu_items
		WHERE restaurant_id = $1`
	return r.queryItems(ctx, query, restaurantID)
}

func (r *MenuRepo) queryItems(ctx context.Context, query string, args ...any) (map[int64]models.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int64]models.MenuItem)
	for rows.Next() {
		var item models.MenuItem
		var image sql.NullString
		err := rows.Scan(
			&item.ID, &item.RestaurantID, &item.Name, &item.Price,
			&image, &item.Active, &item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		item.Image = image.String
		items[item.ID] = item
	}
	return items, rows.Err()
}

// Catalog groups the read-only catalog repositories.
type Catalog struct {
	*RestaurantRepo
	*MenuRepo
	*UserRepo
}

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{
		RestaurantRepo: NewRestaurantRepo(db),
		MenuRepo:       NewMenuRepo(db),
		UserRepo:       NewUserRepo(db),
	}
}
