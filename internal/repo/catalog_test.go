package repo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogMenuItems(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	catalog := NewCatalog(conn)

	items, err := catalog.MenuItems(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)

	mock.ExpectQuery(regexp.QuoteMeta("FROM menu_items")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "restaurant_id", "name", "price", "image", "active", "created_at"}).
			AddRow(11, 1, "Margherita", "9.50", "🍕", true, time.Now()).
			AddRow(12, 2, "Ramen", "12.00", nil, false, time.Now()))

	items, err = catalog.MenuItems(context.Background(), []int64{11, 12, 13})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Margherita", items[11].Name)
	assert.Equal(t, "9.5", items[11].Price.String())
	assert.Equal(t, "", items[12].Image)
	assert.False(t, items[12].Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRestaurantByOwner(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	catalog := NewCatalog(conn)

	cols := []string{"id", "name", "owner_id", "delivery_fee", "active"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner_id = $1")).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "Luigi's", 7, "2.00", true))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner_id = $1")).WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(cols))

	rest, err := catalog.RestaurantByOwner(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rest.ID)
	assert.Equal(t, "Luigi's", rest.Name)

	_, err = catalog.RestaurantByOwner(context.Background(), 8)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogUserNames(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	catalog := NewCatalog(conn)

	names, err := catalog.UserNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, names)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Ann").AddRow(4, "Bo"))

	names, err = catalog.UserNames(context.Background(), []int64{3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{3: "Ann", 4: "Bo"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}
