package service

import (
	"context"
	"encoding/json"

	"savorysync/internal/apperr"

	"github.com/shopspring/decimal"
)

type LineRequest struct {
	MenuItemID     int64
	Quantity       int
	UnitPriceHint  decimal.Decimal
	Customizations json.RawMessage
}

// LinePricer decides the unit price stored for each line. It is the only
// place catalog prices could be enforced; order math never looks elsewhere.
type LinePricer interface {
	UnitPrices(ctx context.Context, restaurantID int64, lines []LineRequest) ([]decimal.Decimal, error)
}

// TrustedPricer keeps the caller-supplied prices.
type TrustedPricer struct{}

func (TrustedPricer) UnitPrices(_ context.Context, _ int64, lines []LineRequest) ([]decimal.Decimal, error) {
	prices := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		prices[i] = l.UnitPriceHint
	}
	return prices, nil
}

// CatalogPricer uses the catalog price and rejects items that are
// inactive, unknown or sold by another restaurant.
type CatalogPricer struct {
	catalog Catalog
}

func NewCatalogPricer(c Catalog) *CatalogPricer {
	return &CatalogPricer{catalog: c}
}

func (p *CatalogPricer) UnitPrices(ctx context.Context, restaurantID int64, lines []LineRequest) ([]decimal.Decimal, error) {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.MenuItemID
	}
	items, err := p.catalog.MenuItems(ctx, ids)
	if err != nil {
		return nil, apperr.Storage("catalog lookup", err)
	}

	prices := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		item, ok := items[l.MenuItemID]
		if !ok || !item.Active || item.RestaurantID != restaurantID {
			return nil, apperr.Validation("items[%d]: menu item %d is not available at this restaurant", i, l.MenuItemID)
		}
		prices[i] = item.Price
	}
	return prices, nil
}
