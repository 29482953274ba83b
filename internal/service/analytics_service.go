package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"savorysync/internal/apperr"
	"savorysync/internal/auth"
	"savorysync/internal/models"
	"savorysync/internal/repo"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	popularItemsLimit = 5
	maxWindowDays     = 365
)

// OrderFilter selects which windowed orders are aggregated.
type OrderFilter func(models.Order) bool

// AllOrders counts every order, cancelled ones included.
func AllOrders(models.Order) bool { return true }

// ExcludeCancelled drops cancelled orders from the aggregates.
func ExcludeCancelled(o models.Order) bool { return o.Status != models.StatusCancelled }

// AnalyticsService computes sales summaries on demand. Nothing is cached.
type AnalyticsService struct {
	store         OrderStore
	catalog       Catalog
	defaultWindow int
	counts        OrderFilter
	now           func() time.Time
}

func NewAnalyticsService(store OrderStore, catalog Catalog, defaultWindowDays int) *AnalyticsService {
	return &AnalyticsService{
		store:         store,
		catalog:       catalog,
		defaultWindow: defaultWindowDays,
		counts:        AllOrders,
		now:           time.Now,
	}
}

// SalesForOwner summarizes the restaurant the seller owns.
func (s *AnalyticsService) SalesForOwner(ctx context.Context, caller auth.Caller, windowDays int) (*models.Summary, error) {
	seller, ok := caller.(auth.Seller)
	if !ok {
		return nil, apperr.Forbidden()
	}
	rest, err := s.catalog.RestaurantByOwner(ctx, seller.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound("restaurant")
	}
	if err != nil {
		return nil, apperr.Storage("restaurant lookup", err)
	}
	return s.summarize(ctx, rest.ID, windowDays)
}

// Summarize summarizes restaurantID if the seller owns it.
func (s *AnalyticsService) Summarize(ctx context.Context, caller auth.Caller, restaurantID int64, windowDays int) (*models.Summary, error) {
	seller, ok := caller.(auth.Seller)
	if !ok {
		return nil, apperr.Forbidden()
	}
	rest, err := s.catalog.Restaurant(ctx, restaurantID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound("restaurant")
	}
	if err != nil {
		return nil, apperr.Storage("restaurant lookup", err)
	}
	if rest.OwnerID != seller.ID {
		return nil, apperr.Forbidden()
	}
	return s.summarize(ctx, rest.ID, windowDays)
}

func (s *AnalyticsService) summarize(ctx context.Context, restaurantID int64, windowDays int) (*models.Summary, error) {
	if windowDays == 0 {
		windowDays = s.defaultWindow
	}
	if windowDays < 1 || windowDays > maxWindowDays {
		return nil, apperr.Validation("window must be between 1 and %d days", maxWindowDays)
	}
	since := s.now().UTC().Add(-time.Duration(windowDays) * 24 * time.Hour)

	var orders []models.Order
	var menu map[int64]models.MenuItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.store.ListForRestaurantSince(gctx, restaurantID, since)
		return err
	})
	g.Go(func() error {
		var err error
		menu, err = s.catalog.MenuForRestaurant(gctx, restaurantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Storage("analytics read", err)
	}

	summary := Aggregate(orders, menu, s.counts)
	summary.RestaurantID = restaurantID
	summary.WindowDays = windowDays
	return &summary, nil
}

// Aggregate computes revenue, volume and the top items over orders. Only
// orders accepted by counts take part. Popularity counts order lines, not
// quantities, for items present in menu; ties go to the lower item id.
func Aggregate(orders []models.Order, menu map[int64]models.MenuItem, counts OrderFilter) models.Summary {
	revenue := decimal.Zero
	total := 0
	lines := make(map[int64]int)
	for _, o := range orders {
		if !counts(o) {
			continue
		}
		revenue = revenue.Add(o.TotalAmount)
		total++
		for _, item := range o.Items {
			if _, ok := menu[item.MenuItemID]; ok {
				lines[item.MenuItemID]++
			}
		}
	}

	avg := decimal.Zero
	if total > 0 {
		avg = revenue.Div(decimal.NewFromInt(int64(total)))
	}

	popular := make([]models.PopularItem, 0, len(lines))
	for id, n := range lines {
		m := menu[id]
		popular = append(popular, models.PopularItem{ID: id, Name: m.Name, Image: m.Image, OrderCount: n})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].OrderCount != popular[j].OrderCount {
			return popular[i].OrderCount > popular[j].OrderCount
		}
		return popular[i].ID < popular[j].ID
	})
	if len(popular) > popularItemsLimit {
		popular = popular[:popularItemsLimit]
	}

	return models.Summary{
		TotalRevenue:  revenue,
		TotalOrders:   total,
		AvgOrderValue: avg,
		PopularItems:  popular,
	}
}
