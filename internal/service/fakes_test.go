package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"savorysync/internal/events"
	"savorysync/internal/models"
	"savorysync/internal/repo"
)

// memStore is an in-memory OrderStore.
type memStore struct {
	mu      sync.Mutex
	orders  map[int64]*models.Order
	numbers map[string]bool
	history map[int64][]models.StatusChange
	nextID  int64
	nextRow int64

	failCreate error
	failList   error
}

func newMemStore() *memStore {
	return &memStore{
		orders:  make(map[int64]*models.Order),
		numbers: make(map[string]bool),
		history: make(map[int64][]models.StatusChange),
	}
}

func (s *memStore) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	if s.numbers[order.OrderNumber] {
		return repo.ErrDuplicateOrderNumber
	}
	s.nextID++
	order.ID = s.nextID
	for i := range order.Items {
		s.nextRow++
		order.Items[i].ID = s.nextRow
		order.Items[i].OrderID = order.ID
	}
	s.numbers[order.OrderNumber] = true
	s.orders[order.ID] = cloneOrder(order)
	s.history[order.ID] = append(s.history[order.ID], models.StatusChange{
		OrderID: order.ID, ToStatus: order.Status, ChangedBy: order.CustomerID, ChangedAt: order.CreatedAt,
	})
	return nil
}

func (s *memStore) Get(_ context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *memStore) list(keep func(*models.Order) bool, limit int) []models.Order {
	var out []models.Order
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memStore) ListForCustomer(_ context.Context, customerID int64, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	return s.list(func(o *models.Order) bool { return o.CustomerID == customerID }, limit), nil
}

func (s *memStore) ListForRestaurant(_ context.Context, restaurantID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	return s.list(func(o *models.Order) bool { return o.RestaurantID == restaurantID }, 0), nil
}

func (s *memStore) ListForRestaurantSince(_ context.Context, restaurantID int64, since time.Time) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	return s.list(func(o *models.Order) bool {
		return o.RestaurantID == restaurantID && !o.CreatedAt.Before(since)
	}, 0), nil
}

func (s *memStore) CountByRestaurant(_ context.Context, customerID int64) (map[int64]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[int64]int)
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			counts[o.RestaurantID]++
		}
	}
	return counts, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id int64, next models.Status, changedBy int64, at time.Time,
	check func(current models.Status) error) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if err := check(o.Status); err != nil {
		return nil, err
	}
	s.history[id] = append(s.history[id], models.StatusChange{
		OrderID: id, FromStatus: o.Status, ToStatus: next, ChangedBy: changedBy, ChangedAt: at,
	})
	o.Status = next
	o.UpdatedAt = at
	return cloneOrder(o), nil
}

func (s *memStore) History(_ context.Context, orderID int64) ([]models.StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.StatusChange(nil), s.history[orderID]...), nil
}

// put stores o as is, bypassing order building.
func (s *memStore) put(o models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		s.nextID++
		o.ID = s.nextID
	} else if o.ID > s.nextID {
		s.nextID = o.ID
	}
	s.orders[o.ID] = cloneOrder(&o)
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return &c
}

// memCatalog is an in-memory Catalog.
type memCatalog struct {
	restaurants map[int64]models.Restaurant
	items       map[int64]models.MenuItem
	users       map[int64]string
	fail        error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		restaurants: make(map[int64]models.Restaurant),
		items:       make(map[int64]models.MenuItem),
		users:       make(map[int64]string),
	}
}

func (c *memCatalog) addRestaurant(r models.Restaurant) { c.restaurants[r.ID] = r }

func (c *memCatalog) addItem(m models.MenuItem) { c.items[m.ID] = m }

func (c *memCatalog) Restaurant(_ context.Context, id int64) (*models.Restaurant, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	r, ok := c.restaurants[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &r, nil
}

func (c *memCatalog) RestaurantByOwner(_ context.Context, ownerID int64) (*models.Restaurant, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	var found *models.Restaurant
	for _, r := range c.restaurants {
		if r.OwnerID == ownerID && (found == nil || r.ID < found.ID) {
			r := r
			found = &r
		}
	}
	if found == nil {
		return nil, repo.ErrNotFound
	}
	return found, nil
}

func (c *memCatalog) MenuItems(_ context.Context, ids []int64) (map[int64]models.MenuItem, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	out := make(map[int64]models.MenuItem, len(ids))
	for _, id := range ids {
		if m, ok := c.items[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (c *memCatalog) MenuForRestaurant(_ context.Context, restaurantID int64) (map[int64]models.MenuItem, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	out := make(map[int64]models.MenuItem)
	for id, m := range c.items {
		if m.RestaurantID == restaurantID {
			out[id] = m
		}
	}
	return out, nil
}

func (c *memCatalog) UserNames(_ context.Context, ids []int64) (map[int64]string, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	out := make(map[int64]string, len(ids))
	for _, id := range ids {
		if name, ok := c.users[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) published() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

var errBoom = errors.New("connection reset")
