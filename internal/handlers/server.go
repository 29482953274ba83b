package handlers

import (
	"context"
	"net/http"

	"savorysync/internal/auth"
	"savorysync/internal/models"
	"savorysync/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type OrderAPI interface {
	Create(ctx context.Context, caller auth.Caller, req service.CreateOrderRequest) (*models.Order, error)
	List(ctx context.Context, caller auth.Caller) ([]service.OrderDetail, error)
	Previous(ctx context.Context, caller auth.Caller) ([]service.PreviousOrder, error)
	Get(ctx context.Context, caller auth.Caller, id int64) (*service.OrderDetail, error)
	History(ctx context.Context, caller auth.Caller, id int64) ([]models.StatusChange, error)
}

type StatusAPI interface {
	Transition(ctx context.Context, caller auth.Caller, orderID int64, next string) (*models.Order, error)
}

type AnalyticsAPI interface {
	SalesForOwner(ctx context.Context, caller auth.Caller, windowDays int) (*models.Summary, error)
	Summarize(ctx context.Context, caller auth.Caller, restaurantID int64, windowDays int) (*models.Summary, error)
}

// TokenVerifier turns a bearer token into a caller.
type TokenVerifier interface {
	Verify(token string) (auth.Caller, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server is the HTTP surface of the order service.
type Server struct {
	orders    OrderAPI
	status    StatusAPI
	analytics AnalyticsAPI
	verifier  TokenVerifier
	db        Pinger
	log       zerolog.Logger
}

func NewServer(orders OrderAPI, status StatusAPI, analytics AnalyticsAPI, verifier TokenVerifier, db Pinger, log zerolog.Logger) *Server {
	return &Server{
		orders:    orders,
		status:    status,
		analytics: analytics,
		verifier:  verifier,
		db:        db,
		log:       log,
	}
}

// Routes mounts every endpoint under /api.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method_not_allowed", "method not allowed"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.healthCheck)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", s.createOrder)
				r.Get("/", s.listOrders)
				r.Get("/previous", s.previousOrders)
				r.Get("/{id}", s.getOrder)
				r.Get("/{id}/history", s.orderHistory)
				r.Put("/{id}/status", s.updateStatus)
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/sales", s.sales)
				r.Get("/restaurants/{id}/sales", s.restaurantSales)
			})
		})
	})
	return r
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
