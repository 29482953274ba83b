package handlers

import (
	"net/http"
)

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := s.orders.Create(r.Context(), caller, req.toService())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createOrderResponse{
		Message: "Order created successfully",
		Order: createdOrder{
			ID:          order.ID,
			OrderNumber: order.OrderNumber,
			TotalAmount: money(order.TotalAmount),
			Status:      order.Status,
		},
	})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	orders, err := s.orders.List(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]orderView, len(orders))
	for i, o := range orders {
		views[i] = newOrderView(o)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) previousOrders(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	previous, err := s.orders.Previous(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]previousOrderView, len(previous))
	for i, p := range previous {
		views[i] = newPreviousOrderView(p)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := s.orders.Get(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderDetailView(*order))
}

func (s *Server) orderHistory(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	changes, err := s.orders.History(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]statusChangeView, len(changes))
	for i, c := range changes {
		views[i] = statusChangeView{
			FromStatus: c.FromStatus,
			ToStatus:   c.ToStatus,
			ChangedBy:  c.ChangedBy,
			ChangedAt:  c.ChangedAt.UTC(),
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := s.status.Transition(r.Context(), caller, id, req.Status); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Order status updated successfully"})
}
