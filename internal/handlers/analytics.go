package handlers

import "net/http"

// sales summarizes the caller's own restaurant.
func (s *Server) sales(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := windowDays(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.analytics.SalesForOwner(r.Context(), caller, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSalesView(summary))
}

func (s *Server) restaurantSales(w http.ResponseWriter, r *http.Request) {
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
	days, err := windowDays(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.analytics.Summarize(r.Context(), caller, id, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSalesView(summary))
}
