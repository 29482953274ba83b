package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"savorysync/internal/apperr"
	"savorysync/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

func errorBody(kind, message string) errorResponse {
	return errorResponse{Error: errorDetail{Kind: kind, Message: message}}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto its status and body. Storage causes are logged, never sent.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindStorage {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, statusFor(kind), errorBody(string(kind), apperr.Message(err)))
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var syntax *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typ):
			return apperr.Validation("invalid value for %s", typ.Field)
		case errors.As(err, &syntax):
			return apperr.Validation("malformed JSON body")
		default:
			return apperr.Validation("invalid JSON body")
		}
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// windowDays reads ?days=N. Absent means the configured default.
func windowDays(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		return 0, apperr.Validation("days must be a positive integer")
	}
	return days, nil
}

// callerFrom returns the authenticated caller. Routes behind authenticate always have one.
func callerFrom(r *http.Request) (auth.Caller, error) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		return nil, apperr.Unauthorized("missing bearer token")
	}
	return caller, nil
}
