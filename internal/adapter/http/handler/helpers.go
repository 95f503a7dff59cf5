package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iho/cashdesk/internal/adapter/http/dto"
	"github.com/iho/cashdesk/internal/adapter/http/middleware"
	"github.com/iho/cashdesk/internal/domain"
)

const dateLayout = "2006-01-02"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// respond writes data wrapped in the standard envelope.
func respond(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, dto.Envelope{Message: message, Data: data})
}

// respondPage writes one page of a listing wrapped in the standard envelope.
func respondPage(w http.ResponseWriter, message string, data any, pagination *dto.Pagination) {
	writeJSON(w, http.StatusOK, dto.Envelope{Message: message, Data: data, Pagination: pagination})
}

// writeDomainError maps err onto a status code. Server errors are logged and their
// details withheld from the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := mapDomainError(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(message)
		writeError(w, status, message, "")
		return
	}
	writeError(w, status, message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInactiveCustomer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUserInactive):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBusinessRule):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseDateQuery reads a calendar date (2006-01-02) or an RFC 3339 timestamp.
// Calendar dates are interpreted in loc.
func parseDateQuery(r *http.Request, key string, loc *time.Location) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(dateLayout, val, loc); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, domain.Validationf("%s must be a date like 2024-01-31", key)
	}
	t = t.In(loc)
	return &t, nil
}

// dateWindow reads the dateFilter, startDate and endDate query parameters.
func dateWindow(r *http.Request, loc *time.Location) (domain.DateFilter, *time.Time, *time.Time, error) {
	start, err := parseDateQuery(r, "startDate", loc)
	if err != nil {
		return "", nil, nil, err
	}
	end, err := parseDateQuery(r, "endDate", loc)
	if err != nil {
		return "", nil, nil, err
	}
	return domain.DateFilter(r.URL.Query().Get("dateFilter")), start, end, nil
}

// requireActor returns the authenticated caller or writes 401.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return domain.Actor{}, false
	}
	return actor, true
}

// decodeJSON decodes the request body into v, writing 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

func exportedMessage(kind string, format string) string {
	return fmt.Sprintf("%s exported to %s successfully", kind, format)
}
