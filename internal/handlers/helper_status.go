package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"hirelyBack/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("encode response: %v", err)
		}
	}
}

// writeError maps the service error taxonomy onto HTTP statuses. A closed
// chat refusal carries the close reason so clients can explain it.
func writeError(w http.ResponseWriter, err error) {
	var closed *models.ChatClosedError
	if errors.As(err, &closed) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":         closed.Error(),
			"closed_reason": string(closed.Reason),
		})
		return
	}

	var status int
	switch {
	case errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrChatNotFound),
		errors.Is(err, models.ErrServiceNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrMessageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrDuplicatePhone):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// callerID reads the authenticated user injected by the JWT middleware.
func callerID(r *http.Request) (int, bool) {
	id, ok := r.Context().Value("user_id").(int)
	return id, ok
}

func requireCaller(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := callerID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}
	return id, ok
}
