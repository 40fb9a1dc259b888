package handlers

import (
	"encoding/json"
	"net/http"

	"hirelyBack/internal/models"
	"hirelyBack/internal/repositories"
)

// FCMHandler registers and removes device push tokens.
type FCMHandler struct {
	Tokens *repositories.NotifyTokenRepository
}

func (h *FCMHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req models.NotifyTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	if err := h.Tokens.InsertToken(r.Context(), userID, req.Token); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *FCMHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireCaller(w, r); !ok {
		return
	}
	token := r.URL.Query().Get(":token")
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	if err := h.Tokens.DeleteToken(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
