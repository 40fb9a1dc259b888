package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"hirelyBack/internal/models"
	"hirelyBack/internal/services"
)

type ServiceHandler struct {
	Service *services.ServiceService
}

func (h *ServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var svc models.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	svc.ProviderID = userID
	created, err := h.Service.CreateService(r.Context(), svc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get(":id"))
	if err != nil {
		http.Error(w, "Invalid service id", http.StatusBadRequest)
		return
	}
	svc, err := h.Service.GetServiceByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *ServiceHandler) ListMyServices(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	list, err := h.Service.GetServicesByProvider(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": list})
}
