package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"hirelyBack/internal/models"
	"hirelyBack/internal/services"
)

type BookingHandler struct {
	Service *services.BookingService
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req models.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	booking, err := h.Service.CreateBooking(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.URL.Query().Get(":id"))
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}
	booking, err := h.Service.GetBooking(r.Context(), id, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	bookings, err := h.Service.ListBookings(r.Context(), userID, status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *BookingHandler) AcceptBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Accept)
}

func (h *BookingHandler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.URL.Query().Get(":id"))
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}
	var req models.CancelBookingRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	booking, err := h.Service.Reject(r.Context(), id, userID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.URL.Query().Get(":id"))
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}
	var req models.CancelBookingRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	booking, err := h.Service.Cancel(r.Context(), id, userID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) StartBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Start)
}

func (h *BookingHandler) InitiateCompletion(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.InitiateCompletion)
}

func (h *BookingHandler) ConfirmCompletion(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.ConfirmCompletion)
}

// CompleteBooking keeps the pre-handshake endpoint alive: the first caller
// initiates, the peer's call confirms.
func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.URL.Query().Get(":id"))
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}
	booking, needsPeer, err := h.Service.Complete(r.Context(), id, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking":                booking,
		"requires_confirmation":  needsPeer,
		"confirmation_from_peer": !needsPeer,
	})
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, bookingID, actorID int) (models.Booking, error)) {
	userID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.URL.Query().Get(":id"))
	if err != nil {
		http.Error(w, "Invalid booking id", http.StatusBadRequest)
		return
	}
	booking, err := op(r.Context(), id, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
