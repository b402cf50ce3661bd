package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/advolink/advolink/internal/gateway"
	"github.com/advolink/advolink/internal/jobs"
)

// BookingHandler serves the booking endpoints. Every operation goes over the
// task queue: the handler publishes a job and blocks for the worker's answer,
// so the HTTP process never touches the booking store directly.
type BookingHandler struct {
	gw          *gateway.Gateway
	callTimeout time.Duration
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(gw *gateway.Gateway, callTimeout time.Duration) *BookingHandler {
	return &BookingHandler{
		gw:          gw,
		callTimeout: callTimeout,
	}
}

// Create handles POST /api/v1/bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID            string     `json:"client_id"`
		AdvocateID          string     `json:"advocate_id"`
		AppointmentDatetime *time.Time `json:"appointment_datetime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientID == "" || req.AdvocateID == "" || req.AppointmentDatetime == nil {
		writeError(w, http.StatusBadRequest, "client_id, advocate_id and appointment_datetime are required")
		return
	}

	args := jobs.BookingCreateArgs{
		ClientID:            req.ClientID,
		AdvocateID:          req.AdvocateID,
		AppointmentDatetime: *req.AppointmentDatetime,
		IdempotencyKey:      r.Header.Get("Idempotency-Key"),
	}

	payload, err := h.gw.Call(r.Context(), jobs.JobBookingCreate, args, h.callTimeout)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &created); err != nil || created.ID == "" {
		slog.Warn("Booking payload carried no id, skipping advocate notification", "error", err)
	} else {
		h.gw.Notify(jobs.JobBookingNotifyCreated, jobs.BookingNotifyArgs{
			BookingID:           created.ID,
			AdvocateID:          req.AdvocateID,
			AppointmentDatetime: *req.AppointmentDatetime,
		})
	}

	writeRaw(w, http.StatusCreated, payload)
}

// List handles GET /api/v1/bookings?client_id=
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "client_id required")
		return
	}

	payload, err := h.gw.Call(r.Context(), jobs.JobBookingGetForClient, jobs.BookingsForClientArgs{ClientID: clientID}, h.callTimeout)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeRaw(w, http.StatusOK, payload)
}

// Get handles GET /api/v1/bookings/{id}?client_id=
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request, bookingID string) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "client_id required")
		return
	}

	args := jobs.BookingDetailArgs{
		BookingID: bookingID,
		ClientID:  clientID,
	}

	payload, err := h.gw.Call(r.Context(), jobs.JobBookingGetDetail, args, h.callTimeout)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeRaw(w, http.StatusOK, payload)
}
