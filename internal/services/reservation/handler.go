package reservation

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"hoaban-restaurant/internal/logger"
	"hoaban-restaurant/internal/server"
)

const requestTimeout = 30 * time.Second

// Handler handles HTTP requests for the reservation service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new reservation handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the reservation routes on the mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /reservations", h.Create)
	mux.HandleFunc("GET /reservations", h.ListAll)
	mux.HandleFunc("GET /reservations/my", h.ListMine)
	mux.HandleFunc("GET /reservations/stats/today", h.StatsToday)
	mux.HandleFunc("GET /reservations/available-tables", h.AvailableTables)
	mux.HandleFunc("GET /reservations/{id}", h.Get)
	mux.HandleFunc("PUT /reservations/{id}/tables", h.AssignTables)
	mux.HandleFunc("POST /reservations/{id}/cancel", h.Cancel)
	mux.HandleFunc("POST /reservations/{id}/complete", h.Complete)
}

// Create handles POST /reservations
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to book a table", requestID)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.service.Create(ctx, *id.UserID, req)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("reservation_created", "Reservation created", requestID, map[string]interface{}{
		"reservation_id": res.ID.String(),
		"party_size":     res.PartySize,
	})
	server.WriteJSON(w, http.StatusCreated, res)
}

// Get handles GET /reservations/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)

	resID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid reservation id", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.service.GetByID(ctx, resID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	if !id.Elevated() && (id.UserID == nil || *id.UserID != res.UserID) {
		server.WriteErrorMessage(w, http.StatusForbidden, "This reservation is not yours", requestID)
		return
	}
	server.WriteJSON(w, http.StatusOK, res)
}

// ListAll handles GET /reservations (staff only)
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	if !server.IdentityFrom(r).Elevated() {
		server.WriteErrorMessage(w, http.StatusForbidden, "Only staff can list all reservations", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	reservations, err := h.service.ListAll(ctx)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, reservations)
}

// ListMine handles GET /reservations/my
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to see your reservations", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	reservations, err := h.service.ListByUser(ctx, *id.UserID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, reservations)
}

// AvailableTables handles GET /reservations/available-tables?start=...&end=...
func (h *Handler) AvailableTables(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "start must be an RFC3339 timestamp", requestID)
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "end must be an RFC3339 timestamp", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	tables, err := h.service.AvailableTables(ctx, start, end)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, tables)
}

// AssignTables handles PUT /reservations/{id}/tables (staff only)
func (h *Handler) AssignTables(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	if !server.IdentityFrom(r).Elevated() {
		server.WriteErrorMessage(w, http.StatusForbidden, "Only staff can assign tables", requestID)
		return
	}

	resID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid reservation id", requestID)
		return
	}

	var req struct {
		TableIDs []uuid.UUID `json:"table_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.service.AssignTables(ctx, resID, req.TableIDs)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("reservation_confirmed", "Tables assigned and reservation confirmed", requestID, map[string]interface{}{
		"reservation_id": res.ID.String(),
		"tables":         len(res.Tables),
	})
	server.WriteJSON(w, http.StatusOK, res)
}

// Cancel handles POST /reservations/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to cancel a reservation", requestID)
		return
	}

	resID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid reservation id", requestID)
		return
	}

	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var res interface{}
	if id.Elevated() {
		res, err = h.service.CancelByStaff(ctx, resID, id.Actor, *id.UserID, req.Reason)
	} else {
		res, err = h.service.CancelByUser(ctx, resID, *id.UserID, req.Reason)
	}
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("reservation_cancelled", "Reservation cancelled", requestID, map[string]interface{}{
		"reservation_id": resID.String(),
	})
	server.WriteJSON(w, http.StatusOK, res)
}

// Complete handles POST /reservations/{id}/complete (staff only)
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	if !server.IdentityFrom(r).Elevated() {
		server.WriteErrorMessage(w, http.StatusForbidden, "Only staff can complete reservations", requestID)
		return
	}

	resID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid reservation id", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.service.Complete(ctx, resID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, res)
}
