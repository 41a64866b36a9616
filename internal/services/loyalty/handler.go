package loyalty

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"hoaban-restaurant/internal/logger"
	"hoaban-restaurant/internal/models"
	"hoaban-restaurant/internal/server"
)

const requestTimeout = 30 * time.Second

// Handler handles HTTP requests for the loyalty service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new loyalty handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the loyalty routes on the mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /loyalty/points", h.Points)
	mux.HandleFunc("GET /loyalty/wallet", h.Wallet)
	mux.HandleFunc("GET /loyalty/vouchers", h.Redeemable)
	mux.HandleFunc("POST /loyalty/redeem", h.Redeem)
}

// Points handles GET /loyalty/points
func (h *Handler) Points(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to see your points", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	points, err := h.service.Points(ctx, *id.UserID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]int64{"points": points})
}

// Wallet handles GET /loyalty/wallet
func (h *Handler) Wallet(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to see your vouchers", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	wallet, err := h.service.Wallet(ctx, *id.UserID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	if wallet == nil {
		wallet = []models.UserVoucher{}
	}
	server.WriteJSON(w, http.StatusOK, wallet)
}

// Redeemable handles GET /loyalty/vouchers
func (h *Handler) Redeemable(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to browse point vouchers", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	vouchers, err := h.service.Redeemable(ctx, *id.UserID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	if vouchers == nil {
		vouchers = []models.Voucher{}
	}
	server.WriteJSON(w, http.StatusOK, vouchers)
}

// Redeem handles POST /loyalty/redeem: body carries a voucher id or a
// code, points are debited and the voucher lands in the wallet.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to redeem points", requestID)
		return
	}

	var req struct {
		VoucherID *uuid.UUID `json:"voucher_id,omitempty"`
		Code      string     `json:"code,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var (
		uv  *models.UserVoucher
		err error
	)
	switch {
	case req.VoucherID != nil:
		uv, err = h.service.RedeemByID(ctx, *id.UserID, *req.VoucherID)
	case req.Code != "":
		uv, err = h.service.RedeemByCode(ctx, *id.UserID, req.Code)
	default:
		server.WriteErrorMessage(w, http.StatusBadRequest, "A voucher id or code is required", requestID)
		return
	}
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("voucher_redeemed", "Voucher bought with points", requestID, map[string]interface{}{
		"user_id":    id.UserID.String(),
		"voucher_id": uv.VoucherID.String(),
		"point_cost": uv.Voucher.PointCost,
	})
	server.WriteJSON(w, http.StatusCreated, uv)
}
