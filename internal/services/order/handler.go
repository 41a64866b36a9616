package order

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/logger"
	"hoaban-restaurant/internal/models"
	"hoaban-restaurant/internal/ratelimit"
	"hoaban-restaurant/internal/server"
)

const requestTimeout = 30 * time.Second

// Handler handles HTTP requests for the order service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the order routes on the mux. The token-open endpoint
// faces the open internet (printed QR codes), so it sits behind the
// rate limiter.
func (h *Handler) Register(mux *http.ServeMux, limiter *ratelimit.Limiter) {
	mux.HandleFunc("POST /orders", h.Create)
	mux.HandleFunc("POST /orders/open", server.WithRateLimit(limiter, h.OpenByToken))
	mux.HandleFunc("GET /orders", h.ListAll)
	mux.HandleFunc("GET /orders/my", h.ListMine)
	mux.HandleFunc("GET /orders/stats/today", h.StatsToday)
	mux.HandleFunc("GET /orders/{id}", h.Get)
	mux.HandleFunc("POST /orders/{id}/items", h.AddItem)
	mux.HandleFunc("PATCH /orders/{id}/items/{itemID}", h.UpdateItem)
	mux.HandleFunc("DELETE /orders/{id}/items/{itemID}", h.RemoveItem)
	mux.HandleFunc("POST /orders/{id}/voucher", h.ApplyVoucher)
	mux.HandleFunc("DELETE /orders/{id}/voucher", h.ClearVoucher)
	mux.HandleFunc("POST /orders/{id}/pay", h.Pay)
	mux.HandleFunc("PATCH /orders/{id}/status", h.UpdateStatus)
	mux.HandleFunc("POST /orders/cleanup-empty", h.CleanupEmpty)

	mux.HandleFunc("GET /tables/{id}/qr", h.IssueTableToken)

	mux.HandleFunc("GET /cart", h.GetCart)
	mux.HandleFunc("POST /cart/items", h.AddCartItem)
	mux.HandleFunc("PATCH /cart/items/{itemID}", h.UpdateCartItem)
	mux.HandleFunc("DELETE /cart/items/{itemID}", h.RemoveCartItem)
}

// Create handles POST /orders (staff only)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if !id.Elevated() {
		server.WriteErrorMessage(w, http.StatusForbidden, "Only staff can create orders directly", requestID)
		return
	}

	var req CreateRequest
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.Create(ctx, req)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("order_created", "Order created", requestID, map[string]interface{}{
		"order_id":   o.ID.String(),
		"order_type": o.Type,
	})
	server.WriteJSON(w, http.StatusCreated, o)
}

// OpenByToken handles POST /orders/open: a scanned table code opens or
// resumes the table's dine-in session.
func (h *Handler) OpenByToken(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)

	var req struct {
		Token string `json:"token"`
		Note  string `json:"note,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil || req.Token == "" {
		server.WriteErrorMessage(w, http.StatusBadRequest, "A table token is required", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.OpenByToken(ctx, id.UserID, req.Token, req.Note)
	if err != nil {
		switch errs.CodeOf(err) {
		case errs.CodeInvalidSignature, errs.CodeMalformedToken:
			h.logger.Error("table_token_rejected", "Table token failed verification", requestID, err, map[string]interface{}{
				"remote_addr": r.RemoteAddr,
			})
		}
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("table_session_opened", "Dine-in session opened from table token", requestID, map[string]interface{}{
		"order_id": o.ID.String(),
		"table_id": o.TableID.String(),
	})
	server.WriteJSON(w, http.StatusOK, o)
}

// IssueTableToken handles GET /tables/{id}/qr (staff only)
func (h *Handler) IssueTableToken(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	if !server.IdentityFrom(r).Elevated() {
		server.WriteErrorMessage(w, http.StatusForbidden, "Only staff can issue table codes", requestID)
		return
	}

	tableID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid table id", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	token, err := h.service.IssueTableToken(ctx, tableID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("table_token_issued", "Table token issued", requestID, map[string]interface{}{
		"table_id":   token.TableID.String(),
		"table_code": token.TableCode,
	})
	server.WriteJSON(w, http.StatusOK, token)
}

// Get handles GET /orders/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	if !canAccess(id, o) {
		server.WriteErrorMessage(w, http.StatusForbidden, "This order is not yours", requestID)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// ListAll handles GET /orders (staff only)
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	if !server.IdentityFrom(r).Elevated() {
		server.WriteErrorMessage(w, http.StatusForbidden, "Only staff can list all orders", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	orders, err := h.service.ListAll(ctx)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, orders)
}

// ListMine handles GET /orders/my
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to see your orders", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	orders, err := h.service.ListByUser(ctx, *id.UserID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, orders)
}

// StatsToday handles GET /orders/stats/today (staff only)
func (h *Handler) StatsToday(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	if !server.IdentityFrom(r).Elevated() {
		server.WriteErrorMessage(w, http.StatusForbidden, "Only staff can view order stats", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stats, err := h.service.StatsToday(ctx)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, stats)
}

// AddItem handles POST /orders/{id}/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	orderID, ok := h.authorizedOrderID(w, r, requestID)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.AddItem(ctx, orderID, req)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// UpdateItem handles PATCH /orders/{id}/items/{itemID}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	orderID, ok := h.authorizedOrderID(w, r, requestID)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(r.PathValue("itemID"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid item id", requestID)
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.UpdateItem(ctx, orderID, itemID, req.Quantity)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// RemoveItem handles DELETE /orders/{id}/items/{itemID}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	orderID, ok := h.authorizedOrderID(w, r, requestID)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(r.PathValue("itemID"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid item id", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.RemoveItem(ctx, orderID, itemID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// ApplyVoucher handles POST /orders/{id}/voucher
func (h *Handler) ApplyVoucher(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to use a voucher", requestID)
		return
	}

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	var req struct {
		UserVoucherID *uuid.UUID `json:"user_voucher_id,omitempty"`
		Code          string     `json:"code,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var o *models.Order
	switch {
	case req.UserVoucherID != nil:
		o, err = h.service.ApplyUserVoucher(ctx, orderID, *id.UserID, *req.UserVoucherID)
	case req.Code != "":
		o, err = h.service.ApplyVoucherCode(ctx, orderID, *id.UserID, req.Code)
	default:
		server.WriteErrorMessage(w, http.StatusBadRequest, "Provide user_voucher_id or code", requestID)
		return
	}
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// ClearVoucher handles DELETE /orders/{id}/voucher
func (h *Handler) ClearVoucher(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to manage vouchers", requestID)
		return
	}

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.ClearVoucher(ctx, orderID, *id.UserID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// Pay handles POST /orders/{id}/pay. CASH is staff-only; COD needs the
// order's owner or staff.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	var req PayRequest
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if req.Method == models.MethodCash && !id.Elevated() {
		server.WriteErrorMessage(w, http.StatusForbidden, "Only staff can settle cash payments", requestID)
		return
	}
	if req.Method == models.MethodCOD && !id.Elevated() {
		o, err := h.service.GetByID(ctx, orderID)
		if err != nil {
			server.WriteError(w, h.logger, requestID, err)
			return
		}
		if !isOwner(id, o) {
			server.WriteErrorMessage(w, http.StatusForbidden, "This order is not yours", requestID)
			return
		}
	}

	result, err := h.service.Pay(ctx, orderID, req)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("order_payment", "Payment recorded", requestID, map[string]interface{}{
		"order_id": orderID.String(),
		"method":   req.Method,
		"status":   result.Order.Status,
	})
	server.WriteJSON(w, http.StatusOK, result)
}

// UpdateStatus handles PATCH /orders/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.UpdateStatus(ctx, orderID, req.Status, id.Actor, id.UserID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("order_status_updated", "Order status updated", requestID, map[string]interface{}{
		"order_id": orderID.String(),
		"status":   o.Status,
	})
	server.WriteJSON(w, http.StatusOK, o)
}

// CleanupEmpty handles POST /orders/cleanup-empty (staff only). The
// cleanup binary mode runs the same purge on a schedule.
func (h *Handler) CleanupEmpty(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	if !server.IdentityFrom(r).Elevated() {
		server.WriteErrorMessage(w, http.StatusForbidden, "Only staff can purge carts", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	removed, err := h.service.CleanupEmpty(ctx)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("cleanup_completed", "Removed abandoned empty carts", requestID, map[string]interface{}{
		"removed": removed,
	})
	server.WriteJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

// GetCart handles GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to use the cart", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.GetOrCreateCart(ctx, *id.UserID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// AddCartItem handles POST /cart/items
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to use the cart", requestID)
		return
	}

	var req AddItemRequest
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.AddItemToCart(ctx, *id.UserID, req)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// UpdateCartItem handles PATCH /cart/items/{itemID}
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to use the cart", requestID)
		return
	}

	itemID, err := uuid.Parse(r.PathValue("itemID"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid item id", requestID)
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.UpdateCartItem(ctx, *id.UserID, itemID, req.Quantity)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// RemoveCartItem handles DELETE /cart/items/{itemID}
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id := server.IdentityFrom(r)
	if id.UserID == nil {
		server.WriteErrorMessage(w, http.StatusUnauthorized, "Sign in to use the cart", requestID)
		return
	}

	itemID, err := uuid.Parse(r.PathValue("itemID"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid item id", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.RemoveCartItem(ctx, *id.UserID, itemID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// authorizedOrderID parses the order id from the path and checks the
// caller may modify that order. Dine-in orders without an owner act as
// capability sessions: knowing the order id is enough.
func (h *Handler) authorizedOrderID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	id := server.IdentityFrom(r)

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid order id", requestID)
		return uuid.Nil, false
	}
	if id.Elevated() {
		return orderID, true
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return uuid.Nil, false
	}
	if !canAccess(id, o) {
		server.WriteErrorMessage(w, http.StatusForbidden, "This order is not yours", requestID)
		return uuid.Nil, false
	}
	return orderID, true
}

func canAccess(id server.Identity, o *models.Order) bool {
	if id.Elevated() {
		return true
	}
	if o.UserID == nil {
		return true
	}
	return isOwner(id, o)
}

func isOwner(id server.Identity, o *models.Order) bool {
	return o.UserID != nil && id.UserID != nil && *o.UserID == *id.UserID
}

func decodeBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return errs.New(errs.CodeInvalidInput, "invalid request body")
	}
	return nil
}
