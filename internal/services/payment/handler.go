package payment

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/logger"
	"hoaban-restaurant/internal/ratelimit"
	"hoaban-restaurant/internal/server"
)

const requestTimeout = 30 * time.Second

// Handler handles HTTP requests for the payment service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new payment handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the payment routes on the mux. The gateway callback
// endpoints carry no caller identity, only a checksum, so they sit
// behind the rate limiter.
func (h *Handler) Register(mux *http.ServeMux, limiter *ratelimit.Limiter) {
	mux.HandleFunc("POST /payments/orders/{id}", h.CreateGateway)
	mux.HandleFunc("GET /payments/vnpay/return", server.WithRateLimit(limiter, h.HandleReturn))
	mux.HandleFunc("GET /payments/vnpay/ipn", server.WithRateLimit(limiter, h.HandleIpn))
}

// CreateGateway handles POST /payments/orders/{id}: starts a gateway
// payment and returns the signed pay URL.
func (h *Handler) CreateGateway(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		server.WriteErrorMessage(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := h.service.CreateGateway(ctx, orderID, clientIP(r))
	if err != nil {
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("gateway_payment_created", "Gateway payment created", requestID, map[string]interface{}{
		"order_id": orderID.String(),
		"txn_ref":  resp.TxnRef,
	})
	server.WriteJSON(w, http.StatusOK, resp)
}

// HandleReturn handles GET /payments/vnpay/return: the customer's
// browser coming back from the gateway.
func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.service.Settle(ctx, queryParams(r))
	if err != nil {
		if errs.IsCode(err, errs.CodeInvalidSignature) {
			h.logger.Error("gateway_checksum_rejected", "Return callback failed checksum verification", requestID, err, map[string]interface{}{
				"remote_addr": r.RemoteAddr,
			})
		}
		server.WriteError(w, h.logger, requestID, err)
		return
	}

	h.logger.Info("gateway_return_processed", "Return callback reconciled", requestID, map[string]interface{}{
		"txn_ref": result.Payment.TransactionRef,
		"success": result.Success,
		"settled": result.Settled,
	})
	server.WriteJSON(w, http.StatusOK, result)
}

// HandleIpn handles GET /payments/vnpay/ipn: the gateway's
// server-to-server confirmation. The gateway expects a plain-text ack
// and retries until it gets one, so every path answers 200.
func (h *Handler) HandleIpn(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.service.Settle(ctx, queryParams(r))
	if err != nil {
		switch errs.CodeOf(err) {
		case errs.CodeInvalidSignature:
			h.logger.Error("gateway_checksum_rejected", "IPN callback failed checksum verification", requestID, err, map[string]interface{}{
				"remote_addr": r.RemoteAddr,
			})
			writeAck(w, "INVALID CHECKSUM")
		case errs.CodePaymentNotFound, errs.CodeInvalidInput:
			writeAck(w, "ORDER NOT FOUND")
		default:
			h.logger.Error("gateway_ipn_failed", "IPN reconciliation failed", requestID, err, nil)
			writeAck(w, "FAILED")
		}
		return
	}

	h.logger.Info("gateway_ipn_processed", "IPN callback reconciled", requestID, map[string]interface{}{
		"txn_ref": result.Payment.TransactionRef,
		"success": result.Success,
		"settled": result.Settled,
	})
	if result.Success {
		writeAck(w, "OK")
	} else {
		writeAck(w, "FAILED")
	}
}

func writeAck(w http.ResponseWriter, ack string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ack))
}

func queryParams(r *http.Request) map[string]string {
	params := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
