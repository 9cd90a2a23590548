package http

import (
	"log/slog"
	"net/http"

	"github.com/codenexus/storefront/internal/storefront"
	"github.com/codenexus/storefront/pkg/httputil"
	"github.com/codenexus/storefront/pkg/middleware"
)

// AdminHandler exposes the storefront-wide payment switch.
type AdminHandler struct {
	payments *storefront.PaymentSwitch
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(payments *storefront.PaymentSwitch, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{payments: payments, logger: logger}
}

// SetPaymentsRequest is the JSON request body for toggling checkout.
type SetPaymentsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// PaymentsResponse reports the switch position.
type PaymentsResponse struct {
	Enabled bool `json:"enabled"`
}

// GetPayments handles GET /api/v1/admin/payments
func (h *AdminHandler) GetPayments(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, PaymentsResponse{Enabled: h.payments.Enabled()})
}

// SetPayments handles PUT /api/v1/admin/payments
func (h *AdminHandler) SetPayments(w http.ResponseWriter, r *http.Request) {
	var req SetPaymentsRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	enabled := *req.Enabled
	if prev := h.payments.Set(enabled); prev != enabled {
		h.logger.InfoContext(r.Context(), "payments switched",
			slog.Bool("enabled", enabled),
			slog.String("admin_id", middleware.VisitorIDFromContext(r.Context())),
		)
	}
	httputil.WriteData(w, http.StatusOK, PaymentsResponse{Enabled: enabled})
}
