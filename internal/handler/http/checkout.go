package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/codenexus/storefront/internal/domain"
	"github.com/codenexus/storefront/internal/storefront"
	apperrors "github.com/codenexus/storefront/pkg/errors"
	"github.com/codenexus/storefront/pkg/httputil"
)

// CheckoutHandler handles the simulated payment flow.
type CheckoutHandler struct {
	catalog  ProductCatalog
	registry *storefront.Registry
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(c ProductCatalog, registry *storefront.Registry, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{catalog: c, registry: registry, logger: logger}
}

// StartCheckoutRequest selects what is being paid for. A product id means
// buy-now for that product; otherwise the whole cart is checked out.
type StartCheckoutRequest struct {
	Target    string `json:"target" validate:"omitempty,oneof=cart product"`
	ProductID string `json:"product_id" validate:"max=64"`
}

// StartCheckout handles POST /api/v1/checkout
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	var req StartCheckoutRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	var target domain.Target
	switch {
	case req.ProductID != "":
		p, err := h.catalog.Get(r.Context(), req.ProductID)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		target = domain.ProductTarget(p)
	case req.Target == string(domain.TargetProduct):
		httputil.WriteError(w, r, apperrors.InvalidTarget("product_id is required for a product checkout"), h.logger)
		return
	default:
		target = domain.CartTarget()
	}

	store, ok := visitorStore(w, r, h.registry, h.logger)
	if !ok {
		return
	}

	session, err := store.StartCheckout(target)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, newSessionView(session))
}

// GetCheckout handles GET /api/v1/checkout
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	store, ok := visitorStore(w, r, h.registry, h.logger)
	if !ok {
		return
	}

	session := store.Session()
	if session == nil {
		httputil.WriteError(w, r, apperrors.NotFound("checkout session", "current"), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newSessionView(session))
}

// ConfirmCheckout handles POST /api/v1/checkout/{sessionId}/confirm
func (h *CheckoutHandler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*storefront.Store).ConfirmCheckout)
}

// CancelCheckout handles POST /api/v1/checkout/{sessionId}/cancel
func (h *CheckoutHandler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*storefront.Store).CancelCheckout)
}

// ListPurchases handles GET /api/v1/purchases
func (h *CheckoutHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	store, ok := visitorStore(w, r, h.registry, h.logger)
	if !ok {
		return
	}
	httputil.WriteData(w, http.StatusOK, newSessionViews(store.Purchases()))
}

type sessionTransition func(*storefront.Store, uuid.UUID) (*domain.CheckoutSession, error)

func (h *CheckoutHandler) transition(w http.ResponseWriter, r *http.Request, apply sessionTransition) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "sessionId"))
	if !ok {
		return
	}

	store, ok := visitorStore(w, r, h.registry, h.logger)
	if !ok {
		return
	}

	session, err := apply(store, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newSessionView(session))
}
