package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codenexus/storefront/internal/domain"
	"github.com/codenexus/storefront/internal/storefront"
	apperrors "github.com/codenexus/storefront/pkg/errors"
	"github.com/codenexus/storefront/pkg/httputil"
	"github.com/codenexus/storefront/pkg/middleware"
	"github.com/codenexus/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for the visitor's cart and language.
type CartHandler struct {
	catalog  ProductCatalog
	registry *storefront.Registry
	logger   *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(c ProductCatalog, registry *storefront.Registry, logger *slog.Logger) *CartHandler {
	return &CartHandler{catalog: c, registry: registry, logger: logger}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
}

// SetLanguageRequest is the JSON request body for switching display language.
type SetLanguageRequest struct {
	Language string `json:"language" validate:"required"`
}

// RemoveItemResponse reports how many lines a bulk removal dropped.
type RemoveItemResponse struct {
	Removed int          `json:"removed"`
	Cart    CartResponse `json:"cart"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var (
		view storefront.CartView
		err  error
	)
	if code := r.URL.Query().Get("lang"); code != "" {
		var lang domain.Language
		if lang, err = domain.ParseLanguage(code); err == nil {
			view, err = store.CartIn(lang)
		}
	} else {
		view, err = store.Cart()
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.writeCart(w, r, http.StatusOK, view)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	p, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.AddToCart(p); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	view, err := store.Cart()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeCart(w, r, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}. Every line for
// the product is dropped.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	removed, err := store.RemoveFromCart(chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	view, err := store.Cart()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	resp, err := newCartResponse(view)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, RemoveItemResponse{Removed: removed, Cart: resp})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.ClearCart(); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	view, err := store.Cart()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeCart(w, r, http.StatusOK, view)
}

// SetLanguage handles PUT /api/v1/preferences/language
func (h *CartHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req SetLanguageRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	lang, err := domain.ParseLanguage(req.Language)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.SetLanguage(lang); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	view, err := store.Cart()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeCart(w, r, http.StatusOK, view)
}

// --- Helpers ---

func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*storefront.Store, bool) {
	return visitorStore(w, r, h.registry, h.logger)
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, status int, view storefront.CartView) {
	resp, err := newCartResponse(view)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, status, resp)
}

// visitorStore resolves the store of the visitor the request was
// authenticated as. It writes the error response itself on failure.
func visitorStore(w http.ResponseWriter, r *http.Request, registry *storefront.Registry, logger *slog.Logger) (*storefront.Store, bool) {
	visitorID := middleware.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("visitor identity required"), logger)
		return nil, false
	}

	store, err := registry.Get(r.Context(), visitorID)
	if err != nil {
		httputil.WriteError(w, r, err, logger)
		return nil, false
	}
	return store, true
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		err = apperrors.InvalidInput("invalid request body: " + err.Error())
	}
	httputil.WriteError(w, r, err, logger)
	return false
}
