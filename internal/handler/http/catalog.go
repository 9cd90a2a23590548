package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codenexus/storefront/internal/catalog"
	"github.com/codenexus/storefront/internal/domain"
	"github.com/codenexus/storefront/pkg/httputil"
	"github.com/codenexus/storefront/pkg/pagination"
)

// ProductCatalog is the read side of the catalog the handlers need.
type ProductCatalog interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	List(f catalog.Filter) []domain.Product
	Categories() []string
}

// CatalogHandler serves the public product listing.
type CatalogHandler struct {
	catalog     ProductCatalog
	defaultLang domain.Language
	logger      *slog.Logger
}

// NewCatalogHandler creates a catalog handler. Prices are projected into
// defaultLang unless the request names another language.
func NewCatalogHandler(c ProductCatalog, defaultLang domain.Language, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, defaultLang: defaultLang, logger: logger}
}

// ListLanguages handles GET /api/v1/languages
func (h *CatalogHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	langs := domain.Languages()
	out := make([]LanguageView, 0, len(langs))
	for _, l := range langs {
		symbol, _ := l.Symbol()
		rate, _ := l.Multiplier()
		out = append(out, LanguageView{
			Code:     l,
			Symbol:   symbol,
			Currency: l.CurrencyCode(),
			Rate:     rate,
			Default:  l == h.defaultLang,
		})
	}
	httputil.WriteData(w, http.StatusOK, out)
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.catalog.Categories())
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	lang, err := languageParam(r, h.defaultLang)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	q := r.URL.Query()
	matches := h.catalog.List(catalog.Filter{
		Category: q.Get("category"),
		Query:    q.Get("q"),
	})

	params := pagination.FromRequest(r)
	views, err := newProductViews(pagination.Slice(matches, params), lang)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(views, len(matches), params))
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	lang, err := languageParam(r, h.defaultLang)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	p, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	view, err := newProductView(p, lang)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// languageParam reads ?lang=, falling back to def when it is absent.
func languageParam(r *http.Request, def domain.Language) (domain.Language, error) {
	code := r.URL.Query().Get("lang")
	if code == "" {
		return def, nil
	}
	return domain.ParseLanguage(code)
}
