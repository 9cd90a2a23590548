package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/codenexus/storefront/internal/domain"
	"github.com/codenexus/storefront/internal/storefront"
)

// --- Response DTOs ---

// ProductView is a catalog product with its price projected into one language.
type ProductView struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	Image        string            `json:"image,omitempty"`
	Rating       float64           `json:"rating"`
	Sales        int               `json:"sales"`
	Author       string            `json:"author,omitempty"`
	Tags         []string          `json:"tags"`
	BasePrice    decimal.Decimal   `json:"base_price"`
	Price        domain.Projection `json:"price"`
	DisplayPrice string            `json:"display_price"`
}

func newProductView(p domain.Product, lang domain.Language) (ProductView, error) {
	proj, err := domain.Project(p.Price, lang)
	if err != nil {
		return ProductView{}, err
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProductView{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Category:     p.Category,
		Image:        p.Image,
		Rating:       p.Rating,
		Sales:        p.Sales,
		Author:       p.Author,
		Tags:         tags,
		BasePrice:    p.Price,
		Price:        proj,
		DisplayPrice: proj.String(),
	}, nil
}

func newProductViews(products []domain.Product, lang domain.Language) ([]ProductView, error) {
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		v, err := newProductView(p, lang)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// CartResponse is the visitor's cart rendered in one language.
type CartResponse struct {
	Items        []ProductView     `json:"items"`
	Count        int               `json:"count"`
	Total        domain.Projection `json:"total"`
	DisplayTotal string            `json:"display_total"`
	Language     domain.Language   `json:"language"`
	Currency     string            `json:"currency"`
}

func newCartResponse(v storefront.CartView) (CartResponse, error) {
	items := make([]ProductView, 0, len(v.Lines))
	for _, l := range v.Lines {
		pv, err := newProductView(l.Product, v.Language)
		if err != nil {
			return CartResponse{}, err
		}
		items = append(items, pv)
	}
	return CartResponse{
		Items:        items,
		Count:        len(items),
		Total:        v.Total,
		DisplayTotal: v.Total.String(),
		Language:     v.Language,
		Currency:     v.Language.CurrencyCode(),
	}, nil
}

// SessionView is a checkout session as the payment screen shows it.
type SessionView struct {
	ID               uuid.UUID           `json:"id"`
	Target           domain.TargetKind   `json:"target"`
	ProductID        string              `json:"product_id,omitempty"`
	ProductTitle     string              `json:"product_title,omitempty"`
	Amount           int64               `json:"amount"`
	Symbol           string              `json:"symbol"`
	DisplayAmount    string              `json:"display_amount"`
	Language         domain.Language     `json:"language"`
	State            domain.SessionState `json:"state"`
	RemainingSeconds int                 `json:"remaining_seconds"`
	Remaining        string              `json:"remaining"`
	WalletAddress    string              `json:"wallet_address"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func newSessionView(s *domain.CheckoutSession) SessionView {
	v := SessionView{
		ID:               s.ID,
		Target:           s.Target.Kind,
		Amount:           s.Amount,
		Symbol:           s.Symbol,
		DisplayAmount:    domain.Projection{Amount: s.Amount, Symbol: s.Symbol}.String(),
		Language:         s.Language,
		State:            s.State,
		RemainingSeconds: s.RemainingSeconds,
		Remaining:        s.Remaining(),
		WalletAddress:    s.WalletAddress,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if p := s.Target.Product; p != nil {
		v.ProductID = p.ID
		v.ProductTitle = p.Title
	}
	return v
}

func newSessionViews(sessions []*domain.CheckoutSession) []SessionView {
	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, newSessionView(s))
	}
	return out
}

// LanguageView describes one supported display language.
type LanguageView struct {
	Code     domain.Language `json:"code"`
	Symbol   string          `json:"symbol"`
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
	Default  bool            `json:"default"`
}
