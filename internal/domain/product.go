package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is an immutable catalog listing. Price is in base currency units.
type Product struct {
	ID          string          `json:"id" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Category    string          `json:"category" validate:"required"`
	Image       string          `json:"image" validate:"omitempty,url"`
	Rating      float64         `json:"rating" validate:"gte=0,lte=5"`
	Sales       int             `json:"sales" validate:"gte=0"`
	Author      string          `json:"author"`
	Tags        []string        `json:"tags"`
}

// HasTag reports whether the product carries tag, ignoring case and
// surrounding spaces.
func (p Product) HasTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	for _, t := range p.Tags {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}
