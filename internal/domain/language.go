package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/codenexus/storefront/pkg/errors"
)

// Language selects the display language and, with it, the display currency.
type Language string

const (
	LanguageEN Language = "en"
	LanguageZH Language = "zh"
)

// DefaultLanguage is used when a visitor has not chosen one.
const DefaultLanguage = LanguageEN

type currency struct {
	multiplier decimal.Decimal
	symbol     string
	code       string
}

var currencies = map[Language]currency{
	LanguageEN: {multiplier: decimal.NewFromInt(1), symbol: "$", code: "USD"},
	LanguageZH: {multiplier: decimal.RequireFromString("7.1"), symbol: "¥", code: "CNY"},
}

// Languages returns the supported languages in display order.
func Languages() []Language {
	return []Language{LanguageEN, LanguageZH}
}

// ParseLanguage maps a language code to a Language. Matching ignores case and
// surrounding whitespace.
func ParseLanguage(code string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(code)))
	if !l.Valid() {
		return "", apperrors.UnknownLanguage(code)
	}
	return l, nil
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	_, ok := currencies[l]
	return ok
}

// Multiplier is the base-to-display conversion factor for l.
func (l Language) Multiplier() (decimal.Decimal, error) {
	c, ok := currencies[l]
	if !ok {
		return decimal.Zero, apperrors.UnknownLanguage(string(l))
	}
	return c.multiplier, nil
}

// Symbol is the currency symbol displayed for l.
func (l Language) Symbol() (string, error) {
	c, ok := currencies[l]
	if !ok {
		return "", apperrors.UnknownLanguage(string(l))
	}
	return c.symbol, nil
}

// CurrencyCode is the ISO 4217 code displayed for l.
func (l Language) CurrencyCode() string {
	return currencies[l].code
}
