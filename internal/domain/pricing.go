package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Projection is a base price rendered for one language.
type Projection struct {
	Amount   int64    `json:"amount"`
	Symbol   string   `json:"symbol"`
	Language Language `json:"language"`
}

// String renders the projection as shown in the storefront, e.g. "¥3550".
func (p Projection) String() string {
	return fmt.Sprintf("%s%d", p.Symbol, p.Amount)
}

// Project converts a base price into the display currency of lang, rounded
// half away from zero to a whole unit.
func Project(base decimal.Decimal, lang Language) (Projection, error) {
	return ProjectSum([]decimal.Decimal{base}, lang)
}

// ProjectSum is the single rounding policy shared by cart totals and checkout
// amounts: base prices are summed exactly, converted once and rounded once.
func ProjectSum(bases []decimal.Decimal, lang Language) (Projection, error) {
	m, err := lang.Multiplier()
	if err != nil {
		return Projection{}, err
	}
	symbol, _ := lang.Symbol()

	sum := decimal.Sum(decimal.Zero, bases...)
	amount := sum.Mul(m).Round(0).IntPart()

	return Projection{Amount: amount, Symbol: symbol, Language: lang}, nil
}
