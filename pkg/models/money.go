package models

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

func init() {
	// The storefront client reads prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Money is an amount in a known currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency currency.Unit   `json:"-"`
}

func NewMoney(amount decimal.Decimal, unit currency.Unit) Money {
	return Money{Amount: amount, Currency: unit}
}

// String renders the amount with its ISO code, e.g. "ARS 250.00".
func (m Money) String() string {
	return m.Currency.String() + " " + m.Amount.StringFixed(2)
}
