package shared

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCurrency is the single display currency of the till.
const DefaultCurrency = "PKR"

// Money renders amounts for display with grouped whole units.
type Money struct {
	code    string
	printer *message.Printer
}

// NewMoney builds a formatter for the given currency code.
func NewMoney(code string) *Money {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	return &Money{code: code, printer: message.NewPrinter(language.English)}
}

// Code returns the currency code.
func (m *Money) Code() string {
	if m == nil {
		return DefaultCurrency
	}
	return m.code
}

// Format renders amount as e.g. "PKR 1,250".
func (m *Money) Format(amount float64) string {
	if m == nil {
		m = NewMoney(DefaultCurrency)
	}
	return m.printer.Sprintf("%s %v", m.code, number.Decimal(amount, number.MaxFractionDigits(0)))
}
