// Package money formats amounts as localized currency text.
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// DefaultLocale is the locale the calculator renders amounts in.
	DefaultLocale = "en-IN"
	// DefaultCurrency is the ISO 4217 code of the rendered currency.
	DefaultCurrency = "INR"
)

// Formatter renders float amounts as currency in a fixed locale, with two
// fraction digits and the currency symbol directly before the digits.
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	symbol  string
	printer *message.Printer
}

// NewFormatter returns a Formatter for a BCP 47 locale and an ISO 4217 code.
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}

	p := message.NewPrinter(tag)
	return &Formatter{
		tag:     tag,
		unit:    unit,
		symbol:  p.Sprint(currency.NarrowSymbol(unit)),
		printer: p,
	}, nil
}

// MustFormatter is NewFormatter that panics on error.
func MustFormatter(locale, code string) *Formatter {
	f, err := NewFormatter(locale, code)
	if err != nil {
		panic(err)
	}
	return f
}

// INR returns the en-IN rupee formatter.
func INR() *Formatter {
	return MustFormatter(DefaultLocale, DefaultCurrency)
}

// Format renders amount, e.g. 1650 as "₹1,650.00" and -500 as "-₹500.00".
// Rounding works on the shortest decimal text of amount, halves away from
// zero, so 1.005 renders as "₹1.01".
func (f *Formatter) Format(amount float64) string {
	if math.IsNaN(amount) {
		return f.symbol + "NaN"
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if math.IsInf(amount, 0) {
		return sign + f.symbol + "∞"
	}

	rounded, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	if rounded == 0 {
		sign = ""
	}
	return sign + f.symbol + f.printer.Sprint(number.Decimal(rounded, number.Scale(2)))
}

// Code returns the ISO 4217 currency code.
func (f *Formatter) Code() string { return f.unit.String() }

// Locale returns the BCP 47 tag the formatter renders in.
func (f *Formatter) Locale() string { return f.tag.String() }
