// Package core provides money parsing and handling utilities.
//
// Amounts are typed in the Brazilian layout: dot as thousands separator and
// comma as decimal separator ("1.234,56"). They are kept as decimal.Decimal
// and only turned into display strings at the edge.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const CurrencySymbol = "R$"

// ParseAmount converts a localized amount string to a decimal.
//
// Dots are thousands separators and the comma is the decimal separator. A
// leading currency symbol and surrounding spaces are ignored. The result is
// always positive; zero, negative and malformed values return
// ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("1.234,56") -> 1234.56, nil
//	ParseAmount("12,5")     -> 12.5, nil
//	ParseAmount("R$ 10")    -> 10, nil
//	ParseAmount("abc")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, CurrencySymbol))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	intPart, fracPart, _ := strings.Cut(s, ",")
	intPart = strings.ReplaceAll(intPart, ".", "")
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	normalized := intPart
	if fracPart != "" {
		normalized += "." + fracPart
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders a decimal with two places, dot thousands separator and
// comma decimal separator: 1234.5 -> "1.234,50".
func FormatAmount(d decimal.Decimal) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// FormatCurrency renders a decimal as a currency string: "R$ 1.234,56",
// "-R$ 10,00" for negatives.
func FormatCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + CurrencySymbol + " " + FormatAmount(d.Abs())
	}
	return CurrencySymbol + " " + FormatAmount(d)
}
