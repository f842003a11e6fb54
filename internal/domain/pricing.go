package domain

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// TaxRatePercent is the flat sales tax applied to the subtotal.
	TaxRatePercent int64 = 8
	// DeliveryFee is charged on every order, in cents.
	DeliveryFee int64 = 499
)

// Totals are the derived checkout amounts, in cents.
type Totals struct {
	Subtotal    int64
	Tax         int64
	DeliveryFee int64
	Total       int64
}

// Subtotal returns the sum of price times quantity.
func Subtotal(items []CartItem) int64 {
	var subtotal int64
	for _, item := range items {
		subtotal += item.Price * int64(item.Quantity)
	}
	return subtotal
}

// ItemCount returns the sum of item quantities.
func ItemCount(items []CartItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// Tax rounds subtotal*8% half-up to the cent.
func Tax(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	return (subtotal*TaxRatePercent + 50) / 100
}

// ComputeTotals derives subtotal, tax, delivery fee and total for the items.
func ComputeTotals(items []CartItem) Totals {
	subtotal := Subtotal(items)
	tax := Tax(subtotal)
	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: DeliveryFee,
		Total:       subtotal + tax + DeliveryFee,
	}
}

var usdPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCents renders cents as a USD display string such as "$13.09".
func FormatCents(cents int64) string {
	amount := currency.USD.Amount(float64(cents) / 100)
	return strings.Replace(usdPrinter.Sprintf("%v", currency.Symbol(amount)), " ", "", 1)
}
