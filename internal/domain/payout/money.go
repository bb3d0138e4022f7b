package payout

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency is an upper-cased ISO-4217 alphabetic code.
type Currency string

func (c Currency) String() string { return string(c) }

// ParseCurrency trims and upper-cases raw, then checks it against the
// ISO-4217 registry.
func ParseCurrency(raw string) (Currency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		return "", ValidationError("currency is required")
	}
	if len(normalized) != 3 || !isAlpha(normalized) {
		return "", ValidationError("currency must be ISO-4217 (3 letters)")
	}
	if _, err := currency.ParseISO(normalized); err != nil {
		return "", ValidationError("currency must be a valid ISO-4217 code")
	}
	return Currency(normalized), nil
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// Money is an immutable positive amount in a currency. The zero value means
// "absent" and is rejected wherever money is required.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, rawCurrency string) (Money, error) {
	if !amount.IsPositive() {
		return Money{}, ValidationError("amount must be greater than 0")
	}
	cur, err := ParseCurrency(rawCurrency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: cur}, nil
}

// ParseMoney builds Money from a decimal string such as "1000.50".
func ParseMoney(rawAmount, rawCurrency string) (Money, error) {
	rawAmount = strings.TrimSpace(rawAmount)
	if rawAmount == "" {
		return Money{}, ValidationError("amount is required")
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return Money{}, ValidationError("amount must be a decimal number")
	}
	return NewMoney(amount, rawCurrency)
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.currency == "" }

// SameAmount compares numerically, so 1000.5 and 1000.50 match.
func (m Money) SameAmount(other Money) bool {
	return m.amount.Equal(other.amount)
}

func (m Money) SameCurrency(other Money) bool {
	return strings.EqualFold(string(m.currency), string(other.currency))
}

// Equal is value equality: same currency and numerically equal amounts
// regardless of decimal scale.
func (m Money) Equal(other Money) bool {
	return m.SameCurrency(other) && m.SameAmount(other)
}

func (m Money) String() string {
	if m.IsZero() {
		return ""
	}
	return m.amount.String() + " " + string(m.currency)
}
