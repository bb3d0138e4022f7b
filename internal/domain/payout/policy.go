package payout

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	DefaultMaxKeyLength = 128
	// Storage holds amounts as numeric(15,2).
	DefaultAmountPrecision = 15
	DefaultAmountScale     = 2
)

var DefaultSupportedCurrencies = []string{"USD", "MXN", "EUR"}

// Policy holds the per-deployment admission rules. An empty currency set
// admits every ISO-4217 code.
type Policy struct {
	MaxKeyLength    int
	AmountPrecision int32
	AmountScale     int32
	currencies      map[Currency]struct{}
}

// NewPolicy validates and normalizes the configured currencies. A single "*"
// entry (or no entries) disables the allow-list.
func NewPolicy(maxKeyLength int, currencies []string) (Policy, error) {
	if maxKeyLength <= 0 {
		return Policy{}, fmt.Errorf("max idempotency key length must be positive, got %d", maxKeyLength)
	}
	p := Policy{
		MaxKeyLength:    maxKeyLength,
		AmountPrecision: DefaultAmountPrecision,
		AmountScale:     DefaultAmountScale,
	}
	for _, raw := range currencies {
		if strings.TrimSpace(raw) == "*" {
			p.currencies = nil
			return p, nil
		}
		cur, err := ParseCurrency(raw)
		if err != nil {
			return Policy{}, fmt.Errorf("supported currency %q: %w", raw, err)
		}
		if p.currencies == nil {
			p.currencies = make(map[Currency]struct{}, len(currencies))
		}
		p.currencies[cur] = struct{}{}
	}
	return p, nil
}

func DefaultPolicy() Policy {
	p, err := NewPolicy(DefaultMaxKeyLength, DefaultSupportedCurrencies)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Policy) Supports(c Currency) bool {
	if len(p.currencies) == 0 {
		return true
	}
	_, ok := p.currencies[c]
	return ok
}

// SupportedCurrencies lists the allow-list in sorted order; nil means any.
func (p Policy) SupportedCurrencies() []string {
	if len(p.currencies) == 0 {
		return nil
	}
	out := make([]string, 0, len(p.currencies))
	for c := range p.currencies {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// Validate checks cmd without touching storage.
func (p Policy) Validate(cmd CreatePayoutCommand) error {
	if cmd.CompanyID == uuid.Nil {
		return ValidationError("companyId is required")
	}
	if cmd.Money.IsZero() {
		return ValidationError("money is required")
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return ValidationError("idempotencyKey must not be blank")
	}
	if max := p.MaxKeyLength; max > 0 && utf8.RuneCountInString(cmd.IdempotencyKey) > max {
		return ValidationError(fmt.Sprintf("idempotencyKey max length is %d", max))
	}
	if !p.Supports(cmd.Money.Currency()) {
		return ValidationError("currency not supported")
	}
	return p.validateAmountFits(cmd.Money)
}

// validateAmountFits rejects amounts the storage column cannot hold exactly.
func (p Policy) validateAmountFits(m Money) error {
	if p.AmountScale <= 0 && p.AmountPrecision <= 0 {
		return nil
	}
	amount := m.Amount()
	if p.AmountScale > 0 && !amount.Equal(amount.Truncate(p.AmountScale)) {
		return ValidationError(fmt.Sprintf("amount supports at most %d decimal places", p.AmountScale))
	}
	if p.AmountPrecision > 0 {
		intDigits := p.AmountPrecision - p.AmountScale
		if len(amount.Truncate(0).Abs().String()) > int(intDigits) {
			return ValidationError(fmt.Sprintf("amount exceeds %d integer digits", intDigits))
		}
	}
	return nil
}
