package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCode         = errors.New("currency code must be a 3-letter ISO 4217 code")
	ErrUnsupportedCurrency = errors.New("no exchange rate for currency")
	ErrInvalidRate         = errors.New("exchange rate must be positive")
)

// RateProvider fetches a rate table for a base currency. Each entry is the
// multiplier that turns one unit of base into the keyed currency.
type RateProvider interface {
	GetRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// NormalizeCode upper-cases and validates an ISO 4217 code.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrInvalidCode
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return "", ErrInvalidCode
		}
	}
	return code, nil
}

// Convert converts amount from one currency into another using a rate table
// whose base is the source currency. Identical codes short-circuit without
// consulting the table.
func Convert(amount decimal.Decimal, from, to string, rates map[string]decimal.Decimal) (decimal.Decimal, error) {
	from, err := NormalizeCode(from)
	if err != nil {
		return decimal.Zero, err
	}
	to, err = NormalizeCode(to)
	if err != nil {
		return decimal.Zero, err
	}

	if from == to {
		return amount, nil
	}

	rate, ok := rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s -> %s", ErrUnsupportedCurrency, from, to)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s -> %s = %s", ErrInvalidRate, from, to, rate)
	}

	return amount.Mul(rate), nil
}

// Converter resolves rate tables through a RateProvider and applies Convert.
type Converter struct {
	rates RateProvider
}

func NewConverter(rates RateProvider) *Converter {
	return &Converter{rates: rates}
}

// Convert fetches the rate table based on from and converts amount into to.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, err := NormalizeCode(from)
	if err != nil {
		return decimal.Zero, err
	}
	to, err = NormalizeCode(to)
	if err != nil {
		return decimal.Zero, err
	}
	if from == to {
		return amount, nil
	}

	rates, err := c.rates.GetRates(ctx, from)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get %s rates: %w", from, err)
	}

	return Convert(amount, from, to, rates)
}

// ToBase converts per-currency totals into a single total in base, fetching
// one rate table per distinct source currency.
func (c *Converter) ToBase(ctx context.Context, totals map[string]decimal.Decimal, base string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for code, amount := range totals {
		converted, err := c.Convert(ctx, amount, code, base)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(converted)
	}
	return sum, nil
}
