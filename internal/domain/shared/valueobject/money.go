package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	EUR Currency = "EUR" // Euro (default)
	USD Currency = "USD" // US Dollar
	XOF Currency = "XOF" // West African CFA franc
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = EUR

// Money is a value object for monetary amounts held in integer minor
// units (cents). It is immutable - operations return new instances.
type Money struct {
	amount   int64
	currency Currency
}

// NewMoney creates a new Money with the given minor-unit amount
func NewMoney(amount int64, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyEUR creates Money in the default currency
func NewMoneyEUR(amount int64) Money {
	return Money{amount: amount, currency: EUR}
}

// Amount returns the amount in minor units
func (m Money) Amount() int64 {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.amount == 0
}

// IsNegative reports whether the amount is negative
func (m Money) IsNegative() bool {
	return m.amount < 0
}

// Add returns the sum of two amounts of the same currency
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// MustAdd is Add for amounts known to share a currency
func (m Money) MustAdd(other Money) Money {
	sum, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return sum
}

// Decimal returns the amount in major units as a decimal
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.amount).Div(decimal.NewFromInt(100))
}

// Split returns the portion of the amount described by ratio, in major
// units. Used for presentation-layer revenue splits; the minor-unit
// aggregates themselves stay integral.
func (m Money) Split(ratio decimal.Decimal) decimal.Decimal {
	return m.Decimal().Mul(ratio)
}

// String renders the amount with its currency code
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(2), m.currency)
}
