package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with currency", func(t *testing.T) {
		m, err := NewMoney(500, EUR)
		require.NoError(t, err)
		assert.Equal(t, int64(500), m.Amount())
		assert.Equal(t, EUR, m.Currency())
	})

	t.Run("fails with empty currency", func(t *testing.T) {
		_, err := NewMoney(500, "")
		require.Error(t, err)
	})
}

func TestMoneyAdd(t *testing.T) {
	t.Run("adds amounts of same currency", func(t *testing.T) {
		sum, err := NewMoneyEUR(200).Add(NewMoneyEUR(400))
		require.NoError(t, err)
		assert.Equal(t, int64(600), sum.Amount())
	})

	t.Run("rejects currency mismatch", func(t *testing.T) {
		usd, _ := NewMoney(100, USD)
		_, err := NewMoneyEUR(100).Add(usd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "currency mismatch")
	})
}

func TestMoneyDecimal(t *testing.T) {
	m := NewMoneyEUR(550)
	assert.Equal(t, "5.50", m.Decimal().StringFixed(2))
	assert.Equal(t, "5.50 EUR", m.String())
}

func TestMoneySplit(t *testing.T) {
	// 60/40 split of 1.50 in major units
	m := NewMoneyEUR(150)
	provider := m.Split(decimal.NewFromFloat(0.6))
	supplier := m.Split(decimal.NewFromFloat(0.4))
	assert.Equal(t, "0.90", provider.StringFixed(2))
	assert.Equal(t, "0.60", supplier.StringFixed(2))
}
