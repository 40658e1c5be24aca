package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundCurrency_HalfUp(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"8.5255", "8.53"},
		{"8.524", "8.52"},
		{"8.525", "8.53"},
		{"10.00", "10"},
		{"0.005", "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundCurrency(MustMoney(tt.in))
			assert.True(t, got.Equal(MustMoney(tt.expected)),
				"RoundCurrency(%s) = %s, want %s", tt.in, got, tt.expected)
		})
	}
}

func TestNewMoneyFromString_Invalid(t *testing.T) {
	_, err := NewMoneyFromString("not a number")
	require.Error(t, err)
}

func TestMaxMoney(t *testing.T) {
	a := MustMoney("3.50")
	b := MustMoney("2.99")

	assert.True(t, MaxMoney(a, b).Equal(a))
	assert.True(t, MaxMoney(b, a).Equal(a))
	assert.True(t, MaxMoney(a, a).Equal(a))
}
