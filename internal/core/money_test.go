package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1,5", "1.5", true},
		{"12,34", "12.34", true},
		{"1.234,56", "1234.56", true},
		{"1.234.567,89", "1234567.89", true},
		{"R$ 10", "10", true},
		{" 2,50 ", "2.5", true},
		{",50", "0.5", true},
		{"0", "", false},
		{"0,00", "", false},
		{"-1", "", false},
		{"abc", "", false},
		{"1,2,3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.out)), "got %s", got)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"0":           "0,00",
		"1":           "1,00",
		"12.5":        "12,50",
		"999.99":      "999,99",
		"1000":        "1.000,00",
		"1234.56":     "1.234,56",
		"1234567.891": "1.234.567,89",
		"-1234.5":     "-1.234,50",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)), in)
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", FormatCurrency(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "-R$ 10,00", FormatCurrency(decimal.NewFromInt(-10)))
}

func TestAmountRoundTrip(t *testing.T) {
	d, err := ParseAmount("1.234,56")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "1.234,56", FormatAmount(d))
}
