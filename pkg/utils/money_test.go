package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in       string
		currency string
		amount   string
		mwk      string
	}{
		{"MWK 1,234", "MWK", "1234", "1234"},
		{"MWK 120000", "MWK", "120000", "120000"},
		{"120000", "MWK", "120000", "120000"},
		{"  mwk 50,000.50 ", "MWK", "50000.5", "50000.5"},
		{"USD 10", "USD", "10", "17500"},
		{"$20", "USD", "20", "35000"},
		{"USD 1,000.25", "USD", "1000.25", "1750437.5"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMoney(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.currency, m.Currency)
			assert.Equal(t, tt.amount, m.Amount.String())
			assert.Equal(t, tt.mwk, m.ToMWK().String())
		})
	}
}

func TestParseMoneyRejects(t *testing.T) {
	for _, in := range []string{"", "MWK", "abc", "EUR 10", "MWK 1.2.3", "12 MWK"} {
		_, err := ParseMoney(in)
		assert.Error(t, err, in)
	}
}

func TestFormatBidAmountIsVerbatim(t *testing.T) {
	assert.Equal(t, "MWK 50000", FormatBidAmount("50000"))
	assert.Equal(t, "MWK 1,000", FormatBidAmount("1,000"))
	assert.Equal(t, "MWK 12abc", FormatBidAmount("12abc"))
}
