package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// BidCurrencyPrefix is prepended verbatim to a driver's raw bid input.
const BidCurrencyPrefix = "MWK "

// DefaultCurrency is assumed for amounts without a currency code.
const DefaultCurrency = "MWK"

// ratesToMWK converts one unit of a currency into Malawi kwacha. Listing
// prices arrive either in MWK or in USD.
var ratesToMWK = map[string]decimal.Decimal{
	"MWK": decimal.NewFromInt(1),
	"USD": decimal.NewFromInt(1750),
}

var moneyPattern = regexp.MustCompile(`^(?:([A-Za-z]{3})|(\$))?\s*(-?[0-9][0-9,]*(?:\.[0-9]+)?)$`)

// Money is a parsed price string.
type Money struct {
	Currency string
	Amount   decimal.Decimal
}

// ParseMoney parses strings such as "MWK 1,234", "USD 50.5", "$20" or
// "120000". Thousands separators are dropped; a missing currency means MWK.
func ParseMoney(s string) (Money, error) {
	m := moneyPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Money{}, fmt.Errorf("unrecognised amount %q", s)
	}

	currency := strings.ToUpper(m[1])
	switch {
	case m[2] == "$":
		currency = "USD"
	case currency == "":
		currency = DefaultCurrency
	}
	if _, ok := ratesToMWK[currency]; !ok {
		return Money{}, fmt.Errorf("unsupported currency %q", currency)
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(m[3], ",", ""))
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Money{Currency: currency, Amount: amount}, nil
}

// ToMWK converts the amount into kwacha using the fixed rate table.
func (m Money) ToMWK() decimal.Decimal {
	return m.Amount.Mul(ratesToMWK[m.Currency])
}

func (m Money) String() string {
	return m.Currency + " " + m.Amount.String()
}

// FormatBidAmount builds the amount string sent with a bid. The raw input is
// not parsed or reformatted.
func FormatBidAmount(raw string) string {
	return BidCurrencyPrefix + raw
}
