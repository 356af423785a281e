package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/pawfund/internal/money"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestToMinor(t *testing.T) {
	assert.Equal(t, int64(1050), money.ToMinor(dec("10.50")))
	assert.Equal(t, int64(1), money.ToMinor(dec("0.005")))
	assert.Equal(t, int64(0), money.ToMinor(dec("0.004")))
	assert.Equal(t, int64(43000), money.ToMinor(dec("430")))
}

func TestFromMinor(t *testing.T) {
	assert.True(t, dec("10.50").Equal(money.FromMinor(1050)))
	assert.True(t, dec("0.01").Equal(money.FromMinor(1)))
}

func TestConvert(t *testing.T) {
	// 215,000 at 0.002 per unit.
	got := money.Convert(dec("215000"), dec("0.002"))
	assert.True(t, dec("430").Equal(got), "got %s", got)

	got = money.Convert(dec("1000"), dec("0.0021337"))
	assert.True(t, dec("2.13").Equal(got), "got %s", got)
}

func TestPercentFunded(t *testing.T) {
	tests := []struct {
		name   string
		raised string
		goal   string
		want   int
	}{
		{name: "Empty", raised: "0", goal: "250000", want: 0},
		{name: "Partial", raised: "35000", goal: "250000", want: 14},
		{name: "FloorsFraction", raised: "249999", goal: "250000", want: 99},
		{name: "Exact", raised: "250000", goal: "250000", want: 100},
		{name: "OverFundedCapped", raised: "400000", goal: "250000", want: 100},
		{name: "ZeroGoal", raised: "10", goal: "0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, money.PercentFunded(dec(tt.raised), dec(tt.goal)))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "KZT 250,000.00", money.Format(dec("250000"), "kzt", language.English))
	assert.Equal(t, "12.50", money.Format(dec("12.5"), "", language.English))
	assert.Equal(t, "0.07", money.Format(dec("0.065"), "", language.English))
	assert.Equal(t, "-3.40", money.Format(dec("-3.4"), "", language.English))
	assert.Equal(t, "1.234,50", money.Format(dec("1234.5"), "", language.German))
}

func TestFormat_BeyondFloatPrecision(t *testing.T) {
	// Past 2^53 hundredths a float64 round trip drops the cents.
	got := money.Format(dec("92233720368547.75"), "kzt", language.English)
	assert.Equal(t, "KZT 92,233,720,368,547.75", got)
}

func TestHasWholeCents(t *testing.T) {
	assert.True(t, money.HasWholeCents(dec("10")))
	assert.True(t, money.HasWholeCents(dec("10.50")))
	assert.True(t, money.HasWholeCents(dec("10.500")))
	assert.False(t, money.HasWholeCents(dec("10.004")))
	assert.False(t, money.HasWholeCents(dec("99.996")))
}
