// Package fx provides exchange rates used to convert a pledge from the
// campaign's currency of record into the gateway's settlement currency.
package fx

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Source returns how many units of `to` one unit of `from` buys.
type Source interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Static always answers with one configured rate.
type Static struct {
	rate decimal.Decimal
}

func NewStatic(rate decimal.Decimal) *Static {
	return &Static{rate: rate}
}

func (s *Static) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if sameCurrency(from, to) {
		return decimal.NewFromInt(1), nil
	}

	if !s.rate.IsPositive() {
		return decimal.Zero, ErrRateUnavailable
	}

	return s.rate, nil
}

func sameCurrency(a, b string) bool {
	return strings.EqualFold(a, b)
}
