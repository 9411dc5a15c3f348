// Package types converts between exact decimal amounts used in storage and
// the google.type.Money wire representation used in API summaries.
package types

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genproto/googleapis/type/money"
)

const (
	nanosMin     int32 = -999_999_999
	nanosMax     int32 = 999_999_999
	nanosPerUnit int64 = 1_000_000_000
)

var (
	ErrInvalidValue        = errors.New("money amount is invalid (nanos out of range or signs mismatch)")
	ErrMismatchingCurrency = errors.New("mismatching currency codes for operation")
)

var nanosScale = decimal.NewFromInt(nanosPerUnit)

// IsValid checks if a money amount conforms to the google.type.Money rules.
func IsValid(m *money.Money) bool {
	if m == nil {
		return false
	}
	nanosAreInRange := m.Nanos >= nanosMin && m.Nanos <= nanosMax
	// the sign of nanos must match the sign of units, unless one is zero.
	signsAreConsistent := m.Units == 0 || m.Nanos == 0 || (m.Units > 0) == (m.Nanos > 0)
	return nanosAreInRange && signsAreConsistent
}

// ToMoney converts an exact amount into a Money value. Digits beyond
// nanosecond precision are truncated toward zero.
func ToMoney(d decimal.Decimal, currency string) *money.Money {
	units := d.Truncate(0)
	nanos := d.Sub(units).Mul(nanosScale).Truncate(0)
	return &money.Money{
		CurrencyCode: strings.ToUpper(currency),
		Units:        units.IntPart(),
		Nanos:        int32(nanos.IntPart()),
	}
}

// FromMoney converts a valid Money value into an exact decimal amount.
func FromMoney(m *money.Money) (decimal.Decimal, error) {
	if !IsValid(m) {
		return decimal.Zero, ErrInvalidValue
	}
	return decimal.NewFromInt(m.Units).Add(decimal.New(int64(m.Nanos), -9)), nil
}

// Sum adds amounts that share a currency.
func Sum(currency string, amounts ...*money.Money) (*money.Money, error) {
	total := decimal.Zero
	for _, a := range amounts {
		if a.CurrencyCode != "" && !strings.EqualFold(a.CurrencyCode, currency) {
			return nil, ErrMismatchingCurrency
		}
		d, err := FromMoney(a)
		if err != nil {
			return nil, err
		}
		total = total.Add(d)
	}
	return ToMoney(total, currency), nil
}
