package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrMoneyPrecision is returned when an amount carries more than two decimal places.
var ErrMoneyPrecision = errors.New("amount has more than 2 decimal places")

// Money is an amount of currency in minor units (cents).
type Money int64

// MoneyFromDecimal converts a decimal amount into cents. Amounts that cannot be
// represented exactly in cents are rejected rather than rounded.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, ErrMoneyPrecision
	}
	if cents.Abs().GreaterThan(decimal.NewFromInt(maxCents)) {
		return 0, fmt.Errorf("amount %s out of range", d.String())
	}
	return Money(cents.IntPart()), nil
}

const maxCents = int64(1) << 53

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float64 is used where a message format requires a floating point amount.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
