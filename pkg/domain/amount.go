package domain

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Amount is an unsigned 256-bit quantity of the managed asset. The zero
// value is usable and equals zero. Amounts are immutable; arithmetic returns
// new values and never mutates the receiver.
type Amount struct {
	v uint256.Int
}

var errNegativeResult = errors.New("amount underflow")

// NewAmount builds an Amount from a uint64.
func NewAmount(u uint64) Amount {
	var a Amount
	a.v.SetUint64(u)
	return a
}

// ParseAmount parses a base-10 string into an Amount.
func ParseAmount(s string) (Amount, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{v: *v}, nil
}

// MustParseAmount is ParseAmount for constants in tests and wiring.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a+b, failing on 256-bit overflow.
func (a Amount) Add(b Amount) (Amount, error) {
	var out Amount
	if _, overflow := out.v.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, errors.New("amount overflow")
	}
	return out, nil
}

// Sub returns a-b, failing if b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	var out Amount
	if _, underflow := out.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, errNegativeResult
	}
	return out, nil
}

// Cmp returns -1, 0, or 1 comparing a to b.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

// IsZero reports whether the amount equals zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// String renders the amount in base 10.
func (a Amount) String() string { return a.v.Dec() }

// MarshalJSON encodes the amount as a decimal JSON string so 256-bit values
// survive clients that parse numbers as float64.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.v.Dec() + `"`), nil
}

// UnmarshalJSON accepts a decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("amount must be a decimal string, got %s", data)
	}
	parsed, err := ParseAmount(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
