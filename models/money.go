package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is an exact decimal amount in the shop currency (৳).
// It is stored as Decimal128 in MongoDB and as a plain JSON number.
type Money struct {
	d decimal.Decimal
}

// NewMoney parses a decimal string such as "120.50".
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustMoney is NewMoney for constants; it panics on malformed input.
func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

// Mul multiplies by a quantity.
func (m Money) Mul(qty int) Money { return Money{d: m.d.Mul(decimal.NewFromInt(int64(qty)))} }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) IsZero() bool { return m.d.IsZero() }

// WholeCents reports whether the amount has no digits past the second decimal
// place, so the two-place rendering is exact.
func (m Money) WholeCents() bool { return m.d.Equal(m.d.Round(2)) }

// String renders the amount with two decimal places.
func (m Money) String() string { return m.d.StringFixed(2) }

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.d.UnmarshalJSON(data)
}

func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.d.String())
	if err != nil {
		return 0, nil, fmt.Errorf("money to decimal128: %w", err)
	}
	return bson.MarshalValue(d128)
}

func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Decimal128:
		d, err := decimal.NewFromString(raw.Decimal128().String())
		if err != nil {
			return fmt.Errorf("decimal128 to money: %w", err)
		}
		m.d = d
	case bsontype.Double:
		m.d = decimal.NewFromFloat(raw.Double())
	case bsontype.Int32:
		m.d = decimal.NewFromInt32(raw.Int32())
	case bsontype.Int64:
		m.d = decimal.NewFromInt(raw.Int64())
	case bsontype.String:
		d, err := decimal.NewFromString(raw.StringValue())
		if err != nil {
			return fmt.Errorf("string to money: %w", err)
		}
		m.d = d
	case bsontype.Null, bsontype.Undefined:
		m.d = decimal.Zero
	default:
		return fmt.Errorf("cannot decode %s into money", t)
	}
	return nil
}

// Sum adds up a list of amounts.
func Sum(amounts ...Money) Money {
	total := Money{}
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
