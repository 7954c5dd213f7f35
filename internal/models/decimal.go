package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal represents a monetary value coming from the rental backend.
// The backend is inconsistent about numeric encoding: the same field may
// arrive as a JSON number, a numeric string, or a big-decimal wire object
// of the form {"s": sign, "e": exponent, "d": [digits...]}. All three are
// accepted on unmarshal; marshalling always emits the canonical decimal
// string.
type Decimal struct {
	decimal.Decimal
}

// wireDecimal is the backend's big-decimal wire format: s is the sign
// (negative means a negative number), e the exponent of the most
// significant digit, d the base-10 digit array.
type wireDecimal struct {
	S *int  `json:"s"`
	E *int  `json:"e"`
	D []int `json:"d"`
}

// NewDecimal wraps a shopspring decimal value
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

// DecimalFromString parses a canonical decimal string
func DecimalFromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{Decimal: d}, nil
}

// MustDecimal parses a decimal string and panics on failure. Intended for
// constants and test fixtures only.
func MustDecimal(s string) Decimal {
	d, err := DecimalFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// UnmarshalJSON accepts a JSON number, a numeric string, or the backend's
// big-decimal wire object
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		d.Decimal = decimal.Zero
		return nil
	}

	switch data[0] {
	case '{':
		var w wireDecimal
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("invalid wire decimal: %w", err)
		}
		parsed, err := decimalFromWire(w)
		if err != nil {
			return err
		}
		d.Decimal = parsed
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("invalid decimal string %q: %w", s, err)
		}
		d.Decimal = parsed
		return nil
	default:
		parsed, err := decimal.NewFromString(string(data))
		if err != nil {
			return fmt.Errorf("invalid decimal number %s: %w", data, err)
		}
		d.Decimal = parsed
		return nil
	}
}

// MarshalJSON emits the canonical decimal string
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Decimal.String() + `"`), nil
}

// decimalFromWire converts the backend's {s, e, d} wire object into a
// decimal. The digit array is concatenated and the decimal point placed
// from the exponent: a non-negative exponent puts the point after e+1
// digits (padding with trailing zeros when the digits run out), a negative
// exponent produces a leading zero with -e-1 zeros before the digits. The
// conversion must stay bit-exact with the backend's encoder; monetary
// display errors otherwise.
func decimalFromWire(w wireDecimal) (decimal.Decimal, error) {
	if w.S == nil || w.E == nil || w.D == nil {
		return decimal.Decimal{}, fmt.Errorf("wire decimal missing s, e or d field")
	}
	if len(w.D) == 0 {
		return decimal.Decimal{}, fmt.Errorf("wire decimal has empty digit array")
	}

	var digits strings.Builder
	for _, dig := range w.D {
		if dig < 0 || dig > 9 {
			return decimal.Decimal{}, fmt.Errorf("wire decimal digit out of range: %d", dig)
		}
		digits.WriteByte(byte('0' + dig))
	}
	raw := digits.String()

	var str string
	if *w.E >= 0 {
		point := *w.E + 1
		if point >= len(raw) {
			str = raw + strings.Repeat("0", point-len(raw))
		} else {
			str = raw[:point] + "." + raw[point:]
		}
	} else {
		str = "0." + strings.Repeat("0", -*w.E-1) + raw
	}

	if *w.S < 0 {
		str = "-" + str
	}

	return decimal.NewFromString(str)
}
