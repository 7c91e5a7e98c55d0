package query

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/leapstack-labs/druidql/pkg/serde"
)

// ScalarKind identifies which case a JSONAny or JSONNumber holds.
type ScalarKind uint8

// Scalar kinds. The zero kind is an unset value and encodes as null.
const (
	KindNull ScalarKind = iota
	KindFloat
	KindInteger
	KindString
	KindBoolean
)

func (k ScalarKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	default:
		return "null"
	}
}

// JSONAny is a scalar that may be a float, an integer, a string or a boolean.
// Values are comparable with ==.
type JSONAny struct {
	kind ScalarKind
	f    float64
	i    int64
	s    string
	b    bool
}

// AnyFloat returns a float JSONAny.
func AnyFloat(f float64) JSONAny { return JSONAny{kind: KindFloat, f: f} }

// AnyInt returns an integer JSONAny.
func AnyInt(i int64) JSONAny { return JSONAny{kind: KindInteger, i: i} }

// AnyString returns a string JSONAny.
func AnyString(s string) JSONAny { return JSONAny{kind: KindString, s: s} }

// AnyBool returns a boolean JSONAny.
func AnyBool(b bool) JSONAny { return JSONAny{kind: KindBoolean, b: b} }

// Kind reports which case v holds.
func (v JSONAny) Kind() ScalarKind { return v.kind }

// Float returns the float case.
func (v JSONAny) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Int returns the integer case.
func (v JSONAny) Int() (int64, bool) { return v.i, v.kind == KindInteger }

// Str returns the string case.
func (v JSONAny) Str() (string, bool) { return v.s, v.kind == KindString }

// Bool returns the boolean case.
func (v JSONAny) Bool() (bool, bool) { return v.b, v.kind == KindBoolean }

// Value returns the held value as a plain Go value, or nil when unset.
func (v JSONAny) Value() any {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInteger:
		return v.i
	case KindString:
		return v.s
	case KindBoolean:
		return v.b
	default:
		return nil
	}
}

func (v JSONAny) String() string {
	switch v.kind {
	case KindFloat:
		return formatFloat(v.f)
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindString:
		return v.s
	case KindBoolean:
		return strconv.FormatBool(v.b)
	default:
		return "null"
	}
}

// MarshalJSON implements json.Marshaler.
func (v JSONAny) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindFloat:
		return marshalFloat(v.f)
	case KindInteger:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindString:
		return serde.Marshal(v.s)
	case KindBoolean:
		return strconv.AppendBool(nil, v.b), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Numbers are tried as integers
// before floats, then strings, then booleans.
func (v *JSONAny) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if serde.IsNull(data) {
		return nil
	}
	if n, ok, err := parseNumber(data); ok {
		if err != nil {
			return err
		}
		*v = n.any()
		return nil
	}
	switch {
	case data[0] == '"':
		var s string
		if err := serde.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = AnyString(s)
	case bytes.Equal(data, []byte("true")):
		*v = AnyBool(true)
	case bytes.Equal(data, []byte("false")):
		*v = AnyBool(false)
	default:
		return fmt.Errorf("expected a number, string or boolean, got %s", serde.Excerpt(data, 64))
	}
	return nil
}

// JSONNumber is a number that is either a float or an integer.
type JSONNumber struct {
	kind ScalarKind
	f    float64
	i    int64
}

// NumberFloat returns a float JSONNumber.
func NumberFloat(f float64) JSONNumber { return JSONNumber{kind: KindFloat, f: f} }

// NumberInt returns an integer JSONNumber.
func NumberInt(i int64) JSONNumber { return JSONNumber{kind: KindInteger, i: i} }

// Kind reports which case n holds.
func (n JSONNumber) Kind() ScalarKind { return n.kind }

// Float returns n as a float64 regardless of case.
func (n JSONNumber) Float() float64 {
	if n.kind == KindInteger {
		return float64(n.i)
	}
	return n.f
}

// Int returns the integer case.
func (n JSONNumber) Int() (int64, bool) { return n.i, n.kind == KindInteger }

func (n JSONNumber) String() string { return n.any().String() }

// MarshalJSON implements json.Marshaler.
func (n JSONNumber) MarshalJSON() ([]byte, error) { return n.any().MarshalJSON() }

func (n JSONNumber) any() JSONAny { return JSONAny{kind: n.kind, f: n.f, i: n.i} }

// UnmarshalJSON implements json.Unmarshaler.
func (n *JSONNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if serde.IsNull(data) {
		return nil
	}
	v, ok, err := parseNumber(data)
	if !ok {
		return fmt.Errorf("expected a number, got %s", serde.Excerpt(data, 64))
	}
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// parseNumber reports ok=false when data is not a number literal.
func parseNumber(data []byte) (JSONNumber, bool, error) {
	if len(data) == 0 || (data[0] != '-' && (data[0] < '0' || data[0] > '9')) {
		return JSONNumber{}, false, nil
	}
	lit := string(data)
	if !bytes.ContainsAny(data, ".eE") {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return NumberInt(i), true, nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return JSONNumber{}, true, fmt.Errorf("invalid number %q: %w", lit, err)
	}
	return NumberFloat(f), true, nil
}

func marshalFloat(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("unsupported float value %v", f)
	}
	return []byte(formatFloat(f)), nil
}

// formatFloat always keeps a decimal point or exponent so the value decodes
// back as a float.
func formatFloat(f float64) string {
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !bytes.ContainsAny([]byte(s), ".eEn") {
		s += ".0"
	}
	return s
}
