package query

import (
	"fmt"
	"reflect"

	"github.com/leapstack-labs/druidql/pkg/serde"
)

type rawMessage = serde.RawMessage

type unmarshaler interface {
	UnmarshalJSON([]byte) error
}

// decodeVariant decodes data into a fresh V. The discriminator member is
// ignored by V's own decoding. A custom UnmarshalJSON is called directly so
// its errors keep their identity for errors.Is and errors.As.
func decodeVariant[V any](data []byte) (V, error) {
	var v V
	if u, ok := any(&v).(unmarshaler); ok {
		if err := u.UnmarshalJSON(data); err != nil {
			return v, err
		}
	} else if err := serde.Unmarshal(data, &v); err != nil {
		return v, err
	}
	dropEmpty(&v)
	return v, nil
}

// dropEmpty sets the empty slice and map fields of the struct v points to
// back to nil. Encoding writes nil lists as [], so nil is the decoded form of
// an empty collection.
func dropEmpty(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return
	}
	rv = rv.Elem()
	for i := range rv.NumField() {
		f := rv.Field(i)
		switch f.Kind() {
		case reflect.Slice, reflect.Map:
			if f.CanSet() && !f.IsNil() && f.Len() == 0 {
				f.SetZero()
			}
		}
	}
}

// decodeQuery decodes data into a fresh *V.
func decodeQuery[V any, P interface {
	*V
	Query
	unmarshaler
}](data []byte) (Query, error) {
	p := P(new(V))
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeOptional decodes raw with dec, or returns the zero value when raw
// is absent or null.
func decodeOptional[T any](raw rawMessage, dec func([]byte) (T, error)) (T, error) {
	var zero T
	if serde.IsNull(raw) {
		return zero, nil
	}
	return dec(raw)
}

// decodeRequired is decodeOptional that reports a missing field.
func decodeRequired[T any](raw rawMessage, field string, dec func([]byte) (T, error)) (T, error) {
	var zero T
	if serde.IsNull(raw) {
		return zero, missing(field)
	}
	v, err := dec(raw)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

// decodeSlice decodes each element with dec. An empty input decodes to nil.
func decodeSlice[T any](raws []rawMessage, field string, dec func([]byte) (T, error)) ([]T, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		v, err := dec(raw)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func readTag(data []byte, family string) (string, error) {
	tag, err := serde.Tag(data, "type")
	if err != nil {
		return "", fmt.Errorf("%s: %w", family, err)
	}
	return tag, nil
}
