// Package serde holds the JSON codec and the small decoding helpers shared by
// the query and response models.
//
// All encoding goes through json-iterator configured to behave like
// encoding/json, so Marshaler/Unmarshaler implementations and struct tags
// work unchanged.
package serde

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMissingTag is returned when an encoded object carries no discriminator.
var ErrMissingTag = errors.New("missing discriminator")

// Marshal encodes v.
func Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// MarshalIndent encodes v with indentation. The compact encoding is
// re-indented since json-iterator leaves nested map values unindented.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := stdjson.Indent(&buf, data, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Valid reports whether data is a well-formed JSON document.
func Valid(data []byte) bool { return json.Valid(data) }

// IsNull reports whether data is the JSON literal null (or empty).
func IsNull(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}

// OrEmpty returns s, or an empty non-nil slice when s is nil.
func OrEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// OrEmptyMap returns m, or an empty non-nil map when m is nil.
func OrEmptyMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}

// Tag reads the string member key of the encoded object data without
// decoding the rest of it.
func Tag(data []byte, key string) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return "", fmt.Errorf("expected object carrying %q, got %s", key, excerpt(data))
	}
	v := json.Get(data, key)
	if err := v.LastError(); err != nil || v.ValueType() != jsoniter.StringValue {
		return "", fmt.Errorf("%w %q in %s", ErrMissingTag, key, excerpt(data))
	}
	return v.ToString(), nil
}

// Has reports whether data is an object with a top-level member key,
// whatever its value.
func Has(data []byte, key string) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return false
	}
	return json.Get(data, key).ValueType() != jsoniter.InvalidValue
}

// MarshalTagged encodes v, which must encode to a JSON object, and injects
// key: tag as its first member.
func MarshalTagged(key, tag string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("tagged value %q must encode to an object", tag)
	}
	head, err := json.Marshal(tag)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(key) + len(head) + 4)
	buf.WriteByte('{')
	buf.WriteByte('"')
	buf.WriteString(key)
	buf.WriteString(`":`)
	buf.Write(head)
	if !bytes.Equal(body, []byte("{}")) {
		buf.WriteByte(',')
	}
	buf.Write(body[1:])
	return buf.Bytes(), nil
}

// TaggedOrUntagged decodes a field the remote engine writes either as a bare
// string, as an object {"type": "..."} or as null. The returned tag is
// lowercased; null yields def.
func TaggedOrUntagged(data []byte, def string) (string, error) {
	data = bytes.TrimSpace(data)
	if IsNull(data) {
		return def, nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.ToLower(s), nil
	case '{':
		var obj struct {
			Type *string `json:"type"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", err
		}
		if obj.Type == nil {
			return "", fmt.Errorf("%w \"type\" in %s", ErrMissingTag, excerpt(data))
		}
		return strings.ToLower(*obj.Type), nil
	}
	return "", fmt.Errorf("expected string, {\"type\": ...} or null, got %s", excerpt(data))
}

// Excerpt returns data truncated to at most n bytes, for error messages.
func Excerpt(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}

func excerpt(data []byte) string { return Excerpt(data, 64) }

// RawMessage is a raw encoded JSON value, used to defer decoding of
// polymorphic members.
type RawMessage = jsoniter.RawMessage
