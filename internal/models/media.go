// Defines the two-variant media value and its store encoding.

package models

import (
	"encoding/json"
	"strings"
)

// RefPrefix tags a stored string as a reference to an externalized media
// entry rather than an inline payload.
const RefPrefix = "storage:"

// MediaValue holds a media field in one of two states: an inline payload
// (data URL text) or a reference to an externalized store entry.
//
// The persisted encoding is a plain JSON string; references carry the
// "storage:" prefix. Internally the two states are explicit so code cannot
// confuse a reference token with real media data. The zero value is "no
// media".
type MediaValue struct {
	payload string
	key     string
}

// Inline wraps an inline media payload.
func Inline(payload string) MediaValue {
	return MediaValue{payload: payload}
}

// Reference wraps a store key pointing at an externalized payload.
func Reference(key string) MediaValue {
	return MediaValue{key: key}
}

// ParseMediaValue decodes the store encoding: a "storage:" prefixed string is
// a reference, anything else is an inline payload.
func ParseMediaValue(s string) MediaValue {
	if key, ok := strings.CutPrefix(s, RefPrefix); ok && key != "" {
		return Reference(key)
	}
	return Inline(strings.TrimPrefix(s, RefPrefix))
}

// IsZero returns true if the value holds no media.
// Implements the interface for json omitzero.
func (v MediaValue) IsZero() bool {
	return v.payload == "" && v.key == ""
}

// IsRef returns true if the value is a reference to an externalized entry.
func (v MediaValue) IsRef() bool {
	return v.key != ""
}

// Key returns the referenced store key, or "" for inline values.
func (v MediaValue) Key() string {
	return v.key
}

// Payload returns the inline payload, or "" for references.
func (v MediaValue) Payload() string {
	return v.payload
}

// String returns the store encoding: the inline payload as-is, or the
// prefixed reference token.
func (v MediaValue) String() string {
	if v.key != "" {
		return RefPrefix + v.key
	}
	return v.payload
}

// MarshalJSON implements json.Marshaler using the store encoding.
func (v MediaValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *MediaValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = ParseMediaValue(s)
	return nil
}
