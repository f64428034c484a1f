package types

import (
	"bytes"
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Metadata is the tag section of the unified output.
//
// Keys are normalized names shared by all formats ("title", "artist",
// "track_number", ...). A key is present only when the source supplied it.
// Values are string, int, bool, or float64.
//
// Tags a decoder cannot map to a normalized key are kept under Raw, keyed
// by their format-specific identifier (e.g. "TXXX:MOOD", "----:com.apple.iTunes:FOO").
type Metadata struct {
	fields map[string]any
	raw    map[string][]string
}

// Set stores a value, ignoring nil and empty strings.
func (m *Metadata) Set(key string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case string:
		v = strings.TrimSpace(strings.TrimRight(v, "\x00"))
		if v == "" {
			return
		}
		value = v
	}
	if m.fields == nil {
		m.fields = make(map[string]any)
	}
	m.fields[key] = value
}

// SetInt stores a positive integer value.
func (m *Metadata) SetInt(key string, v int) {
	if v > 0 {
		m.Set(key, v)
	}
}

// SetIfAbsent stores a value unless the key is already present.
func (m *Metadata) SetIfAbsent(key string, value any) {
	if !m.Has(key) {
		m.Set(key, value)
	}
}

// SetNumberOrString stores an integer when s parses as one, otherwise the string.
func (m *Metadata) SetNumberOrString(key, s string) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		m.Set(key, n)
		return
	}
	m.Set(key, s)
}

// SetPair stores "n/total" style values as two integer keys.
//
// SetPair("track", "3/12") sets track_number=3 and track_total=12.
func (m *Metadata) SetPair(prefix, s string) {
	num, total, found := strings.Cut(strings.TrimSpace(s), "/")
	if n, err := strconv.Atoi(strings.TrimSpace(num)); err == nil {
		m.SetInt(prefix+"_number", n)
	} else {
		m.Set(prefix+"_number", num)
	}
	if found {
		if t, err := strconv.Atoi(strings.TrimSpace(total)); err == nil {
			m.SetInt(prefix+"_total", t)
		}
	}
}

// Delete removes a key.
func (m *Metadata) Delete(key string) {
	delete(m.fields, key)
}

// Get returns the value for key.
func (m *Metadata) Get(key string) (any, bool) {
	v, ok := m.fields[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Metadata) Has(key string) bool {
	_, ok := m.fields[key]
	return ok
}

// String returns the value for key formatted as a string.
//
// Returns empty string if the key doesn't exist.
func (m *Metadata) String(key string) string {
	v, ok := m.fields[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the integer value for key, or 0.
func (m *Metadata) Int(key string) int {
	switch v := m.fields[key].(type) {
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// GetBest tries multiple keys and returns the first non-empty value.
func (m *Metadata) GetBest(candidates ...string) string {
	for _, key := range candidates {
		if v := m.String(key); v != "" {
			return v
		}
	}
	return ""
}

// Len returns the number of normalized keys.
func (m *Metadata) Len() int {
	return len(m.fields)
}

// Keys returns the normalized keys in sorted order.
func (m *Metadata) Keys() []string {
	return slices.Sorted(maps.Keys(m.fields))
}

// All iterates the normalized keys in sorted order.
func (m *Metadata) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range m.Keys() {
			if !yield(k, m.fields[k]) {
				return
			}
		}
	}
}

// AddRaw records an unmapped tag.
func (m *Metadata) AddRaw(key string, values ...string) {
	if key == "" || len(values) == 0 {
		return
	}
	if m.raw == nil {
		m.raw = make(map[string][]string)
	}
	m.raw[key] = append(m.raw[key], values...)
}

// Raw returns a copy of the unmapped tags.
func (m *Metadata) Raw() map[string][]string {
	if m.raw == nil {
		return nil
	}
	out := make(map[string][]string, len(m.raw))
	for k, v := range m.raw {
		out[k] = slices.Clone(v)
	}
	return out
}

// RawFirst returns the first value of an unmapped tag.
func (m *Metadata) RawFirst(key string) string {
	if v := m.raw[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Empty reports whether neither normalized nor raw tags are present.
func (m *Metadata) Empty() bool {
	return len(m.fields) == 0 && len(m.raw) == 0
}

// Clone returns a deep copy.
func (m *Metadata) Clone() Metadata {
	return Metadata{fields: maps.Clone(m.fields), raw: m.Raw()}
}

// Equal reports whether both hold the same keys and values.
func (m *Metadata) Equal(other *Metadata) bool {
	if other == nil {
		return false
	}
	return reflect.DeepEqual(m.fields, other.fields) && reflect.DeepEqual(m.raw, other.raw)
}

// MarshalJSON emits normalized keys in sorted order, then "raw" when present.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value any) error {
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal metadata %q: %w", key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(b)
		return nil
	}
	for k, v := range m.All() {
		if err := write(k, v); err != nil {
			return nil, err
		}
	}
	if len(m.raw) > 0 {
		if err := write("raw", m.raw); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
