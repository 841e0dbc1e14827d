// Package marker models the remote peer's opaque progress marker. A marker is
// either empty, a non-negative integer, or an arbitrary JSON token for peers
// whose progress is not a simple counter.
package marker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrNotNumeric is returned when an integer is requested from a marker that
	// does not hold one.
	ErrNotNumeric = errors.New("marker: not numeric")
	// ErrNotOrdered is returned when ordering markers that are not both numeric.
	ErrNotOrdered = errors.New("marker: markers are not ordered")
)

// Kind tags the variant held by a Marker.
type Kind uint8

const (
	Empty Kind = iota
	Integer
	Token
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Integer:
		return "integer"
	case Token:
		return "token"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Marker is a remote progress marker. The zero value is the empty marker.
type Marker struct {
	kind Kind
	num  uint64
	raw  string // compact JSON for Token
}

// Uint returns an integer marker.
func Uint(v uint64) Marker {
	return Marker{kind: Integer, num: v}
}

// TokenOf returns a marker holding v as an opaque token. Non-negative
// integers still produce an integer marker, so a marker never depends on the
// constructor used to build it.
func TokenOf(v any) (Marker, error) {
	if v == nil {
		return Marker{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Marker{}, fmt.Errorf("marker: encode token: %w", err)
	}
	return FromJSON(data)
}

// FromJSON parses a JSON encoded marker. An empty input or JSON null yields
// the empty marker.
func FromJSON(data []byte) (Marker, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Marker{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Marker{}, fmt.Errorf("marker: decode: %w", err)
	}
	return FromValue(v), nil
}

// FromValue builds a marker from a decoded JSON value, such as one returned by
// a gabs container or encoding/json with UseNumber. Absent values (nil) give
// the empty marker, non-negative integers give an integer marker, and any other
// value is kept as an opaque token.
func FromValue(v any) Marker {
	switch n := v.(type) {
	case nil:
		return Marker{}
	case Marker:
		return n
	case json.RawMessage:
		parsed, err := FromJSON(n)
		if err != nil {
			return Marker{}
		}
		return parsed
	case json.Number:
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return Uint(u)
		}
	case uint64:
		return Uint(n)
	case uint32:
		return Uint(uint64(n))
	case uint:
		return Uint(uint64(n))
	case int64:
		if n >= 0 {
			return Uint(uint64(n))
		}
	case int:
		if n >= 0 {
			return Uint(uint64(n))
		}
	case float64:
		// encoding/json without UseNumber decodes every number as float64.
		if n >= 0 && n <= math.MaxInt64 && n == math.Trunc(n) {
			return Uint(uint64(n))
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		// Not representable as JSON, treat as absent.
		return Marker{}
	}
	return Marker{kind: Token, raw: string(data)}
}

// Kind returns the variant held by m.
func (m Marker) Kind() Kind { return m.kind }

// IsEmpty reports whether no value was ever set.
func (m Marker) IsEmpty() bool { return m.kind == Empty }

// IsNumeric reports whether m holds an integer.
func (m Marker) IsNumeric() bool { return m.kind == Integer }

// Uint64 returns the integer value. It fails with ErrNotNumeric unless
// IsNumeric is true.
func (m Marker) Uint64() (uint64, error) {
	if m.kind != Integer {
		return 0, fmt.Errorf("%w: %s marker", ErrNotNumeric, m.kind)
	}
	return m.num, nil
}

// Equal compares markers by representation.
func (m Marker) Equal(other Marker) bool {
	return m == other
}

// Compare orders two integer markers, returning -1, 0 or +1. Any other
// combination fails with ErrNotOrdered; use Equal for those.
func (m Marker) Compare(other Marker) (int, error) {
	if m.kind != Integer || other.kind != Integer {
		return 0, fmt.Errorf("%w: %s vs %s", ErrNotOrdered, m.kind, other.kind)
	}
	switch {
	case m.num < other.num:
		return -1, nil
	case m.num > other.num:
		return 1, nil
	}
	return 0, nil
}

// Value returns the structured form of m: nil, a uint64, or a
// json.RawMessage holding the token.
func (m Marker) Value() any {
	switch m.kind {
	case Integer:
		return m.num
	case Token:
		return json.RawMessage(m.raw)
	}
	return nil
}

// MarshalJSON implements json.Marshaler. The empty marker encodes as null.
func (m Marker) MarshalJSON() ([]byte, error) {
	switch m.kind {
	case Integer:
		return strconv.AppendUint(nil, m.num, 10), nil
	case Token:
		return []byte(m.raw), nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Marker) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// String renders the JSON form, or an empty string for the empty marker.
func (m Marker) String() string {
	switch m.kind {
	case Integer:
		return strconv.FormatUint(m.num, 10)
	case Token:
		return m.raw
	}
	return ""
}
