// Copyright 2025 Certen Protocol
//
// Canonical encoding of opaque JSON-ish values (JCS-style): object keys
// sorted by Unicode code point, numbers in shortest round-trip decimal
// form, UTF-8 strings, array order preserved, no incidental whitespace.
// Used for hashing proof inputs, for value-equality during diffing, and
// for content-addressing child-element payloads.

package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Value is the opaque structured-JSON sum type the core operates over:
// nil, bool, json.Number, string, []Value, or map[string]Value.
type Value = interface{}

// Parse decodes raw JSON bytes into a Value, preserving numbers as
// json.Number so re-encoding doesn't silently widen precision.
func Parse(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v Value
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return v, nil
}

// Canonicalize produces the canonical byte encoding of v. v may be the
// result of Parse, or any combination of nil/bool/json.Number/float64/
// string/[]interface{}/map[string]interface{} built up programmatically.
func Canonicalize(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustCanonicalize panics on error; for use with values already known to
// be well-formed (e.g. freshly constructed vertex snapshots).
func MustCanonicalize(v Value) []byte {
	b, err := Canonicalize(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Equal reports whether a and b are semantically equal under canonical
// encoding. Returns false (not an error) if either fails to canonicalize.
func Equal(a, b Value) bool {
	ab, err := Canonicalize(a)
	if err != nil {
		return false
	}
	bb, err := Canonicalize(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Hash returns the SHA-256 digest of v's canonical encoding.
func Hash(v Value) ([32]byte, error) {
	b, err := Canonicalize(v)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(b), nil
}

func encode(buf *bytes.Buffer, v Value) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case string:
		return encodeString(buf, t)
	case json.Number:
		return encodeNumber(buf, t)
	case float64:
		return encodeNumber(buf, json.Number(strconv.FormatFloat(t, 'g', -1, 64)))
	case int:
		buf.WriteString(strconv.Itoa(t))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
		return nil
	case []Value:
		return encodeArray(buf, t)
	case map[string]Value:
		return encodeObject(buf, t)
	default:
		return fmt.Errorf("canonical: unsupported value type %T", v)
	}
}

func encodeArray(buf *bytes.Buffer, arr []Value) error {
	buf.WriteByte('[')
	for i, e := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(buf, e); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]Value) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys) // sorts by Unicode code point over UTF-8 bytes
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encode(buf, obj[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// encodeString reuses encoding/json's string escaping: non-ASCII runes,
// non-BMP ones included, are written as raw UTF-8 rather than as
// surrogate-pair escapes, and '<', '>' and '&' are written as
// backslash-u hex escapes.
func encodeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("canonical: encode string: %w", err)
	}
	buf.Write(b)
	return nil
}

// encodeNumber reformats n into shortest round-trip decimal form with no
// trailing zeros and no "-0".
func encodeNumber(buf *bytes.Buffer, n json.Number) error {
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("canonical: invalid number %q: %w", n, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("canonical: number %q is not finite", n)
	}
	if f == 0 {
		buf.WriteByte('0')
		return nil
	}

	// Prefer an integer rendering when n has no fractional part and no
	// exponent marker, to avoid "1.0" where "1" round-trips identically.
	if i, ierr := n.Int64(); ierr == nil {
		buf.WriteString(strconv.FormatInt(i, 10))
		return nil
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	// strconv emits e.g. "1e+21"; JSON/JCS numbers don't use a leading '+'.
	s = stripPlusExponent(s)
	buf.WriteString(s)
	return nil
}

func stripPlusExponent(s string) string {
	for i := 0; i < len(s); i++ {
		if (s[i] == 'e' || s[i] == 'E') && i+1 < len(s) && s[i+1] == '+' {
			return s[:i+1] + s[i+2:]
		}
	}
	return s
}
