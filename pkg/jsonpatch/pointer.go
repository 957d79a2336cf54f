// Copyright 2025 Certen Protocol
//
// RFC 6901 JSON Pointer helpers used by the patch engine.

package jsonpatch

import (
	"fmt"
	"strconv"
	"strings"
)

// Tokens splits a JSON Pointer ("/a/b/0") into its unescaped reference
// tokens. The root pointer "" yields an empty slice.
func Tokens(pointer string) ([]string, error) {
	if pointer == "" {
		return nil, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("jsonpatch: pointer %q must start with '/'", pointer)
	}
	raw := strings.Split(pointer[1:], "/")
	out := make([]string, len(raw))
	for i, t := range raw {
		out[i] = unescapeToken(t)
	}
	return out, nil
}

// Token builds a single escaped reference token.
func Token(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	return s
}

// JoinPath appends an escaped token to an existing pointer.
func JoinPath(base string, token string) string {
	return base + "/" + Token(token)
}

func unescapeToken(t string) string {
	t = strings.ReplaceAll(t, "~1", "/")
	t = strings.ReplaceAll(t, "~0", "~")
	return t
}

// arrayIndex resolves a reference token against an array of the given
// length. allowAppend permits the "-" token (returns length).
func arrayIndex(token string, length int, allowAppend bool) (int, error) {
	if token == "-" {
		if allowAppend {
			return length, nil
		}
		return 0, fmt.Errorf("jsonpatch: '-' not valid in this position")
	}
	idx, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("jsonpatch: invalid array index %q: %w", token, err)
	}
	if idx < 0 || idx > length {
		return 0, fmt.Errorf("jsonpatch: array index %d out of range [0,%d]", idx, length)
	}
	return idx, nil
}
