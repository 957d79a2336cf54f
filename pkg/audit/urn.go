// Copyright 2025 Certen Protocol

package audit

import (
	"strings"

	"github.com/certen/aig/pkg/aigerr"
)

const urnPrefix = "aig:"

// parseVertexURN accepts either a bare hex32 id or an "aig:<hex32>" URN
// and returns the bare id, failing namespace-mismatch for anything else
// carrying a foreign scheme.
func parseVertexURN(s string) (string, error) {
	if !strings.Contains(s, ":") {
		return s, nil
	}
	if !strings.HasPrefix(s, urnPrefix) {
		return "", aigerr.NamespaceMismatch("expected %q scheme, got %q", "aig", s)
	}
	rest := strings.TrimPrefix(s, urnPrefix)
	if strings.Contains(rest, ":") {
		return "", aigerr.NamespaceMismatch("expected a vertex urn, got a changeset urn %q", s)
	}
	return rest, nil
}
