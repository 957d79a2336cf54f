// Copyright 2025 Certen Protocol

package audit

import "github.com/certen/aig/pkg/vertex"

// DesiredVertex is the caller-supplied shape for create/update: only
// the fields a caller may set.
type DesiredVertex struct {
	AnnotationObject interface{}      `json:"annotationObject,omitempty"`
	Aliases          []vertex.Alias   `json:"aliases,omitempty"`
	Resources        []vertex.Resource `json:"resources,omitempty"`
	Edges            []vertex.Edge    `json:"edges,omitempty"`
}

// VerifyDepth selects how many changeset proofs get(id, ...) re-checks.
type VerifyDepth string

const (
	VerifyNone    VerifyDepth = "none"
	VerifyCurrent VerifyDepth = "current"
	VerifyAll     VerifyDepth = "all"
)

// GetOptions controls get's behaviour.
type GetOptions struct {
	IncludeDeleted    bool
	IncludeChangesets bool
	VerifyDepth       VerifyDepth
}
