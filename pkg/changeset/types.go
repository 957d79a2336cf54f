// Copyright 2025 Certen Protocol
//
// Changeset is the append-only record of one atomic mutation to a
// vertex: its ordered JSON-Patch diff plus a weak reference to the
// external proof that anchors it.

package changeset

import (
	"time"

	"github.com/certen/aig/pkg/jsonpatch"
)

// Changeset is a single atomic mutation record, owned exclusively by
// the changeset store.
type Changeset struct {
	ID           string          `json:"id"`
	VertexID     string          `json:"vertexId"`
	DateCreated  time.Time       `json:"dateCreated"`
	UserIdentity string          `json:"userIdentity"`
	Patches      []jsonpatch.Op  `json:"patches"`
	ProofID      string          `json:"proofId"`
}
