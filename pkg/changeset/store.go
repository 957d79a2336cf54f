// Copyright 2025 Certen Protocol
//
// Changeset store contract (C5): insert, per-vertex ordered iteration,
// and lookup by id. Concrete backends live in sibling files.

package changeset

import "context"

// Store is the C5 collaborator interface the audit engine depends on.
type Store interface {
	// Insert persists c. The caller guarantees c.DateCreated is not
	// earlier than the last changeset recorded for the same vertex.
	Insert(ctx context.Context, c Changeset) error

	// List returns every changeset for vertexId ordered by
	// dateCreated, ascending when ascending is true.
	List(ctx context.Context, vertexID string, ascending bool) ([]Changeset, error)

	// GetByID returns a single changeset by its own id.
	GetByID(ctx context.Context, id string) (Changeset, error)
}
