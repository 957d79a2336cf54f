// Copyright 2025 Certen Protocol
//
// Element reconciliation (C3): merges a caller-supplied desired set of
// child elements (aliases, resources, or edges) against the prior
// stored array, applying soft-delete/resurrection semantics. Grounded
// on the upsert-by-id merge in the teacher's repository_unified.go,
// generalized here over the three child-element kinds with an
// F-bounded generic constraint so the tombstone/append rules are
// written exactly once and every transition returns a fresh value
// rather than mutating shared state.

package reconcile

import "time"

// Element is the shape every child-element kind (Alias, Resource, Edge)
// must implement so Reconcile can operate on it without knowing the
// payload layout. Every transition method returns a new T; none mutate
// the receiver, so prior snapshots held elsewhere (e.g. for diffing)
// are never aliased by reconciliation.
type Element[T any] interface {
	ElementID() string
	IsDeleted() bool
	// Tombstoned returns a copy with dateDeleted set to at.
	Tombstoned(at time.Time) T
	// Touched returns a copy with the payload replaced by other's and
	// dateModified set to at.
	Touched(at time.Time, other T) T
	// PayloadEqual reports whether the content fields (excluding
	// id/dateCreated/dateModified/dateDeleted) are canonically equal.
	PayloadEqual(other T) bool
	// NewWithID returns a fresh element carrying this payload, the
	// given id, and dateCreated set to at.
	NewWithID(id string, createdAt time.Time) T
}

// Reconcile merges prior (which may contain tombstoned entries) against
// desired, returning the next-state array per the algorithm in the
// element-reconciler design: live entries missing from desired are
// tombstoned in place; live entries present but changed get their
// payload overwritten and dateModified bumped; ids absent from prior
// are appended at the tail, even if a tombstoned entry shares the id
// (the tombstone is never revived). Original order is preserved for
// existing indices.
func Reconcile[T Element[T]](prior []T, desired []T, now time.Time) []T {
	desiredByID := make(map[string]T, len(desired))
	order := make([]string, 0, len(desired))
	for _, d := range desired {
		id := d.ElementID()
		if _, seen := desiredByID[id]; !seen {
			order = append(order, id)
		}
		desiredByID[id] = d
	}

	next := make([]T, len(prior))
	copy(next, prior)

	for i, p := range next {
		if p.IsDeleted() {
			continue
		}
		d, ok := desiredByID[p.ElementID()]
		if !ok {
			next[i] = p.Tombstoned(now)
			continue
		}
		if !p.PayloadEqual(d) {
			next[i] = p.Touched(now, d)
		}
		delete(desiredByID, p.ElementID())
	}

	for _, id := range order {
		d, ok := desiredByID[id]
		if !ok {
			continue // matched against a live prior entry above
		}
		next = append(next, d.NewWithID(id, now))
	}

	return next
}
