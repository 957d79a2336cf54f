// Copyright 2025 Certen Protocol
//
// Vertex store contract (C4): persistence plus id/alias-prefix lookup
// and paged query. Concrete backends (memory, Postgres, Firestore) live
// in sibling files; the audit engine depends only on this interface.

package vertex

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"

	"github.com/certen/aig/pkg/aigerr"
)

// IDMode selects which index query() matches against.
type IDMode string

const (
	IDModeID    IDMode = "id"
	IDModeAlias IDMode = "alias"
	IDModeBoth  IDMode = "both"
)

// OrderField is a sortable vertex timestamp field.
type OrderField string

const (
	OrderByDateCreated  OrderField = "dateCreated"
	OrderByDateModified OrderField = "dateModified"
)

// Criteria narrows a query by identifier and resource type.
type Criteria struct {
	IDPrefix      string
	IDMode        IDMode
	ResourceTypes []string
}

// Order controls result sequencing. Ties are always broken by id
// ascending.
type Order struct {
	Field     OrderField
	Ascending bool
}

const DefaultPageSize = 20

// Page is one page of a query, plus an opaque cursor for the next page
// (empty when exhausted).
type Page struct {
	Vertices []Vertex
	Cursor   string
}

// Store is the C4 collaborator interface the audit engine depends on.
type Store interface {
	Put(ctx context.Context, v Vertex) error
	Get(ctx context.Context, id string) (Vertex, error)
	Query(ctx context.Context, criteria Criteria, order Order, cursor string, pageSize int) (Page, error)
}

// cursorPayload is the opaque cursor's decoded shape: the sort key and
// id of the last row returned, letting Query resume deterministically.
type cursorPayload struct {
	SortKey string `json:"k"`
	ID      string `json:"id"`
}

func encodeCursor(p cursorPayload) string {
	b, _ := json.Marshal(p)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeCursor(s string) (cursorPayload, error) {
	var p cursorPayload
	if s == "" {
		return p, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return p, aigerr.Validation(err, "invalid cursor")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, aigerr.Validation(err, "invalid cursor")
	}
	return p, nil
}

// matches reports whether v satisfies criteria.
func matches(v Vertex, c Criteria) bool {
	if c.IDPrefix != "" {
		var hit bool
		switch c.IDMode {
		case IDModeAlias:
			hit = aliasIndexMatch(v.AliasIndex, c.IDPrefix)
		case IDModeBoth:
			hit = strings.HasPrefix(v.ID, c.IDPrefix) || aliasIndexMatch(v.AliasIndex, c.IDPrefix)
		default:
			hit = strings.HasPrefix(v.ID, c.IDPrefix)
		}
		if !hit {
			return false
		}
	}
	if len(c.ResourceTypes) > 0 {
		var hit bool
		for _, rt := range c.ResourceTypes {
			if strings.Contains(v.ResourceTypeIndex, rt) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// aliasIndexMatch checks prefix matches anchored at a "||" boundary,
// i.e. against each individual alias id, not an arbitrary substring of
// the concatenated index.
func aliasIndexMatch(index, prefix string) bool {
	if index == "" {
		return false
	}
	for _, id := range strings.Split(index, "||") {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

// sortKey returns the comparable value for v under field, formatted so
// lexicographic string comparison matches chronological order.
func sortKey(v Vertex, field OrderField) string {
	switch field {
	case OrderByDateModified:
		return v.DateModified.UTC().Format("20060102T150405.000000000Z")
	default:
		return v.DateCreated.UTC().Format("20060102T150405.000000000Z")
	}
}

// sortVertices orders vs by order, breaking ties on id ascending.
func sortVertices(vs []Vertex, order Order) {
	sort.SliceStable(vs, func(i, j int) bool {
		ki, kj := sortKey(vs[i], order.Field), sortKey(vs[j], order.Field)
		if ki != kj {
			if order.Ascending {
				return ki < kj
			}
			return ki > kj
		}
		return vs[i].ID < vs[j].ID
	})
}

func normalizePageSize(pageSize int) int {
	if pageSize <= 0 {
		return DefaultPageSize
	}
	return pageSize
}

func afterCursor(vs []Vertex, order Order, cur cursorPayload) []Vertex {
	if cur.SortKey == "" && cur.ID == "" {
		return vs
	}
	for i, v := range vs {
		key := sortKey(v, order.Field)
		if key == cur.SortKey && v.ID == cur.ID {
			return vs[i+1:]
		}
	}
	return nil
}

// PaginateInMemory applies criteria, order and cursor to an already
// fully-loaded candidate set. Backends that cannot push filtering and
// pagination down to storage (the Postgres and Firestore stores load
// every vertex first) share this logic rather than re-implementing it.
func PaginateInMemory(all []Vertex, criteria Criteria, order Order, cursor string, pageSize int) (Page, error) {
	cur, err := decodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	matched := make([]Vertex, 0, len(all))
	for _, v := range all {
		if matches(v, criteria) {
			matched = append(matched, cloneVertex(v))
		}
	}
	sortVertices(matched, order)
	matched = afterCursor(matched, order, cur)

	size := normalizePageSize(pageSize)
	page := Page{}
	if len(matched) > size {
		page.Vertices = matched[:size]
		last := page.Vertices[len(page.Vertices)-1]
		page.Cursor = encodeCursor(cursorPayload{SortKey: sortKey(last, order.Field), ID: last.ID})
	} else {
		page.Vertices = matched
	}
	return page, nil
}

func cloneVertex(v Vertex) Vertex {
	out := v
	out.Aliases = append([]Alias(nil), v.Aliases...)
	out.Resources = append([]Resource(nil), v.Resources...)
	out.Edges = append([]Edge(nil), v.Edges...)
	return out
}
