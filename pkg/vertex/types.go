// Copyright 2025 Certen Protocol
//
// Core data model: Vertex and its three child-element kinds (Alias,
// Resource, Edge). Grounded on the field layout of the teacher's
// proof_artifact_types.go, generalized from a single proof-artifact
// shape to the graph-vertex/child-element shape this system needs.

package vertex

import (
	"time"

	"github.com/certen/aig/pkg/canonical"
)

// Vertex is a uniquely-identified graph node with annotations, aliases,
// resources and edges.
type Vertex struct {
	ID               string        `json:"id"`
	NodeIdentity     string        `json:"nodeIdentity"`
	DateCreated      time.Time     `json:"dateCreated"`
	DateModified     time.Time     `json:"dateModified"`
	AnnotationObject interface{}   `json:"annotationObject,omitempty"`
	Aliases          []Alias       `json:"aliases"`
	Resources        []Resource    `json:"resources"`
	Edges            []Edge        `json:"edges"`

	// Secondary indexes, refreshed on every put.
	AliasIndex        string `json:"aliasIndex,omitempty"`
	ResourceTypeIndex string `json:"resourceTypeIndex,omitempty"`
}

// Alias is an alternative identifier attached to a vertex.
type Alias struct {
	ID               string      `json:"id"`
	DateCreated      time.Time   `json:"dateCreated"`
	DateModified     time.Time   `json:"dateModified,omitempty"`
	DateDeleted      time.Time   `json:"dateDeleted,omitempty"`
	AnnotationObject interface{} `json:"annotationObject,omitempty"`
	AliasFormat      string      `json:"aliasFormat,omitempty"`
}

func (a Alias) ElementID() string { return a.ID }
func (a Alias) IsDeleted() bool   { return !a.DateDeleted.IsZero() }

func (a Alias) Tombstoned(at time.Time) Alias {
	a.DateDeleted = at
	return a
}

func (a Alias) Touched(at time.Time, other Alias) Alias {
	a.AnnotationObject = other.AnnotationObject
	a.AliasFormat = other.AliasFormat
	a.DateModified = at
	return a
}

func (a Alias) PayloadEqual(other Alias) bool {
	return canonical.Equal(a.AnnotationObject, other.AnnotationObject) && a.AliasFormat == other.AliasFormat
}

func (a Alias) NewWithID(id string, createdAt time.Time) Alias {
	a.ID = id
	a.DateCreated = createdAt
	a.DateModified = time.Time{}
	a.DateDeleted = time.Time{}
	return a
}

// Resource is a sub-document attached to a vertex.
type Resource struct {
	ID              string      `json:"id"`
	DateCreated     time.Time   `json:"dateCreated"`
	DateModified    time.Time   `json:"dateModified,omitempty"`
	DateDeleted     time.Time   `json:"dateDeleted,omitempty"`
	ResourceObject  interface{} `json:"resourceObject,omitempty"`
}

func (r Resource) ElementID() string { return r.ID }
func (r Resource) IsDeleted() bool   { return !r.DateDeleted.IsZero() }

func (r Resource) Tombstoned(at time.Time) Resource {
	r.DateDeleted = at
	return r
}

func (r Resource) Touched(at time.Time, other Resource) Resource {
	r.ResourceObject = other.ResourceObject
	r.DateModified = at
	return r
}

func (r Resource) PayloadEqual(other Resource) bool {
	return canonical.Equal(r.ResourceObject, other.ResourceObject)
}

func (r Resource) NewWithID(id string, createdAt time.Time) Resource {
	r.ID = id
	r.DateCreated = createdAt
	r.DateModified = time.Time{}
	r.DateDeleted = time.Time{}
	return r
}

// Edge is a typed relationship from this vertex to another identifier.
type Edge struct {
	ID               string      `json:"id"`
	DateCreated      time.Time   `json:"dateCreated"`
	DateModified     time.Time   `json:"dateModified,omitempty"`
	DateDeleted      time.Time   `json:"dateDeleted,omitempty"`
	EdgeObject       interface{} `json:"edgeObject,omitempty"`
	EdgeRelationship string      `json:"edgeRelationship"`
}

func (e Edge) ElementID() string { return e.ID }
func (e Edge) IsDeleted() bool   { return !e.DateDeleted.IsZero() }

func (e Edge) Tombstoned(at time.Time) Edge {
	e.DateDeleted = at
	return e
}

func (e Edge) Touched(at time.Time, other Edge) Edge {
	e.EdgeObject = other.EdgeObject
	e.EdgeRelationship = other.EdgeRelationship
	e.DateModified = at
	return e
}

// PayloadEqual additionally compares edgeRelationship: a change there is
// a content change, not a replace-in-place deletion.
func (e Edge) PayloadEqual(other Edge) bool {
	return canonical.Equal(e.EdgeObject, other.EdgeObject) && e.EdgeRelationship == other.EdgeRelationship
}

func (e Edge) NewWithID(id string, createdAt time.Time) Edge {
	e.ID = id
	e.DateCreated = createdAt
	e.DateModified = time.Time{}
	e.DateDeleted = time.Time{}
	return e
}

// LiveAliases returns a with every tombstoned entry removed.
func LiveAliases(a []Alias) []Alias {
	out := make([]Alias, 0, len(a))
	for _, e := range a {
		if !e.IsDeleted() {
			out = append(out, e)
		}
	}
	return out
}

// LiveResources returns r with every tombstoned entry removed.
func LiveResources(r []Resource) []Resource {
	out := make([]Resource, 0, len(r))
	for _, e := range r {
		if !e.IsDeleted() {
			out = append(out, e)
		}
	}
	return out
}

// LiveEdges returns e with every tombstoned entry removed.
func LiveEdges(e []Edge) []Edge {
	out := make([]Edge, 0, len(e))
	for _, el := range e {
		if !el.IsDeleted() {
			out = append(out, el)
		}
	}
	return out
}

// BuildAliasIndex joins the ids of a's live entries with "||" for
// prefix/substring scan.
func BuildAliasIndex(a []Alias) string {
	live := LiveAliases(a)
	ids := make([]string, len(live))
	for i, e := range live {
		ids[i] = e.ID
	}
	return joinDelim(ids)
}

// BuildResourceTypeIndex joins the JSON-LD @type of r's live entries,
// when present, with "||".
func BuildResourceTypeIndex(r []Resource) string {
	live := LiveResources(r)
	var types []string
	for _, e := range live {
		if t, ok := resourceType(e.ResourceObject); ok {
			types = append(types, t)
		}
	}
	return joinDelim(types)
}

func resourceType(obj interface{}) (string, bool) {
	m, ok := obj.(map[string]interface{})
	if !ok {
		return "", false
	}
	t, ok := m["@type"]
	if !ok {
		return "", false
	}
	s, ok := t.(string)
	return s, ok
}

func joinDelim(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "||"
		}
		out += p
	}
	return out
}
