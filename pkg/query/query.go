// Copyright 2025 Certen Protocol
//
// Query/projection (C9): criteria-based search plus property projection
// and plain/JSON-LD output shaping for the REST list/get surface.
// Grounded on the teacher's handler-level filtering conventions in
// pkg/server/bundle_handlers.go, generalized from proof-bundle filtering
// to vertex filtering, plus a JSON-LD expansion step the teacher has no
// analogue for (it never speaks JSON-LD).

package query

import (
	"context"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/iancoleman/strcase"

	"github.com/certen/aig/pkg/aigerr"
	"github.com/certen/aig/pkg/vertex"
)

// Shape selects the REST surface's output projection, chosen by the
// Accept header per spec §4.9/§6.
type Shape string

const (
	ShapePlain  Shape = "plain"
	ShapeJSONLD Shape = "jsonld"
)

// Options is C9's query(options) input, mapping directly onto the REST
// list endpoint's query parameters (spec §6).
type Options struct {
	IDPrefix          string
	IDMode            vertex.IDMode
	ResourceTypes     []string
	Conditions        []string
	OrderBy           vertex.OrderField
	OrderByDescending bool
	Properties        []string
	Cursor            string
	PageSize          int
}

// Result is C9's query(options) output: {vertices, cursor?}.
type Result struct {
	Vertices []map[string]interface{} `json:"vertices"`
	Cursor   string                   `json:"cursor,omitempty"`
}

// Run executes options against store, applying any date conditions as a
// post-filter (storage backends only index id/alias/resourceType
// prefixes, per §6), then projects and shapes each result.
func Run(ctx context.Context, store vertex.Store, opts Options, shape Shape) (Result, error) {
	order := vertex.Order{Field: opts.OrderBy, Ascending: !opts.OrderByDescending}
	if order.Field == "" {
		order.Field = vertex.OrderByDateCreated
	}

	criteria := vertex.Criteria{
		IDPrefix:      opts.IDPrefix,
		IDMode:        opts.IDMode,
		ResourceTypes: opts.ResourceTypes,
	}

	conditions, err := parseConditions(opts.Conditions)
	if err != nil {
		return Result{}, err
	}

	// A condition filter can shrink the matched set below one page, so
	// pagination still runs against the store; conditions are applied
	// to the page the store returns. This matches the page-then-narrow
	// behaviour the teacher's bundle handler uses for its own optional
	// filters layered on top of a paged repository call.
	page, err := store.Query(ctx, criteria, order, opts.Cursor, opts.PageSize)
	if err != nil {
		return Result{}, err
	}

	out := make([]map[string]interface{}, 0, len(page.Vertices))
	for _, v := range page.Vertices {
		if !matchesConditions(v, conditions) {
			continue
		}
		out = append(out, Project(v, opts.Properties, shape))
	}

	return Result{Vertices: out, Cursor: page.Cursor}, nil
}

// condition is a parsed "field op value" date filter, e.g.
// "dateModified>=2024-01-01".
type condition struct {
	field vertex.OrderField
	op    string
	value time.Time
}

var conditionOps = []string{">=", "<=", "!=", ">", "<", "="}

func parseConditions(raw []string) ([]condition, error) {
	out := make([]condition, 0, len(raw))
	for _, c := range raw {
		var field, op, rest string
		for _, candidate := range conditionOps {
			if idx := strings.Index(c, candidate); idx > 0 {
				field, op, rest = c[:idx], candidate, c[idx+len(candidate):]
				break
			}
		}
		if op == "" {
			return nil, aigerr.Validation(nil, "malformed condition %q", c)
		}
		fieldName := vertex.OrderField(field)
		if fieldName != vertex.OrderByDateCreated && fieldName != vertex.OrderByDateModified {
			return nil, aigerr.Validation(nil, "unsupported condition field %q", field)
		}
		t, err := dateparse.ParseAny(strings.TrimSpace(rest))
		if err != nil {
			return nil, aigerr.Validation(err, "unparseable condition value %q", rest)
		}
		out = append(out, condition{field: fieldName, op: op, value: t})
	}
	return out, nil
}

func matchesConditions(v vertex.Vertex, conds []condition) bool {
	for _, c := range conds {
		var field time.Time
		switch c.field {
		case vertex.OrderByDateModified:
			field = v.DateModified
		default:
			field = v.DateCreated
		}
		ok := false
		switch c.op {
		case ">":
			ok = field.After(c.value)
		case ">=":
			ok = field.After(c.value) || field.Equal(c.value)
		case "<":
			ok = field.Before(c.value)
		case "<=":
			ok = field.Before(c.value) || field.Equal(c.value)
		case "!=":
			ok = !field.Equal(c.value)
		default:
			ok = field.Equal(c.value)
		}
		if !ok {
			return false
		}
	}
	return true
}

// Project converts v into its output map, applying a top-level property
// projection (when non-empty) and shaping per the requested Shape. Exported
// so the REST get-by-id handler (which bypasses Run's list pagination) can
// reuse the same envelope/shape logic as list.
func Project(v vertex.Vertex, properties []string, shape Shape) map[string]interface{} {
	full := toPlainMap(v)
	if shape == ShapeJSONLD {
		full = toJSONLDMap(v)
	}

	if len(properties) == 0 {
		return full
	}

	out := make(map[string]interface{}, len(properties)+2)
	out["@context"] = full["@context"]
	out["type"] = full["type"]
	out["id"] = full["id"]
	for _, p := range properties {
		if val, ok := full[p]; ok {
			out[p] = val
		}
	}
	return out
}

func toPlainMap(v vertex.Vertex) map[string]interface{} {
	return map[string]interface{}{
		"@context":          []string{"aig", "common"},
		"type":              "AuditableItemGraphVertex",
		"id":                "aig:" + v.ID,
		"nodeIdentity":      v.NodeIdentity,
		"dateCreated":       v.DateCreated,
		"dateModified":      v.DateModified,
		"annotationObject":  v.AnnotationObject,
		"aliases":           v.Aliases,
		"resources":         v.Resources,
		"edges":             v.Edges,
	}
}

// toJSONLDMap expands the same content with a @type tag on every child
// element, derived from its kind name via strcase so the emitted tag
// matches the convention the rest of the AIG JSON-LD context uses
// (PascalCase type names).
func toJSONLDMap(v vertex.Vertex) map[string]interface{} {
	aliases := make([]map[string]interface{}, len(v.Aliases))
	for i, a := range v.Aliases {
		aliases[i] = map[string]interface{}{
			"@type":            childType("alias"),
			"id":               a.ID,
			"dateCreated":      a.DateCreated,
			"dateModified":     a.DateModified,
			"dateDeleted":      a.DateDeleted,
			"annotationObject": a.AnnotationObject,
			"aliasFormat":      a.AliasFormat,
		}
	}
	resources := make([]map[string]interface{}, len(v.Resources))
	for i, r := range v.Resources {
		resources[i] = map[string]interface{}{
			"@type":          childType("resource"),
			"id":             r.ID,
			"dateCreated":    r.DateCreated,
			"dateModified":   r.DateModified,
			"dateDeleted":    r.DateDeleted,
			"resourceObject": r.ResourceObject,
		}
	}
	edges := make([]map[string]interface{}, len(v.Edges))
	for i, e := range v.Edges {
		edges[i] = map[string]interface{}{
			"@type":            childType("edge"),
			"id":               e.ID,
			"dateCreated":      e.DateCreated,
			"dateModified":     e.DateModified,
			"dateDeleted":      e.DateDeleted,
			"edgeObject":       e.EdgeObject,
			"edgeRelationship": e.EdgeRelationship,
		}
	}

	return map[string]interface{}{
		"@context":         []string{"https://aig.example/context"},
		"type":             "AuditableItemGraphVertex",
		"id":               "aig:" + v.ID,
		"nodeIdentity":     v.NodeIdentity,
		"dateCreated":      v.DateCreated,
		"dateModified":     v.DateModified,
		"annotationObject": v.AnnotationObject,
		"aliases":          aliases,
		"resources":        resources,
		"edges":            edges,
	}
}

func childType(kind string) string {
	return strcase.ToCamel(kind)
}
