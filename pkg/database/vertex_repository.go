// Copyright 2025 Certen Protocol
//
// Postgres-backed implementation of vertex.Store (C4), persisting each
// vertex's child-element arrays as JSONB alongside the secondary text
// indexes (alias/resource-type) that the caller computed on the vertex.

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/certen/aig/pkg/aigerr"
	"github.com/certen/aig/pkg/vertex"
)

// VertexRepository persists vertex.Vertex rows in the vertices table.
type VertexRepository struct {
	db *sql.DB
}

func NewVertexRepository(db *sql.DB) *VertexRepository {
	return &VertexRepository{db: db}
}

func (r *VertexRepository) Put(ctx context.Context, v vertex.Vertex) error {
	aliases, err := json.Marshal(v.Aliases)
	if err != nil {
		return aigerr.StorageFailure(err, "marshal aliases for vertex %q", v.ID)
	}
	resources, err := json.Marshal(v.Resources)
	if err != nil {
		return aigerr.StorageFailure(err, "marshal resources for vertex %q", v.ID)
	}
	edges, err := json.Marshal(v.Edges)
	if err != nil {
		return aigerr.StorageFailure(err, "marshal edges for vertex %q", v.ID)
	}
	annotation, err := json.Marshal(v.AnnotationObject)
	if err != nil {
		return aigerr.StorageFailure(err, "marshal annotation for vertex %q", v.ID)
	}

	const q = `
		INSERT INTO vertices (
			id, node_identity, date_created, date_modified, annotation_object,
			aliases, resources, edges, alias_index, resource_type_index
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			node_identity = EXCLUDED.node_identity,
			date_modified = EXCLUDED.date_modified,
			annotation_object = EXCLUDED.annotation_object,
			aliases = EXCLUDED.aliases,
			resources = EXCLUDED.resources,
			edges = EXCLUDED.edges,
			alias_index = EXCLUDED.alias_index,
			resource_type_index = EXCLUDED.resource_type_index
	`
	_, err = r.db.ExecContext(ctx, q,
		v.ID, v.NodeIdentity, v.DateCreated, v.DateModified, annotation,
		aliases, resources, edges, v.AliasIndex, v.ResourceTypeIndex,
	)
	if err != nil {
		return aigerr.StorageFailure(err, "put vertex %q", v.ID)
	}
	return nil
}

func (r *VertexRepository) Get(ctx context.Context, id string) (vertex.Vertex, error) {
	const q = `
		SELECT id, node_identity, date_created, date_modified, annotation_object,
		       aliases, resources, edges, alias_index, resource_type_index
		FROM vertices WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	v, err := scanVertex(row)
	if err == sql.ErrNoRows {
		return vertex.Vertex{}, aigerr.NotFound("vertex %q not found", id)
	}
	if err != nil {
		return vertex.Vertex{}, aigerr.StorageFailure(err, "get vertex %q", id)
	}
	return v, nil
}

func (r *VertexRepository) Query(ctx context.Context, criteria vertex.Criteria, order vertex.Order, cursor string, pageSize int) (vertex.Page, error) {
	orderCol := "date_created"
	if order.Field == vertex.OrderByDateModified {
		orderCol = "date_modified"
	}
	direction := "ASC"
	if !order.Ascending {
		direction = "DESC"
	}

	q := fmt.Sprintf(`
		SELECT id, node_identity, date_created, date_modified, annotation_object,
		       aliases, resources, edges, alias_index, resource_type_index
		FROM vertices
		ORDER BY %s %s, id ASC
	`, orderCol, direction)

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return vertex.Page{}, aigerr.StorageFailure(err, "query vertices")
	}
	defer rows.Close()

	var all []vertex.Vertex
	for rows.Next() {
		v, err := scanVertex(rows)
		if err != nil {
			return vertex.Page{}, aigerr.StorageFailure(err, "scan vertex row")
		}
		all = append(all, v)
	}
	if err := rows.Err(); err != nil {
		return vertex.Page{}, aigerr.StorageFailure(err, "iterate vertex rows")
	}

	return vertex.PaginateInMemory(all, criteria, order, cursor, pageSize)
}

// rowScanner abstracts over *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVertex(row rowScanner) (vertex.Vertex, error) {
	var (
		v                   vertex.Vertex
		annotation          []byte
		aliases             []byte
		resources           []byte
		edges               []byte
	)
	if err := row.Scan(
		&v.ID, &v.NodeIdentity, &v.DateCreated, &v.DateModified, &annotation,
		&aliases, &resources, &edges, &v.AliasIndex, &v.ResourceTypeIndex,
	); err != nil {
		return vertex.Vertex{}, err
	}
	if len(annotation) > 0 {
		if err := json.Unmarshal(annotation, &v.AnnotationObject); err != nil {
			return vertex.Vertex{}, err
		}
	}
	if err := json.Unmarshal(aliases, &v.Aliases); err != nil {
		return vertex.Vertex{}, err
	}
	if err := json.Unmarshal(resources, &v.Resources); err != nil {
		return vertex.Vertex{}, err
	}
	if err := json.Unmarshal(edges, &v.Edges); err != nil {
		return vertex.Vertex{}, err
	}
	return v, nil
}
