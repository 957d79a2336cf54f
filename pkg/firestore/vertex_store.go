// Copyright 2025 Certen Protocol
//
// Firestore-backed implementation of vertex.Store (C4), an alternate
// NoSQL backend alongside the Postgres implementation in pkg/database.
// Each vertex is one document in the "vertices" collection, keyed by
// its id; child-element arrays and the secondary indexes are stored as
// plain document fields rather than a nested JSONB blob, which is the
// idiomatic Firestore document shape.

package firestore

import (
	"context"
	"time"

	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/certen/aig/pkg/aigerr"
	"github.com/certen/aig/pkg/vertex"
)

const verticesCollection = "vertices"

// VertexStore persists vertex.Vertex documents in Firestore.
type VertexStore struct {
	client *Client
}

func NewVertexStore(client *Client) *VertexStore {
	return &VertexStore{client: client}
}

func (s *VertexStore) Put(ctx context.Context, v vertex.Vertex) error {
	if !s.client.IsEnabled() {
		return nil
	}
	_, err := s.client.Doc(verticesCollection + "/" + v.ID).Set(ctx, vertexDoc(v))
	if err != nil {
		return aigerr.StorageFailure(err, "put vertex %q", v.ID)
	}
	return nil
}

func (s *VertexStore) Get(ctx context.Context, id string) (vertex.Vertex, error) {
	if !s.client.IsEnabled() {
		return vertex.Vertex{}, aigerr.NotFound("vertex %q not found", id)
	}
	snap, err := s.client.Doc(verticesCollection + "/" + id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return vertex.Vertex{}, aigerr.NotFound("vertex %q not found", id)
	}
	if err != nil {
		return vertex.Vertex{}, aigerr.StorageFailure(err, "get vertex %q", id)
	}
	var doc vertexDocument
	if err := snap.DataTo(&doc); err != nil {
		return vertex.Vertex{}, aigerr.StorageFailure(err, "decode vertex %q", id)
	}
	return doc.toVertex(), nil
}

func (s *VertexStore) Query(ctx context.Context, criteria vertex.Criteria, order vertex.Order, cursor string, pageSize int) (vertex.Page, error) {
	if !s.client.IsEnabled() {
		return vertex.Page{}, nil
	}

	iter := s.client.Collection(verticesCollection).Documents(ctx)
	defer iter.Stop()

	var all []vertex.Vertex
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return vertex.Page{}, aigerr.StorageFailure(err, "query vertices")
		}
		var doc vertexDocument
		if err := snap.DataTo(&doc); err != nil {
			return vertex.Page{}, aigerr.StorageFailure(err, "decode vertex document %q", snap.Ref.ID)
		}
		all = append(all, doc.toVertex())
	}

	// Filtering and pagination reuse the in-memory path: Firestore's
	// query API cannot express the alias-index substring match this
	// store needs, so the full collection is loaded and narrowed here.
	return vertex.PaginateInMemory(all, criteria, order, cursor, pageSize)
}

// vertexDocument mirrors vertex.Vertex's fields under firestore tags.
// Kept as a distinct type so the domain model carries json tags only.
type vertexDocument struct {
	ID                string         `firestore:"id"`
	NodeIdentity      string         `firestore:"nodeIdentity"`
	DateCreated       time.Time      `firestore:"dateCreated"`
	DateModified      time.Time      `firestore:"dateModified"`
	AnnotationObject  interface{}    `firestore:"annotationObject,omitempty"`
	Aliases           []vertex.Alias `firestore:"aliases"`
	Resources         []vertex.Resource `firestore:"resources"`
	Edges             []vertex.Edge  `firestore:"edges"`
	AliasIndex        string         `firestore:"aliasIndex,omitempty"`
	ResourceTypeIndex string         `firestore:"resourceTypeIndex,omitempty"`
}

func vertexDoc(v vertex.Vertex) vertexDocument {
	return vertexDocument{
		ID:                v.ID,
		NodeIdentity:      v.NodeIdentity,
		DateCreated:       v.DateCreated,
		DateModified:      v.DateModified,
		AnnotationObject:  v.AnnotationObject,
		Aliases:           v.Aliases,
		Resources:         v.Resources,
		Edges:             v.Edges,
		AliasIndex:        v.AliasIndex,
		ResourceTypeIndex: v.ResourceTypeIndex,
	}
}

func (d vertexDocument) toVertex() vertex.Vertex {
	return vertex.Vertex{
		ID:                d.ID,
		NodeIdentity:      d.NodeIdentity,
		DateCreated:       d.DateCreated,
		DateModified:      d.DateModified,
		AnnotationObject:  d.AnnotationObject,
		Aliases:           d.Aliases,
		Resources:         d.Resources,
		Edges:             d.Edges,
		AliasIndex:        d.AliasIndex,
		ResourceTypeIndex: d.ResourceTypeIndex,
	}
}
