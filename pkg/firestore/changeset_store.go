// Copyright 2025 Certen Protocol
//
// Firestore-backed implementation of changeset.Store (C5), storing
// each changeset as a document in the "changesets" collection keyed by
// its own id, with vertexId as a plain field so List can filter on it.

package firestore

import (
	"context"
	"sort"
	"time"

	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/certen/aig/pkg/aigerr"
	"github.com/certen/aig/pkg/changeset"
	"github.com/certen/aig/pkg/jsonpatch"
)

const changesetsCollection = "changesets"

// ChangesetStore persists changeset.Changeset documents in Firestore.
type ChangesetStore struct {
	client *Client
}

func NewChangesetStore(client *Client) *ChangesetStore {
	return &ChangesetStore{client: client}
}

func (s *ChangesetStore) Insert(ctx context.Context, c changeset.Changeset) error {
	if !s.client.IsEnabled() {
		return nil
	}
	_, err := s.client.Doc(changesetsCollection + "/" + c.ID).Set(ctx, changesetDoc(c))
	if err != nil {
		return aigerr.StorageFailure(err, "insert changeset %q", c.ID)
	}
	return nil
}

func (s *ChangesetStore) List(ctx context.Context, vertexID string, ascending bool) ([]changeset.Changeset, error) {
	if !s.client.IsEnabled() {
		return nil, nil
	}

	iter := s.client.Collection(changesetsCollection).Where("vertexId", "==", vertexID).Documents(ctx)
	defer iter.Stop()

	var out []changeset.Changeset
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, aigerr.StorageFailure(err, "list changesets for vertex %q", vertexID)
		}
		var doc changesetDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, aigerr.StorageFailure(err, "decode changeset document %q", snap.Ref.ID)
		}
		out = append(out, doc.toChangeset())
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DateCreated.Equal(out[j].DateCreated) {
			if ascending {
				return out[i].ID < out[j].ID
			}
			return out[i].ID > out[j].ID
		}
		if ascending {
			return out[i].DateCreated.Before(out[j].DateCreated)
		}
		return out[i].DateCreated.After(out[j].DateCreated)
	})
	return out, nil
}

func (s *ChangesetStore) GetByID(ctx context.Context, id string) (changeset.Changeset, error) {
	if !s.client.IsEnabled() {
		return changeset.Changeset{}, aigerr.NotFound("changeset %q not found", id)
	}
	snap, err := s.client.Doc(changesetsCollection + "/" + id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return changeset.Changeset{}, aigerr.NotFound("changeset %q not found", id)
	}
	if err != nil {
		return changeset.Changeset{}, aigerr.StorageFailure(err, "get changeset %q", id)
	}
	var doc changesetDocument
	if err := snap.DataTo(&doc); err != nil {
		return changeset.Changeset{}, aigerr.StorageFailure(err, "decode changeset %q", id)
	}
	return doc.toChangeset(), nil
}

// changesetDocument mirrors changeset.Changeset under firestore tags.
type changesetDocument struct {
	ID           string         `firestore:"id"`
	VertexID     string         `firestore:"vertexId"`
	DateCreated  time.Time      `firestore:"dateCreated"`
	UserIdentity string         `firestore:"userIdentity"`
	Patches      []jsonpatch.Op `firestore:"patches"`
	ProofID      string         `firestore:"proofId,omitempty"`
}

func changesetDoc(c changeset.Changeset) changesetDocument {
	return changesetDocument{
		ID:           c.ID,
		VertexID:     c.VertexID,
		DateCreated:  c.DateCreated,
		UserIdentity: c.UserIdentity,
		Patches:      c.Patches,
		ProofID:      c.ProofID,
	}
}

func (d changesetDocument) toChangeset() changeset.Changeset {
	return changeset.Changeset{
		ID:           d.ID,
		VertexID:     d.VertexID,
		DateCreated:  d.DateCreated,
		UserIdentity: d.UserIdentity,
		Patches:      d.Patches,
		ProofID:      d.ProofID,
	}
}
