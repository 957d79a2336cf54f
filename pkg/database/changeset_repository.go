// Copyright 2025 Certen Protocol
//
// Postgres-backed implementation of changeset.Store (C5).

package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/certen/aig/pkg/aigerr"
	"github.com/certen/aig/pkg/changeset"
)

// ChangesetRepository persists changeset.Changeset rows in the
// changesets table.
type ChangesetRepository struct {
	db *sql.DB
}

func NewChangesetRepository(db *sql.DB) *ChangesetRepository {
	return &ChangesetRepository{db: db}
}

func (r *ChangesetRepository) Insert(ctx context.Context, c changeset.Changeset) error {
	patches, err := json.Marshal(c.Patches)
	if err != nil {
		return aigerr.StorageFailure(err, "marshal patches for changeset %q", c.ID)
	}

	const q = `
		INSERT INTO changesets (id, vertex_id, date_created, user_identity, patches, proof_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, q, c.ID, c.VertexID, c.DateCreated, c.UserIdentity, patches, c.ProofID)
	if err != nil {
		return aigerr.StorageFailure(err, "insert changeset %q", c.ID)
	}
	return nil
}

func (r *ChangesetRepository) List(ctx context.Context, vertexID string, ascending bool) ([]changeset.Changeset, error) {
	direction := "ASC"
	if !ascending {
		direction = "DESC"
	}
	q := `
		SELECT id, vertex_id, date_created, user_identity, patches, proof_id
		FROM changesets
		WHERE vertex_id = $1
		ORDER BY date_created ` + direction + `, id ` + direction

	rows, err := r.db.QueryContext(ctx, q, vertexID)
	if err != nil {
		return nil, aigerr.StorageFailure(err, "list changesets for vertex %q", vertexID)
	}
	defer rows.Close()

	var out []changeset.Changeset
	for rows.Next() {
		c, err := scanChangeset(rows)
		if err != nil {
			return nil, aigerr.StorageFailure(err, "scan changeset row")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, aigerr.StorageFailure(err, "iterate changeset rows")
	}
	return out, nil
}

func (r *ChangesetRepository) GetByID(ctx context.Context, id string) (changeset.Changeset, error) {
	const q = `
		SELECT id, vertex_id, date_created, user_identity, patches, proof_id
		FROM changesets WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	c, err := scanChangeset(row)
	if err == sql.ErrNoRows {
		return changeset.Changeset{}, aigerr.NotFound("changeset %q not found", id)
	}
	if err != nil {
		return changeset.Changeset{}, aigerr.StorageFailure(err, "get changeset %q", id)
	}
	return c, nil
}

func scanChangeset(row rowScanner) (changeset.Changeset, error) {
	var (
		c       changeset.Changeset
		patches []byte
	)
	if err := row.Scan(&c.ID, &c.VertexID, &c.DateCreated, &c.UserIdentity, &patches, &c.ProofID); err != nil {
		return changeset.Changeset{}, err
	}
	if len(patches) > 0 {
		if err := json.Unmarshal(patches, &c.Patches); err != nil {
			return changeset.Changeset{}, err
		}
	}
	return c, nil
}
