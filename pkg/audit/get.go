// Copyright 2025 Certen Protocol
//
// Read path (4.6.3): load -> drop tombstones unless requested ->
// optionally attach changesets -> optionally verify -> project.

package audit

import (
	"context"

	"github.com/certen/aig/pkg/changeset"
	"github.com/certen/aig/pkg/proofsvc"
	"github.com/certen/aig/pkg/vertex"
)

// ChangesetView is a changeset annotated with its verification outcome,
// present only when the caller asked for verifyDepth != none.
type ChangesetView struct {
	changeset.Changeset
	Verified *bool             `json:"verified,omitempty"`
	Failure  proofsvc.Failure  `json:"failure,omitempty"`
}

// ProjectedVertex is C6.get's return shape: the vertex plus whatever
// optional changeset/verification data the caller requested.
type ProjectedVertex struct {
	Vertex     vertex.Vertex    `json:"vertex"`
	Changesets []ChangesetView  `json:"changesets,omitempty"`
	Verified   *bool            `json:"verified,omitempty"`
}

func (e *Engine) Get(ctx context.Context, id string, opts GetOptions) (ProjectedVertex, error) {
	defer e.track("get")()

	rawID, err := parseVertexURN(id)
	if err != nil {
		e.countError("get", err)
		return ProjectedVertex{}, err
	}

	v, err := e.vertices.Get(ctx, rawID)
	if err != nil {
		e.countError("get", err)
		return ProjectedVertex{}, err
	}

	if !opts.IncludeDeleted {
		v.Aliases = vertex.LiveAliases(v.Aliases)
		v.Resources = vertex.LiveResources(v.Resources)
		v.Edges = vertex.LiveEdges(v.Edges)
	}

	proj := ProjectedVertex{Vertex: v}

	if !opts.IncludeChangesets && opts.VerifyDepth == VerifyNone {
		return proj, nil
	}

	all, err := e.changesets.List(ctx, rawID, true)
	if err != nil {
		e.countError("get", err)
		return ProjectedVertex{}, err
	}

	views := make([]ChangesetView, len(all))
	for i, c := range all {
		views[i] = ChangesetView{Changeset: c}
	}

	if opts.VerifyDepth != VerifyNone {
		toVerify := views
		if opts.VerifyDepth == VerifyCurrent && len(views) > 0 {
			toVerify = views[len(views)-1:]
		}

		allVerified := true
		for i := range toVerify {
			res, verr := e.proofs.Verify(ctx, toVerify[i].ProofID)
			if verr != nil {
				e.logger.Warn("proof verification call failed", "changeset_id", toVerify[i].ID, "error", verr)
				continue
			}
			verified := res.Verified
			toVerify[i].Verified = &verified
			toVerify[i].Failure = res.Failure
			if !res.Verified {
				allVerified = false
			}
		}
		proj.Verified = &allVerified
	}

	if opts.IncludeChangesets {
		proj.Changesets = views
	}

	return proj, nil
}

// RemoveVerifiable implements 4.6.4: instructs the proof collaborator
// to remove every changeset's anchored proof data. Changeset records
// themselves are left intact; subsequent verification reports
// proofMissing.
func (e *Engine) RemoveVerifiable(ctx context.Context, id, nodeIdentity string) error {
	defer e.track("removeVerifiable")()

	rawID, err := parseVertexURN(id)
	if err != nil {
		e.countError("removeVerifiable", err)
		return err
	}

	if _, err := e.vertices.Get(ctx, rawID); err != nil {
		e.countError("removeVerifiable", err)
		return err
	}

	all, err := e.changesets.List(ctx, rawID, true)
	if err != nil {
		e.countError("removeVerifiable", err)
		return err
	}

	for _, c := range all {
		if c.ProofID == "" {
			continue
		}
		if err := e.proofs.Remove(ctx, c.ProofID); err != nil {
			e.logger.Warn("proof removal failed", "changeset_id", c.ID, "error", err)
		}
	}
	return nil
}
