// Copyright 2025 Certen Protocol
//
// Audit engine (C6): orchestrates the mutation path (reconcile -> diff
// -> changeset -> proof submission -> event) and the read path (load ->
// optional verify -> project). Grounded on the teacher's
// repository_unified.go orchestration of store+chain+event concerns,
// generalized over three injected collaborator interfaces
// (vertex.Store, changeset.Store, proofsvc.Service) plus an optional
// events.Bus, exactly as the teacher wires its repositories and
// consensus coordinator through constructor injection rather than a
// global factory.

package audit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/certen/aig/pkg/aigerr"
	"github.com/certen/aig/pkg/canonical"
	"github.com/certen/aig/pkg/changeset"
	"github.com/certen/aig/pkg/events"
	"github.com/certen/aig/pkg/jsonpatch"
	"github.com/certen/aig/pkg/proofsvc"
	"github.com/certen/aig/pkg/reconcile"
	"github.com/certen/aig/pkg/vertex"
)

// Engine is the audit engine (C6). It holds no in-memory state that
// outlives a single operation other than its per-vertex write locks.
type Engine struct {
	vertices   vertex.Store
	changesets changeset.Store
	proofs     proofsvc.Service
	bus        events.Bus
	logger     hclog.Logger
	metrics    *Metrics
	locks      *vertexLocks
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithBus(b events.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

func WithLogger(l hclog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// withClock overrides the wall clock; used by tests needing
// deterministic timestamps.
func withClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New constructs an Engine over its required collaborators.
func New(vertices vertex.Store, changesets changeset.Store, proofs proofsvc.Service, opts ...Option) *Engine {
	e := &Engine{
		vertices:   vertices,
		changesets: changesets,
		proofs:     proofs,
		logger:     hclog.NewNullLogger(),
		locks:      newVertexLocks(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create implements 4.6.1: a fresh vertex with reconciled children, a
// changeset recording its initial patch list (against an empty prior),
// and an asynchronously-issued proof.
func (e *Engine) Create(ctx context.Context, desired DesiredVertex, userIdentity, nodeIdentity string) (string, error) {
	defer e.track("create")()

	id, err := randomHex32()
	if err != nil {
		return "", aigerr.StorageFailure(err, "generate vertex id")
	}
	e.locks.lock(id)
	defer e.locks.unlock(id)

	now := e.now().UTC().Round(time.Millisecond)
	prior := vertex.Vertex{ID: id, NodeIdentity: nodeIdentity, DateCreated: now, DateModified: now}

	if err := validateDesired(desired); err != nil {
		return "", err
	}

	next := e.reconcileInto(prior, desired, now)

	if err := e.writeChangeset(ctx, prior, next, userIdentity); err != nil {
		e.countError("create", err)
		return "", err
	}

	if e.bus != nil {
		e.bus.PublishVertexCreated(events.VertexCreated{ID: urn(id)})
	}

	return urn(id), nil
}

// Update implements 4.6.2: loads the existing vertex, reconciles
// against desired, and records a changeset (possibly empty). dateModified
// only advances when the patch list is non-empty.
func (e *Engine) Update(ctx context.Context, id string, desired DesiredVertex, userIdentity, nodeIdentity string) error {
	defer e.track("update")()

	rawID, err := parseVertexURN(id)
	if err != nil {
		e.countError("update", err)
		return err
	}

	e.locks.lock(rawID)
	defer e.locks.unlock(rawID)

	prior, err := e.vertices.Get(ctx, rawID)
	if err != nil {
		e.countError("update", err)
		return err
	}

	if err := validateDesired(desired); err != nil {
		return err
	}

	now := e.now().UTC().Round(time.Millisecond)
	next := e.reconcileInto(prior, desired, now)

	if err := e.writeChangeset(ctx, prior, next, userIdentity); err != nil {
		e.countError("update", err)
		return err
	}

	return nil
}

// reconcileInto merges desired's children into prior's arrays and
// refreshes the secondary indexes, returning the candidate next state.
// dateModified is set to now unconditionally here; writeChangeset rolls
// it back to prior's value when the resulting patch list is empty, per
// 4.6.2.
func (e *Engine) reconcileInto(prior vertex.Vertex, desired DesiredVertex, now time.Time) vertex.Vertex {
	next := prior
	next.AnnotationObject = desired.AnnotationObject
	next.Aliases = reconcile.Reconcile(prior.Aliases, desired.Aliases, now)
	next.Resources = reconcile.Reconcile(prior.Resources, desired.Resources, now)
	next.Edges = reconcile.Reconcile(prior.Edges, desired.Edges, now)
	next.AliasIndex = vertex.BuildAliasIndex(next.Aliases)
	next.ResourceTypeIndex = vertex.BuildResourceTypeIndex(next.Resources)
	next.DateModified = now
	return next
}

// writeChangeset diffs prior against next (excluding bookkeeping
// fields), persists next, records the changeset, and submits it for
// proof issuance. On a changeset-insert failure after the vertex put
// has already succeeded, it surfaces partial-write: the vertex is left
// as-is and the caller's recovery path is to re-issue the same desired
// state.
func (e *Engine) writeChangeset(ctx context.Context, prior, next vertex.Vertex, userIdentity string) error {
	patches, err := diffContent(prior, next)
	if err != nil {
		return aigerr.Validation(err, "diff vertex %q", next.ID)
	}

	if len(patches) == 0 {
		next.DateModified = prior.DateModified
	}

	if err := e.vertices.Put(ctx, next); err != nil {
		return aigerr.StorageFailure(err, "put vertex %q", next.ID)
	}

	changesetID, err := randomHex32()
	if err != nil {
		return aigerr.PartialWrite(err, "generate changeset id for vertex %q", next.ID)
	}

	proofObjectID := "aig:" + next.ID + ":changeset:" + changesetID
	envelope := map[string]interface{}{
		"@context":     []string{"https://aig.example/context"},
		"patches":      patches,
		"userIdentity": userIdentity,
	}
	envelopeValue, err := canonical.Parse(mustMarshal(envelope))
	if err != nil {
		return aigerr.PartialWrite(err, "parse proof envelope for vertex %q", next.ID)
	}
	hash, err := canonical.Hash(envelopeValue)
	if err != nil {
		return aigerr.PartialWrite(err, "compute proof hash for vertex %q", next.ID)
	}

	proofID, err := e.proofs.CreateProof(ctx, proofObjectID, hash[:], userIdentity)
	if err != nil {
		e.logger.Warn("proof submission failed", "vertex_id", next.ID, "error", err)
		proofID = ""
	} else if e.metrics != nil {
		e.metrics.ProofSubmissions.Inc()
	}

	cs := changeset.Changeset{
		ID:           changesetID,
		VertexID:     next.ID,
		DateCreated:  e.now().UTC().Round(time.Millisecond),
		UserIdentity: userIdentity,
		Patches:      patches,
		ProofID:      proofID,
	}
	if err := e.changesets.Insert(ctx, cs); err != nil {
		return aigerr.PartialWrite(err, "insert changeset for vertex %q", next.ID)
	}

	if e.bus != nil && len(patches) > 0 {
		e.bus.PublishVertexUpdated(events.VertexUpdated{ID: urn(next.ID), Patches: patchesToInterfaces(patches)})
	}

	return nil
}

// diffContent computes patches between prior and next, excluding the
// bookkeeping fields the caller never supplies directly.
func diffContent(prior, next vertex.Vertex) ([]jsonpatch.Op, error) {
	// Absent, nil and empty fields are all left out, so a nil slice and
	// an empty one diff as equal.
	strip := func(v vertex.Vertex) map[string]interface{} {
		m := map[string]interface{}{}
		if v.AnnotationObject != nil {
			m["annotationObject"] = v.AnnotationObject
		}
		if len(v.Aliases) > 0 {
			m["aliases"] = v.Aliases
		}
		if len(v.Resources) > 0 {
			m["resources"] = v.Resources
		}
		if len(v.Edges) > 0 {
			m["edges"] = v.Edges
		}
		return m
	}
	p, err := canonical.Parse(mustMarshal(strip(prior)))
	if err != nil {
		return nil, err
	}
	n, err := canonical.Parse(mustMarshal(strip(next)))
	if err != nil {
		return nil, err
	}
	ops, err := jsonpatch.Diff(p, n)
	if err != nil {
		return nil, err
	}
	return ops, nil
}

func patchesToInterfaces(ops []jsonpatch.Op) []interface{} {
	out := make([]interface{}, len(ops))
	for i, op := range ops {
		out[i] = op
	}
	return out
}

// validateDesired enforces spec §3's child-element shape invariants
// (non-empty caller-supplied id, required edge relationship) with
// ozzo-validation's struct rules, then layers the cross-element
// uniqueness check on top, aggregating every violation found across all
// three arrays with go-multierror rather than failing on the first.
func validateDesired(d DesiredVertex) error {
	var merr *multierror.Error
	for i, a := range d.Aliases {
		if err := validation.ValidateStruct(&a,
			validation.Field(&a.ID, validation.Required),
		); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("aliases[%d]: %w", i, err))
		}
	}
	for i, r := range d.Resources {
		if err := validation.ValidateStruct(&r,
			validation.Field(&r.ID, validation.Required),
		); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("resources[%d]: %w", i, err))
		}
	}
	for i, e := range d.Edges {
		if err := validation.ValidateStruct(&e,
			validation.Field(&e.ID, validation.Required),
			validation.Field(&e.EdgeRelationship, validation.Required),
		); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("edges[%d]: %w", i, err))
		}
	}
	merr = multierror.Append(merr, uniqueIDs("aliases", aliasIDs(d.Aliases)))
	merr = multierror.Append(merr, uniqueIDs("resources", resourceIDs(d.Resources)))
	merr = multierror.Append(merr, uniqueIDs("edges", edgeIDs(d.Edges)))
	if err := merr.ErrorOrNil(); err != nil {
		return aigerr.Validation(err, "invalid desired vertex state")
	}
	return nil
}

func aliasIDs(a []vertex.Alias) []string {
	out := make([]string, len(a))
	for i, e := range a {
		out[i] = e.ID
	}
	return out
}

func resourceIDs(r []vertex.Resource) []string {
	out := make([]string, len(r))
	for i, e := range r {
		out[i] = e.ID
	}
	return out
}

func edgeIDs(e []vertex.Edge) []string {
	out := make([]string, len(e))
	for i, el := range e {
		out[i] = el.ID
	}
	return out
}

func uniqueIDs(field string, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if seen[id] {
			return aigerr.Validation(nil, "duplicate live %s id %q", field, id)
		}
		seen[id] = true
	}
	return nil
}

func randomHex32() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func urn(id string) string { return "aig:" + id }

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
