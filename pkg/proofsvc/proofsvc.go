// Copyright 2025 Certen Protocol
//
// Proof collaborator adapter (C7). The core treats proof issuance as an
// external collaborator: createProof allocates an id synchronously and
// returns immediately, while the actual anchoring happens on a
// background goroutine and is only visible later through verify.
// Grounded on the teacher's async batch-anchor submission pattern
// (pkg/batch/consensus_coordinator.go) and its Merkle receipt/tree
// implementation (pkg/merkle), generalized from blockchain-anchor
// submission to a local, self-contained proof store suitable for a
// standalone AIG deployment.

package proofsvc

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/certen/aig/pkg/merkle"
)

// Failure enumerates the non-fatal verification outcomes.
type Failure string

const (
	FailureNone             Failure = ""
	FailureNotIssued        Failure = "notIssued"
	FailureProofMissing     Failure = "proofMissing"
	FailureHashMismatch     Failure = "hashMismatch"
	FailureSignatureInvalid Failure = "signatureInvalid"
	FailureReceiptInvalid   Failure = "receiptInvalid"
	FailureRevoked          Failure = "revoked"
)

// VerifyResult is C7's verify() response. Receipt is the portable
// inclusion proof backing the verification, present once issuance
// completes; a caller can re-verify it independently via Receipt.Validate.
type VerifyResult struct {
	Verified bool
	Failure  Failure
	Receipt  *merkle.Receipt
}

// Service is the C7 collaborator interface the audit engine depends on.
type Service interface {
	CreateProof(ctx context.Context, proofObjectID string, proofObjectHash []byte, userIdentity string) (string, error)
	Verify(ctx context.Context, proofID string) (VerifyResult, error)
	Remove(ctx context.Context, proofID string) error
}

// record is the proof-service-owned state backing one proofId.
type record struct {
	proofObjectID   string
	proofObjectHash []byte
	userIdentity    string
	issuedAt        time.Time
	signature       []byte
	removed         bool
	issued          bool
	root            []byte
	receipt         *merkle.Receipt
}

// LocalService is a self-contained Service implementation: it issues
// Ed25519 signatures over a Merkle leaf derived from the proof object
// hash and anchors them asynchronously, simulating the latency of a
// real external anchoring network.
type LocalService struct {
	mu      sync.RWMutex
	records map[string]*record
	signer  ed25519.PrivateKey
	logger  hclog.Logger

	// issueDelay is how long CreateProof's background goroutine waits
	// before marking a proof issued, simulating asynchronous anchoring.
	issueDelay time.Duration
}

// Option configures a LocalService.
type Option func(*LocalService)

// WithIssueDelay overrides the default asynchronous-issuance latency.
func WithIssueDelay(d time.Duration) Option {
	return func(s *LocalService) { s.issueDelay = d }
}

// WithLogger attaches a logger; defaults to a discarding logger.
func WithLogger(l hclog.Logger) Option {
	return func(s *LocalService) { s.logger = l }
}

// NewLocalService creates a Service with a fresh signing key.
func NewLocalService(opts ...Option) (*LocalService, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	s := &LocalService{
		records:    make(map[string]*record),
		signer:     priv,
		logger:     hclog.NewNullLogger(),
		issueDelay: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *LocalService) CreateProof(ctx context.Context, proofObjectID string, proofObjectHash []byte, userIdentity string) (string, error) {
	id, err := randomHex32()
	if err != nil {
		return "", err
	}

	rec := &record{
		proofObjectID:   proofObjectID,
		proofObjectHash: append([]byte(nil), proofObjectHash...),
		userIdentity:    userIdentity,
	}

	s.mu.Lock()
	s.records[id] = rec
	s.mu.Unlock()

	go s.issueAsync(id, rec)

	return id, nil
}

// issueAsync anchors rec into a single-leaf Merkle tree and signs the
// root, simulating the latency of a real proof-anchoring network. A
// capped exponential backoff guards the simulated anchor step, mirroring
// how a real collaborator would retry a flaky upstream anchor call.
func (s *LocalService) issueAsync(id string, rec *record) {
	time.Sleep(s.issueDelay)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.issueDelay
	b.MaxElapsedTime = 5 * s.issueDelay

	err := backoff.Retry(func() error {
		return s.anchor(id, rec)
	}, b)
	if err != nil {
		s.logger.Warn("proof anchoring failed", "proof_id", id, "error", err)
	}
}

func (s *LocalService) anchor(id string, rec *record) error {
	leaf := merkle.HashData(rec.proofObjectHash)
	tree, err := merkle.BuildTree([][]byte{leaf})
	if err != nil {
		return err
	}
	root := tree.Root()
	sig := ed25519.Sign(s.signer, root)

	proof, err := tree.GenerateProof(0)
	if err != nil {
		return err
	}
	receipt := merkle.ReceiptFromInclusionProof(proof)

	s.mu.Lock()
	rec.issuedAt = time.Now()
	rec.signature = sig
	rec.root = root
	rec.receipt = receipt
	rec.issued = true
	s.mu.Unlock()
	return nil
}

func (s *LocalService) Verify(ctx context.Context, proofID string) (VerifyResult, error) {
	s.mu.RLock()
	rec, ok := s.records[proofID]
	s.mu.RUnlock()

	if !ok {
		return VerifyResult{Verified: false, Failure: FailureProofMissing}, nil
	}

	s.mu.RLock()
	removed := rec.removed
	issued := rec.issued
	sig := rec.signature
	root := rec.root
	receipt := rec.receipt
	s.mu.RUnlock()

	if removed {
		return VerifyResult{Verified: false, Failure: FailureProofMissing}, nil
	}
	if !issued {
		return VerifyResult{Verified: false, Failure: FailureNotIssued}, nil
	}

	pub := s.signer.Public().(ed25519.PublicKey)
	if !ed25519.Verify(pub, root, sig) {
		return VerifyResult{Verified: false, Failure: FailureSignatureInvalid}, nil
	}

	if err := receipt.Validate(); err != nil {
		s.logger.Warn("proof receipt failed recomputation", "proof_id", proofID, "error", err)
		return VerifyResult{Verified: false, Failure: FailureReceiptInvalid}, nil
	}

	return VerifyResult{Verified: true, Receipt: receipt}, nil
}

func (s *LocalService) Remove(ctx context.Context, proofID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[proofID]
	if !ok {
		return nil
	}
	rec.removed = true
	return nil
}

func randomHex32() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
