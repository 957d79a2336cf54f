// Copyright 2025 Certen Protocol

package proofsvc

import (
	"context"
	"testing"
	"time"
)

func TestCreateProofEventuallyVerifies(t *testing.T) {
	svc, err := NewLocalService(WithIssueDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("NewLocalService: %v", err)
	}
	ctx := context.Background()

	id, err := svc.CreateProof(ctx, "aig:deadbeef:changeset:cafebabe", []byte("hash"), "user-1")
	if err != nil {
		t.Fatalf("CreateProof: %v", err)
	}

	res, err := svc.Verify(ctx, id)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verified {
		t.Fatalf("expected notIssued immediately after create, got verified")
	}
	if res.Failure != FailureNotIssued {
		t.Fatalf("expected notIssued failure, got %q", res.Failure)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		res, err = svc.Verify(ctx, id)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if res.Verified {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !res.Verified {
		t.Fatalf("expected proof to become verified, got %+v", res)
	}
	if res.Receipt == nil {
		t.Fatal("expected a receipt once verified")
	}
	if err := res.Receipt.Validate(); err != nil {
		t.Fatalf("receipt should independently validate: %v", err)
	}
}

func TestVerifyUnknownProofMissing(t *testing.T) {
	svc, err := NewLocalService()
	if err != nil {
		t.Fatalf("NewLocalService: %v", err)
	}
	res, err := svc.Verify(context.Background(), "not-a-real-id")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verified || res.Failure != FailureProofMissing {
		t.Fatalf("expected proofMissing, got %+v", res)
	}
}

func TestRemoveYieldsProofMissing(t *testing.T) {
	svc, err := NewLocalService(WithIssueDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("NewLocalService: %v", err)
	}
	ctx := context.Background()

	id, err := svc.CreateProof(ctx, "aig:deadbeef:changeset:cafebabe", []byte("hash"), "user-1")
	if err != nil {
		t.Fatalf("CreateProof: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		res, _ := svc.Verify(ctx, id)
		if res.Verified {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := svc.Remove(ctx, id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	res, err := svc.Verify(ctx, id)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verified || res.Failure != FailureProofMissing {
		t.Fatalf("expected proofMissing after remove, got %+v", res)
	}
}
