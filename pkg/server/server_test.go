// Copyright 2025 Certen Protocol
//
// HTTP-level tests for the REST surface, exercised without a database
// the way the teacher's proof_handlers_test.go drives handlers directly
// through httptest rather than a live listener.

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/certen/aig/pkg/audit"
	"github.com/certen/aig/pkg/changeset"
	"github.com/certen/aig/pkg/proofsvc"
	"github.com/certen/aig/pkg/vertex"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	vertices := vertex.NewMemoryStore()
	changesets := changeset.NewMemoryStore()
	proofs, err := proofsvc.NewLocalService()
	require.NoError(t, err)

	engine := audit.New(vertices, changesets, proofs)
	return New(engine, vertices, changesets, DefaultConfig(), nil, hclog.NewNullLogger())
}

func TestHandleHealthReturnsOK(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.echo.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateRequiresIdentityHeaders(t *testing.T) {
	srv := newTestServer(t)
	body := strings.NewReader(`{"aliases":[{"id":"alias-1"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/vertices", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.echo.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateThenGetRoundTrips(t *testing.T) {
	srv := newTestServer(t)

	createBody := strings.NewReader(`{"aliases":[{"id":"alias-1"}]}`)
	createReq := httptest.NewRequest(http.MethodPost, "/vertices", createBody)
	createReq.Header.Set("Content-Type", "application/json")
	createReq.Header.Set("X-User-Identity", "user-1")
	createReq.Header.Set("X-Node-Identity", "node-1")
	createRR := httptest.NewRecorder()
	srv.echo.ServeHTTP(createRR, createReq)
	require.Equal(t, http.StatusCreated, createRR.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(createRR.Body.Bytes(), &created))
	id := created["id"]
	require.NotEmpty(t, id)

	getReq := httptest.NewRequest(http.MethodGet, "/vertices/"+id, nil)
	getRR := httptest.NewRecorder()
	srv.echo.ServeHTTP(getRR, getReq)
	require.Equal(t, http.StatusOK, getRR.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(getRR.Body.Bytes(), &got))
	require.Equal(t, id, got["id"])
}

func TestGetMissingVertexReturnsNotFound(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/vertices/aig:does-not-exist", nil)
	rr := httptest.NewRecorder()
	srv.echo.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStatsReportsHealthy(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rr := httptest.NewRecorder()
	srv.echo.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var stats systemStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	require.Equal(t, "healthy", stats.Status)
}
