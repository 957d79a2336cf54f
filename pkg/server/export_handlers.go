// Copyright 2025 Certen Protocol
//
// Bulk export of a vertex's changesets (supplemented feature, SPEC_FULL
// §12), grounded on the teacher's pkg/server/bulk_handlers.go export-job
// pattern (uuid job id, async processing goroutine, poll-then-download),
// repurposed from proof-artifact export onto changeset export.

package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/certen/aig/pkg/changeset"
)

// ExportFormat selects the download encoding.
type ExportFormat string

const (
	ExportFormatNDJSON   ExportFormat = "ndjson"
	ExportFormatCSVGzip  ExportFormat = "csv_gzip"
)

type exportJob struct {
	ID          uuid.UUID    `json:"id"`
	VertexID    string       `json:"vertexId"`
	Format      ExportFormat `json:"format"`
	Status      string       `json:"status"` // pending, processing, completed, failed
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`

	data []byte
}

type exportRegistry struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*exportJob
}

func newExportRegistry() *exportRegistry {
	return &exportRegistry{jobs: make(map[uuid.UUID]*exportJob)}
}

type exportRequest struct {
	VertexID string       `json:"vertexId"`
	Format   ExportFormat `json:"format"`
}

// handleExportCreate implements POST /<base>/export.
func (s *Server) handleExportCreate(c echo.Context) error {
	var req exportRequest
	if err := c.Bind(&req); err != nil || req.VertexID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("vertexId is required"))
	}
	if req.Format == "" {
		req.Format = ExportFormatNDJSON
	}

	job := &exportJob{
		ID:        uuid.New(),
		VertexID:  req.VertexID,
		Format:    req.Format,
		Status:    "pending",
		CreatedAt: time.Now(),
	}
	s.exports.mu.Lock()
	s.exports.jobs[job.ID] = job
	s.exports.mu.Unlock()

	go s.runExportJob(job)

	return c.JSON(http.StatusAccepted, job)
}

func (s *Server) runExportJob(job *exportJob) {
	s.exports.mu.Lock()
	job.Status = "processing"
	s.exports.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	all, err := s.changesets.List(ctx, job.VertexID, true)
	if err != nil {
		s.exports.mu.Lock()
		job.Status = "failed"
		job.Error = err.Error()
		s.exports.mu.Unlock()
		return
	}

	data, err := encodeExport(all, job.Format)
	if err != nil {
		s.exports.mu.Lock()
		job.Status = "failed"
		job.Error = err.Error()
		s.exports.mu.Unlock()
		return
	}

	now := time.Now()
	s.exports.mu.Lock()
	job.data = data
	job.Status = "completed"
	job.CompletedAt = &now
	s.exports.mu.Unlock()
}

func encodeExport(rows []changeset.Changeset, format ExportFormat) ([]byte, error) {
	if format == ExportFormatCSVGzip {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		w := csv.NewWriter(gz)
		if err := w.Write([]string{"id", "vertexId", "dateCreated", "userIdentity", "proofId", "patchCount"}); err != nil {
			return nil, err
		}
		for _, c := range rows {
			if err := w.Write([]string{
				c.ID, c.VertexID, c.DateCreated.UTC().Format(time.RFC3339Nano),
				c.UserIdentity, c.ProofID, fmt.Sprintf("%d", len(c.Patches)),
			}); err != nil {
				return nil, err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		if err := gz.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, c := range rows {
		if err := enc.Encode(c); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// handleExportStatus implements GET /<base>/export/:jobId.
func (s *Server) handleExportStatus(c echo.Context) error {
	job, ok := s.lookupExportJob(c.Param("jobId"))
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody("export job not found"))
	}
	return c.JSON(http.StatusOK, job)
}

// handleExportDownload implements GET /<base>/export/:jobId/download.
func (s *Server) handleExportDownload(c echo.Context) error {
	job, ok := s.lookupExportJob(c.Param("jobId"))
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody("export job not found"))
	}
	if job.Status != "completed" {
		return c.JSON(http.StatusConflict, errorBody("export job not completed"))
	}

	contentType := "application/x-ndjson"
	if job.Format == ExportFormatCSVGzip {
		contentType = "application/gzip"
	}
	return c.Blob(http.StatusOK, contentType, job.data)
}

func (s *Server) lookupExportJob(raw string) (*exportJob, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	s.exports.mu.RLock()
	defer s.exports.mu.RUnlock()
	job, ok := s.exports.jobs[id]
	return job, ok
}
