// Copyright 2025 Certen Protocol
//
// Proof-health / system statistics endpoint, grounded on the teacher's
// HandleGetSystemHealth (GET /api/v1/stats/system) in
// pkg/server/bulk_handlers.go: overall status derived from storage
// reachability plus a load signal, per-service status breakdown.

package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/certen/aig/pkg/vertex"
)

type serviceStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type systemStats struct {
	Status        string                   `json:"status"`
	StorageStatus string                   `json:"storageStatus"`
	Services      map[string]serviceStatus `json:"services"`
	ActiveExports int                      `json:"activeExports"`
	CheckedAt     time.Time                `json:"checkedAt"`
}

// handleStats implements GET /stats.
func (s *Server) handleStats(c echo.Context) error {
	ctx := c.Request().Context()

	storageStatus := "healthy"
	if _, err := s.vertices.Query(ctx, vertex.Criteria{}, vertex.Order{Field: vertex.OrderByDateCreated}, "", 1); err != nil {
		storageStatus = "unhealthy"
	}

	s.exports.mu.RLock()
	activeExports := 0
	for _, job := range s.exports.jobs {
		if job.Status == "pending" || job.Status == "processing" {
			activeExports++
		}
	}
	s.exports.mu.RUnlock()

	overall := "healthy"
	switch {
	case storageStatus == "unhealthy":
		overall = "unhealthy"
	case activeExports > 10:
		overall = "degraded"
	}

	stats := systemStats{
		Status:        overall,
		StorageStatus: storageStatus,
		Services: map[string]serviceStatus{
			"audit_engine":  {Status: "healthy", Message: "operational"},
			"export_service": {Status: "healthy", Message: "operational"},
		},
		ActiveExports: activeExports,
		CheckedAt:     time.Now().UTC(),
	}
	return c.JSON(http.StatusOK, stats)
}
