// Package health reports dependency status for load balancers and uptime
// checks.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lecturelink/backend/internal/refresh"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BucketChecker checks object storage reachability.
type BucketChecker interface {
	HeadBucket(ctx context.Context) error
}

// SweepStatus reports the background sweep scheduler.
type SweepStatus interface {
	Status() refresh.Status
}

// Handler handles the health endpoint.
type Handler struct {
	db      Pinger
	store   BucketChecker
	sweeper SweepStatus
}

// NewHandler creates a health handler. Any dependency may be nil and then
// reports unhealthy (or not running).
func NewHandler(db Pinger, store BucketChecker, sweeper SweepStatus) *Handler {
	return &Handler{db: db, store: store, sweeper: sweeper}
}

// Check handles GET /health. Database and object storage gate the status
// code; the sweeper state is informational.
func (h *Handler) Check(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "healthy"
	if h.db == nil || h.db.Ping(ctx) != nil {
		dbStatus = "unhealthy"
	}
	s3Status := "healthy"
	if h.store == nil || h.store.HeadBucket(ctx) != nil {
		s3Status = "unhealthy"
	}
	sweepStatus := "stopped"
	if h.sweeper != nil && h.sweeper.Status().Running {
		sweepStatus = "running"
	}

	status := "healthy"
	code := http.StatusOK
	if dbStatus != "healthy" || s3Status != "healthy" {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": gin.H{
			"database": dbStatus,
			"s3":       s3Status,
			"sweeper":  sweepStatus,
		},
	})
}
