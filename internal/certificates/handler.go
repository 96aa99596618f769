package certificates

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lecturelink/backend/internal/models"
	"github.com/lecturelink/backend/pkg/queue"
	"github.com/lecturelink/backend/pkg/response"
)

// CertStore persists certificates.
type CertStore interface {
	Upsert(ctx context.Context, cert *models.Certificate) error
	Get(ctx context.Context, userUID, certID string) (*models.Certificate, error)
}

// Enqueuer queues certificate export jobs.
type Enqueuer interface {
	EnqueueCertificateExport(ctx context.Context, payload queue.CertificateExportPayload) error
}

// Handler handles certificate HTTP endpoints.
type Handler struct {
	store  CertStore
	jobs   Enqueuer
	logger *zap.Logger
}

// NewHandler creates a certificates handler.
func NewHandler(store CertStore, jobs Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, jobs: jobs, logger: logger}
}

// CreateRequest is the body of POST /api/create_certificate. The user fields
// are optional and merge into any existing row.
type CreateRequest struct {
	UserUID      string `json:"user_uid" binding:"required"`
	CertID       string `json:"cert_id" binding:"required"`
	LectureTitle string `json:"lectureTitle"`
	PDFURL       string `json:"pdfUrl" binding:"required"`
	UserName     string `json:"user_name"`
	UserEmail    string `json:"user_email"`
	UserPhone    string `json:"user_phone"`
}

// Create handles POST /api/create_certificate.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_uid, cert_id and pdfUrl are required")
		return
	}
	cert := &models.Certificate{
		UserUID:      req.UserUID,
		CertID:       req.CertID,
		LectureTitle: req.LectureTitle,
		PDFURL:       req.PDFURL,
		UserName:     req.UserName,
		UserEmail:    req.UserEmail,
		UserPhone:    req.UserPhone,
	}
	if err := h.store.Upsert(c.Request.Context(), cert); err != nil {
		h.logger.Error("certificate upsert failed", zap.Error(err),
			zap.String("user_uid", req.UserUID), zap.String("cert_id", req.CertID))
		response.Internal(c, "failed to create certificate")
		return
	}
	response.OK(c, gin.H{"message": "certificate created"})
}

// ExportRequest is the body of POST /api/add_certificate_to_master.
type ExportRequest struct {
	UserUID string `json:"user_uid" binding:"required"`
	CertID  string `json:"cert_id" binding:"required"`
}

// Export handles POST /api/add_certificate_to_master. Validates the
// certificate and queues the master sheet update for the worker.
func (h *Handler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_uid and cert_id are required")
		return
	}

	cert, err := h.store.Get(c.Request.Context(), req.UserUID, req.CertID)
	if err != nil {
		h.logger.Error("certificate lookup failed", zap.Error(err),
			zap.String("user_uid", req.UserUID), zap.String("cert_id", req.CertID))
		response.Internal(c, "failed to load certificate")
		return
	}
	if cert == nil {
		response.NotFound(c, "certificate not found")
		return
	}
	if cert.PDFURL == "" {
		response.BadRequest(c, "certificate has no PDF URL")
		return
	}

	payload := queue.CertificateExportPayload{UserUID: req.UserUID, CertID: req.CertID}
	if err := h.jobs.EnqueueCertificateExport(c.Request.Context(), payload); err != nil {
		h.logger.Error("enqueue certificate export failed", zap.Error(err),
			zap.String("user_uid", req.UserUID), zap.String("cert_id", req.CertID))
		response.Internal(c, "failed to queue export")
		return
	}
	response.OK(c, gin.H{"message": "certificate queued for export"})
}
