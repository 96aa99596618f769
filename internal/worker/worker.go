package worker

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/lecturelink/backend/internal/models"
	"github.com/lecturelink/backend/pkg/queue"
)

// MasterObjectKey is the bucket key of the master certificate sheet.
const MasterObjectKey = "exports/master_certificates.csv"

// drainLimit caps how many flagged certificates a startup drain exports.
const drainLimit = 50

var csvHeader = []string{"updated_at", "user_uid", "user_phone", "user_email", "user_name", "lecture_title", "issued_at", "pdf_url"}

// CertStore loads and flags certificates for export.
type CertStore interface {
	Get(ctx context.Context, userUID, certID string) (*models.Certificate, error)
	ListPendingExport(ctx context.Context, limit int) ([]models.Certificate, error)
	MarkExported(ctx context.Context, userUID, certID string) error
}

// ObjectStore reads and writes the master sheet object.
type ObjectStore interface {
	GetObjectStream(ctx context.Context, key string) (io.ReadCloser, string, error)
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) error
}

// CertificateExporter appends certificate rows to the master CSV in object
// storage and flips the export flags.
type CertificateExporter struct {
	certs  CertStore
	store  ObjectStore
	queue  *queue.Queue
	logger *zap.Logger
}

// NewCertificateExporter creates a certificate export processor.
func NewCertificateExporter(certs CertStore, store ObjectStore, q *queue.Queue, logger *zap.Logger) *CertificateExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateExporter{certs: certs, store: store, queue: q, logger: logger}
}

// Process executes one certificate export job.
func (p *CertificateExporter) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeCertificateExport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.CertificateExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return p.Export(ctx, payload.UserUID, payload.CertID)
}

// Export appends one certificate to the master sheet and marks it exported.
// Certificates already exported are skipped, so re-delivered jobs do not
// produce duplicate rows.
func (p *CertificateExporter) Export(ctx context.Context, userUID, certID string) error {
	cert, err := p.certs.Get(ctx, userUID, certID)
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}
	if cert == nil {
		return fmt.Errorf("certificate not found: %s/%s", userUID, certID)
	}
	if cert.Exported {
		p.logger.Info("certificate already exported",
			zap.String("user_uid", userUID), zap.String("cert_id", certID))
		return nil
	}
	if cert.PDFURL == "" {
		return fmt.Errorf("certificate %s/%s has no PDF URL", userUID, certID)
	}

	title := cert.LectureTitle
	if title == "" {
		title = cert.CertID
	}
	rows := p.readMaster(ctx)
	rows = append(rows, []string{
		time.Now().UTC().Format("2006-01-02 15:04:05"),
		cert.UserUID,
		cert.UserPhone,
		cert.UserEmail,
		cert.UserName,
		title,
		cert.IssuedAt.UTC().Format("2006-01-02 15:04:05"),
		cert.PDFURL,
	})
	if err := p.writeMaster(ctx, rows); err != nil {
		return fmt.Errorf("write master sheet: %w", err)
	}

	if err := p.certs.MarkExported(ctx, userUID, certID); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	p.logger.Info("certificate exported",
		zap.String("user_uid", userUID), zap.String("cert_id", certID))
	return nil
}

// readMaster loads the existing sheet rows; any error starts a fresh sheet
// with just the header.
func (p *CertificateExporter) readMaster(ctx context.Context) [][]string {
	body, _, err := p.store.GetObjectStream(ctx, MasterObjectKey)
	if err != nil {
		return [][]string{csvHeader}
	}
	defer body.Close()
	records, err := csv.NewReader(body).ReadAll()
	if err != nil || len(records) == 0 {
		p.logger.Warn("master sheet unreadable, starting fresh", zap.Error(err))
		return [][]string{csvHeader}
	}
	return records
}

func (p *CertificateExporter) writeMaster(ctx context.Context, rows [][]string) error {
	var buf bytes.Buffer
	if err := csv.NewWriter(&buf).WriteAll(rows); err != nil {
		return err
	}
	return p.store.Upload(ctx, MasterObjectKey, "text/csv", bytes.NewReader(buf.Bytes()), int64(buf.Len()))
}

// DrainPending exports certificates still flagged from before a restart.
func (p *CertificateExporter) DrainPending(ctx context.Context) {
	pending, err := p.certs.ListPendingExport(ctx, drainLimit)
	if err != nil {
		p.logger.Warn("list pending exports failed", zap.Error(err))
		return
	}
	for i := range pending {
		cert := &pending[i]
		if err := p.Export(ctx, cert.UserUID, cert.CertID); err != nil {
			p.logger.Error("pending export failed",
				zap.String("user_uid", cert.UserUID),
				zap.String("cert_id", cert.CertID),
				zap.Error(err))
		}
	}
	if len(pending) > 0 {
		p.logger.Info("drained pending certificate exports", zap.Int("count", len(pending)))
	}
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *CertificateExporter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("certificate worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
