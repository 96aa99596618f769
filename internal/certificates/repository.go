package certificates

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lecturelink/backend/internal/models"
)

const certColumns = `user_uid, cert_id, lecture_title, pdf_url, user_name, user_email, user_phone, issued_at, exported, ready_for_export, created_at, updated_at`

// Repository handles certificate persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a certificates repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert creates or updates a certificate. User fields merge (an empty
// incoming value keeps the stored one); issued_at and the export flags reset
// on every write so the certificate becomes exportable again.
func (r *Repository) Upsert(ctx context.Context, cert *models.Certificate) error {
	const q = `INSERT INTO certificates (user_uid, cert_id, lecture_title, pdf_url, user_name, user_email, user_phone, issued_at, exported, ready_for_export)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), FALSE, TRUE)
		ON CONFLICT (user_uid, cert_id) DO UPDATE SET
			lecture_title = EXCLUDED.lecture_title,
			pdf_url = EXCLUDED.pdf_url,
			user_name = COALESCE(NULLIF(EXCLUDED.user_name, ''), certificates.user_name),
			user_email = COALESCE(NULLIF(EXCLUDED.user_email, ''), certificates.user_email),
			user_phone = COALESCE(NULLIF(EXCLUDED.user_phone, ''), certificates.user_phone),
			issued_at = NOW(),
			exported = FALSE,
			ready_for_export = TRUE,
			updated_at = NOW()
		RETURNING issued_at, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		cert.UserUID, cert.CertID, cert.LectureTitle, cert.PDFURL,
		cert.UserName, cert.UserEmail, cert.UserPhone).
		Scan(&cert.IssuedAt, &cert.CreatedAt, &cert.UpdatedAt)
}

// Get returns a certificate, nil when missing.
func (r *Repository) Get(ctx context.Context, userUID, certID string) (*models.Certificate, error) {
	q := `SELECT ` + certColumns + ` FROM certificates WHERE user_uid = $1 AND cert_id = $2`
	cert, err := scanCertificate(r.pool.QueryRow(ctx, q, userUID, certID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return cert, nil
}

// ListPendingExport returns certificates flagged for export, oldest first.
func (r *Repository) ListPendingExport(ctx context.Context, limit int) ([]models.Certificate, error) {
	q := `SELECT ` + certColumns + ` FROM certificates WHERE ready_for_export AND NOT exported ORDER BY updated_at LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *cert)
	}
	return list, rows.Err()
}

// MarkExported flips the export flags after the master sheet was updated.
func (r *Repository) MarkExported(ctx context.Context, userUID, certID string) error {
	const q = `UPDATE certificates SET exported = TRUE, ready_for_export = FALSE, updated_at = NOW()
		WHERE user_uid = $1 AND cert_id = $2`
	_, err := r.pool.Exec(ctx, q, userUID, certID)
	return err
}

func scanCertificate(row pgx.Row) (*models.Certificate, error) {
	var cert models.Certificate
	err := row.Scan(
		&cert.UserUID, &cert.CertID, &cert.LectureTitle, &cert.PDFURL,
		&cert.UserName, &cert.UserEmail, &cert.UserPhone,
		&cert.IssuedAt, &cert.Exported, &cert.ReadyForExport,
		&cert.CreatedAt, &cert.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cert, nil
}
