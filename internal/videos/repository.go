package videos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lecturelink/backend/internal/models"
)

const videoColumns = `group_id, group_name, main_category, sub_category, sub_sub_category, runtime, duration_seconds, level, tag,
	video_key, thumbnail_key, qr_key, video_url, thumbnail_url, qr_url, qr_link, upload_date,
	last_refreshed_at, refresh_reason, created_at, updated_at`

// urlColumns maps a URL role to its column.
var urlColumns = map[models.Role]string{
	models.RoleVideo:     "video_url",
	models.RoleThumbnail: "thumbnail_url",
	models.RoleQR:        "qr_url",
}

// Repository handles lecture record persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a videos repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new lecture record.
func (r *Repository) Create(ctx context.Context, rec *models.VideoRecord) error {
	const q = `INSERT INTO video_records (group_id, group_name, main_category, sub_category, sub_sub_category, runtime, duration_seconds, level, tag,
			video_key, thumbnail_key, qr_key, video_url, thumbnail_url, qr_url, qr_link, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		rec.GroupID, rec.GroupName, rec.MainCategory, rec.SubCategory, rec.SubSubCategory,
		rec.Runtime, rec.DurationSeconds, rec.Level, rec.Tag,
		rec.VideoKey, rec.ThumbnailKey, rec.QRKey,
		rec.VideoURL, rec.ThumbnailURL, rec.QRURL, rec.QRLink, rec.UploadDate).
		Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

// GetByGroupID returns a lecture record by its group ID, nil when missing.
func (r *Repository) GetByGroupID(ctx context.Context, groupID string) (*models.VideoRecord, error) {
	q := `SELECT ` + videoColumns + ` FROM video_records WHERE group_id = $1`
	rec, err := scanVideo(r.pool.QueryRow(ctx, q, groupID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// StreamAll invokes fn for every lecture record, oldest first.
func (r *Repository) StreamAll(ctx context.Context, fn func(*models.VideoRecord) error) error {
	q := `SELECT ` + videoColumns + ` FROM video_records ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		rec, err := scanVideo(rows)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// UpdateURLs persists reissued URLs for the given roles along with the
// refresh audit fields.
func (r *Repository) UpdateURLs(ctx context.Context, groupID string, urls map[models.Role]string, reason string, at time.Time) error {
	if len(urls) == 0 {
		return nil
	}
	set := make([]string, 0, len(urls)+3)
	args := make([]interface{}, 0, len(urls)+3)
	n := 1
	for _, role := range models.AllRoles {
		u, ok := urls[role]
		if !ok {
			continue
		}
		set = append(set, fmt.Sprintf("%s = $%d", urlColumns[role], n))
		args = append(args, u)
		n++
	}
	set = append(set, fmt.Sprintf("last_refreshed_at = $%d", n))
	args = append(args, at)
	n++
	set = append(set, fmt.Sprintf("refresh_reason = $%d", n))
	args = append(args, reason)
	n++
	set = append(set, "updated_at = NOW()")

	q := fmt.Sprintf("UPDATE video_records SET %s WHERE group_id = $%d", strings.Join(set, ", "), n)
	args = append(args, groupID)
	_, err := r.pool.Exec(ctx, q, args...)
	return err
}

func scanVideo(row pgx.Row) (*models.VideoRecord, error) {
	var rec models.VideoRecord
	err := row.Scan(
		&rec.GroupID, &rec.GroupName, &rec.MainCategory, &rec.SubCategory, &rec.SubSubCategory,
		&rec.Runtime, &rec.DurationSeconds, &rec.Level, &rec.Tag,
		&rec.VideoKey, &rec.ThumbnailKey, &rec.QRKey,
		&rec.VideoURL, &rec.ThumbnailURL, &rec.QRURL, &rec.QRLink, &rec.UploadDate,
		&rec.LastRefreshedAt, &rec.RefreshReason, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
