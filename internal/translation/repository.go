package translation

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lecturelink/backend/internal/models"
)

// Repository handles translation persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a translations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert writes one language row for a lecture, replacing any previous
// translation for the same language.
func (r *Repository) Upsert(ctx context.Context, t *models.Translation) error {
	const q = `INSERT INTO video_translations (group_id, language_code, language_name, title, main_category, sub_category, sub_sub_category, is_original, translated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (group_id, language_code) DO UPDATE SET
			language_name = EXCLUDED.language_name,
			title = EXCLUDED.title,
			main_category = EXCLUDED.main_category,
			sub_category = EXCLUDED.sub_category,
			sub_sub_category = EXCLUDED.sub_sub_category,
			is_original = EXCLUDED.is_original,
			translated_at = EXCLUDED.translated_at`
	_, err := r.pool.Exec(ctx, q,
		t.GroupID, t.LanguageCode, t.LanguageName, t.Title,
		t.MainCategory, t.SubCategory, t.SubSubCategory, t.IsOriginal, t.TranslatedAt)
	return err
}

// Get returns the stored translation for one language, nil when missing.
func (r *Repository) Get(ctx context.Context, groupID, langCode string) (*models.Translation, error) {
	const q = `SELECT group_id, language_code, language_name, title, main_category, sub_category, sub_sub_category, is_original, translated_at
		FROM video_translations WHERE group_id = $1 AND language_code = $2`
	var t models.Translation
	err := r.pool.QueryRow(ctx, q, groupID, langCode).Scan(
		&t.GroupID, &t.LanguageCode, &t.LanguageName, &t.Title,
		&t.MainCategory, &t.SubCategory, &t.SubSubCategory, &t.IsOriginal, &t.TranslatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
