package videos

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lecturelink/backend/internal/models"
	"github.com/lecturelink/backend/internal/qr"
	"github.com/lecturelink/backend/internal/translation"
	"github.com/lecturelink/backend/pkg/storage"
)

// ErrUnsupportedVideo is returned for uploads with an unsupported video
// extension.
var ErrUnsupportedVideo = errors.New("unsupported video format")

// ObjectStore uploads lecture objects and mints pre-signed access URLs.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) error
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
	PresignExpire() time.Duration
}

// MetadataTranslator produces per-language variants of one Korean text.
type MetadataTranslator interface {
	TranslateAll(ctx context.Context, text string) map[string]string
}

// RecordStore persists lecture records.
type RecordStore interface {
	Create(ctx context.Context, rec *models.VideoRecord) error
}

// TranslationStore persists per-language metadata rows.
type TranslationStore interface {
	Upsert(ctx context.Context, t *models.Translation) error
}

// UploadParams carries one lecture upload.
type UploadParams struct {
	GroupName       string
	MainCategory    string
	SubCategory     string
	SubSubCategory  string
	Level           string
	Tag             string
	DurationSeconds int

	VideoFilename string
	Video         io.Reader
	VideoSize     int64

	ThumbnailFilename string
	Thumbnail         io.Reader
	ThumbnailSize     int64
}

// Service implements the lecture upload pipeline.
type Service struct {
	store        ObjectStore
	repo         RecordStore
	translations TranslationStore
	translator   MetadataTranslator
	baseURL      string
	logger       *zap.Logger
}

// NewService creates an upload service. baseURL is the deep-link prefix the
// QR code encodes (e.g. https://example.com/watch/).
func NewService(store ObjectStore, repo RecordStore, translations TranslationStore, translator MetadataTranslator, baseURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        store,
		repo:         repo,
		translations: translations,
		translator:   translator,
		baseURL:      baseURL,
		logger:       logger,
	}
}

// Upload runs the full pipeline: translate metadata, upload the video and
// optional thumbnail, render and upload the QR deep link, mint access URLs,
// then persist the record and its per-language rows. A failed thumbnail is
// tolerated; a failed QR code fails the upload. Returns the stored record and
// the title in every supported language.
func (s *Service) Upload(ctx context.Context, p UploadParams) (*models.VideoRecord, map[string]string, error) {
	if !storage.IsAllowedVideo(p.VideoFilename) {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedVideo, path.Ext(p.VideoFilename))
	}

	s.logger.Info("translating lecture metadata", zap.String("group_name", p.GroupName))
	titles := s.translator.TranslateAll(ctx, p.GroupName)
	mains := s.translateIfSet(ctx, p.MainCategory)
	subs := s.translateIfSet(ctx, p.SubCategory)
	leafs := s.translateIfSet(ctx, p.SubSubCategory)

	groupID := hexID()
	dateStr := time.Now().Format("20060102")
	folder := storage.VideoFolder(groupID, p.GroupName, dateStr)
	videoKey := storage.VideoKey(folder, p.VideoFilename)
	expire := s.store.PresignExpire()

	if err := s.store.Upload(ctx, videoKey, storage.ContentTypeForFilename(p.VideoFilename), p.Video, p.VideoSize); err != nil {
		return nil, nil, fmt.Errorf("upload video: %w", err)
	}
	videoURL, err := s.store.SignedURL(ctx, videoKey, expire)
	if err != nil {
		return nil, nil, fmt.Errorf("sign video url: %w", err)
	}

	// Thumbnail is optional: a missing file or unsupported extension skips
	// it, and an upload failure only loses the thumbnail.
	thumbnailKey, thumbnailURL := "", ""
	if p.Thumbnail != nil && storage.IsAllowedImage(p.ThumbnailFilename) {
		key := storage.ThumbnailKey(folder, p.ThumbnailFilename)
		if err := s.store.Upload(ctx, key, storage.ContentTypeForFilename(p.ThumbnailFilename), p.Thumbnail, p.ThumbnailSize); err != nil {
			s.logger.Error("thumbnail upload failed", zap.String("group_id", groupID), zap.Error(err))
		} else if u, err := s.store.SignedURL(ctx, key, expire); err != nil {
			s.logger.Error("thumbnail url signing failed", zap.String("group_id", groupID), zap.Error(err))
		} else {
			thumbnailKey, thumbnailURL = key, u
			s.logger.Info("thumbnail uploaded", zap.String("key", key))
		}
	}

	qrLink := s.baseURL + groupID
	png, err := qr.Encode(qrLink)
	if err != nil {
		return nil, nil, err
	}
	qrKey := storage.QRKey(folder, hexID())
	if err := s.store.Upload(ctx, qrKey, "image/png", bytes.NewReader(png), int64(len(png))); err != nil {
		return nil, nil, fmt.Errorf("upload qr: %w", err)
	}
	qrURL, err := s.store.SignedURL(ctx, qrKey, expire)
	if err != nil {
		return nil, nil, fmt.Errorf("sign qr url: %w", err)
	}

	rec := &models.VideoRecord{
		GroupID:         groupID,
		GroupName:       p.GroupName,
		MainCategory:    p.MainCategory,
		SubCategory:     p.SubCategory,
		SubSubCategory:  p.SubSubCategory,
		Runtime:         formatRuntime(p.DurationSeconds),
		DurationSeconds: p.DurationSeconds,
		Level:           p.Level,
		Tag:             p.Tag,
		VideoKey:        videoKey,
		ThumbnailKey:    thumbnailKey,
		QRKey:           qrKey,
		VideoURL:        videoURL,
		ThumbnailURL:    thumbnailURL,
		QRURL:           qrURL,
		QRLink:          qrLink,
		UploadDate:      dateStr,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("create record: %w", err)
	}

	s.saveTranslations(ctx, rec, titles, mains, subs, leafs)

	s.logger.Info("video upload complete", zap.String("group_id", groupID), zap.String("runtime", rec.Runtime))
	return rec, titles, nil
}

func (s *Service) translateIfSet(ctx context.Context, text string) map[string]string {
	if text == "" {
		return map[string]string{}
	}
	return s.translator.TranslateAll(ctx, text)
}

// saveTranslations writes one row per supported language. A failed row is
// logged and skipped; readers fall back to the Korean fields on the record.
func (s *Service) saveTranslations(ctx context.Context, rec *models.VideoRecord, titles, mains, subs, leafs map[string]string) {
	now := time.Now().UTC()
	for _, lang := range translation.Supported {
		t := &models.Translation{
			GroupID:      rec.GroupID,
			LanguageCode: lang.Code,
			LanguageName: lang.Name,
			IsOriginal:   lang.Code == translation.DefaultLanguage,
			TranslatedAt: now,
		}
		if t.IsOriginal {
			t.Title = rec.GroupName
			t.MainCategory = rec.MainCategory
			t.SubCategory = rec.SubCategory
			t.SubSubCategory = rec.SubSubCategory
		} else {
			t.Title = valueOr(titles, lang.Code, rec.GroupName)
			t.MainCategory = valueOr(mains, lang.Code, rec.MainCategory)
			t.SubCategory = valueOr(subs, lang.Code, rec.SubCategory)
			t.SubSubCategory = valueOr(leafs, lang.Code, rec.SubSubCategory)
		}
		if err := s.translations.Upsert(ctx, t); err != nil {
			s.logger.Warn("translation save failed",
				zap.String("group_id", rec.GroupID),
				zap.String("language", lang.Code),
				zap.Error(err))
		}
	}
}

func valueOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

// hexID returns a random 32-character lowercase hex ID.
func hexID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// formatRuntime renders a duration in seconds as "m:ss".
func formatRuntime(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
