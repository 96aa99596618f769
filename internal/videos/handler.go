package videos

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lecturelink/backend/internal/models"
	"github.com/lecturelink/backend/internal/refresh"
	"github.com/lecturelink/backend/internal/translation"
	"github.com/lecturelink/backend/pkg/response"
)

// RecordGetter loads one lecture record.
type RecordGetter interface {
	GetByGroupID(ctx context.Context, groupID string) (*models.VideoRecord, error)
}

// TranslationGetter loads one per-language metadata row.
type TranslationGetter interface {
	Get(ctx context.Context, groupID, langCode string) (*models.Translation, error)
}

// Freshener reissues near-expiry URLs on a record.
type Freshener interface {
	EnsureFresh(ctx context.Context, rec *models.VideoRecord, roles []models.Role, margin time.Duration, reason string) (refresh.Outcome, error)
}

// Handler handles lecture HTTP endpoints.
type Handler struct {
	records      RecordGetter
	translations TranslationGetter
	refresher    Freshener
	uploads      *Service
	margin       time.Duration
	logger       *zap.Logger
}

// NewHandler creates a videos handler. margin is the on-demand freshness
// margin for viewer-facing URLs.
func NewHandler(records RecordGetter, translations TranslationGetter, refresher Freshener, uploads *Service, margin time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		records:      records,
		translations: translations,
		refresher:    refresher,
		uploads:      uploads,
		margin:       margin,
		logger:       logger,
	}
}

// Watch handles GET /watch/:id. It is the deep-link target encoded in the QR
// code and returns the viewer payload with a usable video URL.
func (h *Handler) Watch(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		return
	}
	lang := translation.Normalize(c.Query("lang"))

	h.freshen(c, rec)
	if rec.VideoURL == "" {
		response.ServiceUnavailable(c, "video temporarily unavailable")
		return
	}

	d := h.displayFor(c.Request.Context(), rec, lang)
	response.OK(c, gin.H{
		"groupId":       rec.GroupID,
		"title":         d.Title,
		"main_category": d.MainCategory,
		"sub_category":  d.SubCategory,
		"video_url":     rec.VideoURL,
		"thumbnail_url": rec.ThumbnailURL,
		"qr_url":        rec.QRURL,
		"language":      d.Language,
		"time":          rec.Runtime,
		"level":         rec.Level,
		"tag":           rec.Tag,
	})
}

// GetByID handles GET /api/videos/:id. Full record detail for one language.
func (h *Handler) GetByID(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		return
	}
	lang := translation.Normalize(c.Query("lang"))

	h.freshen(c, rec)
	if rec.VideoURL == "" {
		response.ServiceUnavailable(c, "video temporarily unavailable")
		return
	}

	d := h.displayFor(c.Request.Context(), rec, lang)
	response.OK(c, gin.H{
		"group_id":         rec.GroupID,
		"title":            d.Title,
		"main_category":    d.MainCategory,
		"sub_category":     d.SubCategory,
		"sub_sub_category": d.SubSubCategory,
		"time":             rec.Runtime,
		"level":            rec.Level,
		"tag":              rec.Tag,
		"video_url":        rec.VideoURL,
		"thumbnail_url":    rec.ThumbnailURL,
		"qr_url":           rec.QRURL,
		"language":         d.Language,
		"language_name":    d.LanguageName,
	})
}

// Upload handles POST /api/admin/upload. Multipart body: file (video,
// required), thumbnail (image, optional), plus metadata form fields.
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "video file is required")
		return
	}
	durationSec, _ := strconv.Atoi(c.PostForm("duration_seconds"))

	src, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded video failed", zap.Error(err))
		response.Internal(c, "failed to read upload")
		return
	}
	defer src.Close()

	params := UploadParams{
		GroupName:       c.DefaultPostForm("group_name", "default"),
		MainCategory:    c.PostForm("main_category"),
		SubCategory:     c.PostForm("sub_category"),
		SubSubCategory:  c.PostForm("sub_sub_category"),
		Level:           c.PostForm("level"),
		Tag:             c.PostForm("tag"),
		DurationSeconds: durationSec,
		VideoFilename:   file.Filename,
		Video:           src,
		VideoSize:       file.Size,
	}
	if thumb, err := c.FormFile("thumbnail"); err == nil {
		ts, err := thumb.Open()
		if err != nil {
			h.logger.Warn("open uploaded thumbnail failed", zap.Error(err))
		} else {
			defer ts.Close()
			params.ThumbnailFilename = thumb.Filename
			params.Thumbnail = ts
			params.ThumbnailSize = thumb.Size
		}
	}

	rec, titles, err := h.uploads.Upload(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, ErrUnsupportedVideo) {
			response.BadRequest(c, err.Error())
			return
		}
		h.logger.Error("video upload failed", zap.Error(err), zap.String("filename", file.Filename))
		response.Internal(c, "upload failed")
		return
	}

	response.Created(c, gin.H{
		"group_id":      rec.GroupID,
		"translations":  titles,
		"time":          rec.Runtime,
		"level":         rec.Level,
		"tag":           rec.Tag,
		"video_url":     rec.VideoURL,
		"thumbnail_url": rec.ThumbnailURL,
		"qr_url":        rec.QRURL,
		"qr_link":       rec.QRLink,
	})
}

// lookup loads the record for c's :id param, writing the error response when
// it is missing or the store fails.
func (h *Handler) lookup(c *gin.Context) (*models.VideoRecord, bool) {
	groupID := c.Param("id")
	rec, err := h.records.GetByGroupID(c.Request.Context(), groupID)
	if err != nil {
		h.logger.Error("video lookup failed", zap.Error(err), zap.String("group_id", groupID))
		response.Internal(c, "failed to load video")
		return nil, false
	}
	if rec == nil {
		response.NotFound(c, "video not found")
		return nil, false
	}
	return rec, true
}

// freshen reissues the viewing URL when it is expired or expires within the
// margin. Failures are logged; the previously stored URL stays on the record
// so the response can still carry it.
func (h *Handler) freshen(c *gin.Context, rec *models.VideoRecord) {
	_, err := h.refresher.EnsureFresh(c.Request.Context(), rec, []models.Role{models.RoleVideo}, h.margin, refresh.ReasonManual)
	if err != nil {
		h.logger.Warn("on-demand url refresh failed",
			zap.String("group_id", rec.GroupID),
			zap.Error(err))
	}
}

type display struct {
	Title          string
	MainCategory   string
	SubCategory    string
	SubSubCategory string
	Language       string
	LanguageName   string
}

// displayFor resolves the display fields for lang, falling back to the
// record's Korean fields when no translation row exists.
func (h *Handler) displayFor(ctx context.Context, rec *models.VideoRecord, lang string) display {
	t, err := h.translations.Get(ctx, rec.GroupID, lang)
	if err != nil {
		h.logger.Warn("translation lookup failed",
			zap.String("group_id", rec.GroupID),
			zap.String("language", lang),
			zap.Error(err))
	}
	if t == nil {
		return display{
			Title:          rec.GroupName,
			MainCategory:   rec.MainCategory,
			SubCategory:    rec.SubCategory,
			SubSubCategory: rec.SubSubCategory,
			Language:       translation.DefaultLanguage,
			LanguageName:   translation.NameOf(translation.DefaultLanguage),
		}
	}
	return display{
		Title:          t.Title,
		MainCategory:   t.MainCategory,
		SubCategory:    t.SubCategory,
		SubSubCategory: t.SubSubCategory,
		Language:       lang,
		LanguageName:   t.LanguageName,
	}
}
