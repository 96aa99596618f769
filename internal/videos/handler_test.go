package videos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lecturelink/backend/internal/models"
	"github.com/lecturelink/backend/internal/refresh"
)

type fakeRecords struct {
	rec *models.VideoRecord
	err error
}

func (f *fakeRecords) GetByGroupID(ctx context.Context, groupID string) (*models.VideoRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.rec == nil || f.rec.GroupID != groupID {
		return nil, nil
	}
	return f.rec, nil
}

type fakeTranslationRows struct {
	rows map[string]*models.Translation
	err  error
}

func (f *fakeTranslationRows) Get(ctx context.Context, groupID, langCode string) (*models.Translation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[langCode], nil
}

type fakeFreshener struct {
	calls  int
	roles  []models.Role
	margin time.Duration
	reason string
	url    string // when set, stored on the record as the new video URL
	err    error
}

func (f *fakeFreshener) EnsureFresh(ctx context.Context, rec *models.VideoRecord, roles []models.Role, margin time.Duration, reason string) (refresh.Outcome, error) {
	f.calls++
	f.roles = roles
	f.margin = margin
	f.reason = reason
	out := refresh.Outcome{Issued: map[models.Role]string{}}
	if f.url != "" {
		rec.SetURL(models.RoleVideo, f.url)
		out.Issued[models.RoleVideo] = f.url
		out.Persisted = true
	}
	return out, f.err
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   string                 `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/watch/:id", h.Watch)
	r.GET("/api/videos/:id", h.GetByID)
	r.POST("/api/admin/upload", h.Upload)
	return r
}

func watchableRecord() *models.VideoRecord {
	return &models.VideoRecord{
		GroupID:      "8b24f0a1c3d94f6e8b24f0a1c3d94f6e",
		GroupName:    "수학 기초",
		MainCategory: "수학",
		SubCategory:  "기초",
		Runtime:      "12:05",
		Level:        "beginner",
		Tag:          "spring",
		VideoKey:     "videos/abc/video.mp4",
		VideoURL:     "https://signed.example/videos/abc/video.mp4?X-Amz-Date=20240101T000000Z&X-Amz-Expires=604800",
	}
}

func translationRow(groupID, code, name, title string) *models.Translation {
	return &models.Translation{
		GroupID:      groupID,
		LanguageCode: code,
		LanguageName: name,
		Title:        title,
		MainCategory: "main-" + code,
		SubCategory:  "sub-" + code,
	}
}

func TestWatchReturnsViewerPayload(t *testing.T) {
	rec := watchableRecord()
	freshener := &fakeFreshener{}
	h := NewHandler(
		&fakeRecords{rec: rec},
		&fakeTranslationRows{rows: map[string]*models.Translation{
			"en": translationRow(rec.GroupID, "en", "English", "Basic Math"),
		}},
		freshener, nil, 60*time.Minute, zap.NewNop(),
	)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/watch/"+rec.GroupID+"?lang=en", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.True(t, body.Success)
	assert.Equal(t, rec.GroupID, body.Data["groupId"])
	assert.Equal(t, "Basic Math", body.Data["title"])
	assert.Equal(t, "en", body.Data["language"])
	assert.Equal(t, rec.VideoURL, body.Data["video_url"])
	assert.Equal(t, "12:05", body.Data["time"])
	assert.NotContains(t, body.Data, "sub_sub_category")
	assert.NotContains(t, body.Data, "language_name")

	assert.Equal(t, 1, freshener.calls)
	assert.Equal(t, []models.Role{models.RoleVideo}, freshener.roles)
	assert.Equal(t, 60*time.Minute, freshener.margin)
	assert.Equal(t, refresh.ReasonManual, freshener.reason)
}

func TestWatchServesReissuedURL(t *testing.T) {
	rec := watchableRecord()
	rec.VideoURL = "" // stored URL was never issued
	freshener := &fakeFreshener{url: "https://signed.example/fresh"}
	h := NewHandler(&fakeRecords{rec: rec}, &fakeTranslationRows{}, freshener, nil, time.Hour, zap.NewNop())
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/watch/"+rec.GroupID, nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "https://signed.example/fresh", body.Data["video_url"])
}

func TestWatchServesStaleURLWhenRefreshFails(t *testing.T) {
	rec := watchableRecord()
	stale := rec.VideoURL
	freshener := &fakeFreshener{err: refresh.ErrStorageUnavailable}
	h := NewHandler(&fakeRecords{rec: rec}, &fakeTranslationRows{}, freshener, nil, time.Hour, zap.NewNop())
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/watch/"+rec.GroupID, nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, stale, body.Data["video_url"])
}

func TestWatchUnavailableWithoutAnyURL(t *testing.T) {
	rec := watchableRecord()
	rec.VideoURL = ""
	freshener := &fakeFreshener{err: refresh.ErrStorageUnavailable}
	h := NewHandler(&fakeRecords{rec: rec}, &fakeTranslationRows{}, freshener, nil, time.Hour, zap.NewNop())
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/watch/"+rec.GroupID, nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeEnvelope(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "video temporarily unavailable", body.Error)
}

func TestWatchNotFound(t *testing.T) {
	h := NewHandler(&fakeRecords{}, &fakeTranslationRows{}, &fakeFreshener{}, nil, time.Hour, zap.NewNop())
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/watch/missing", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "video not found", decodeEnvelope(t, w).Error)
}

func TestWatchLookupFailure(t *testing.T) {
	h := NewHandler(&fakeRecords{err: errors.New("db down")}, &fakeTranslationRows{}, &fakeFreshener{}, nil, time.Hour, zap.NewNop())
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/watch/abc", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWatchFallsBackToKorean(t *testing.T) {
	rec := watchableRecord()
	// Unsupported query language normalizes to ko; no ko row stored either, so
	// the record's own fields are served.
	h := NewHandler(&fakeRecords{rec: rec}, &fakeTranslationRows{}, &fakeFreshener{}, nil, time.Hour, zap.NewNop())
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/watch/"+rec.GroupID+"?lang=fr", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "수학 기초", body.Data["title"])
	assert.Equal(t, "수학", body.Data["main_category"])
	assert.Equal(t, "ko", body.Data["language"])
}

func TestGetByIDIncludesLanguageName(t *testing.T) {
	rec := watchableRecord()
	rec.SubSubCategory = "도형"
	h := NewHandler(
		&fakeRecords{rec: rec},
		&fakeTranslationRows{rows: map[string]*models.Translation{
			"ja": translationRow(rec.GroupID, "ja", "日本語", "基礎数学"),
		}},
		&fakeFreshener{}, nil, time.Hour, zap.NewNop(),
	)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/videos/"+rec.GroupID+"?lang=ja", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, rec.GroupID, body.Data["group_id"])
	assert.Equal(t, "基礎数学", body.Data["title"])
	assert.Equal(t, "日本語", body.Data["language_name"])
	assert.Contains(t, body.Data, "sub_sub_category")
	assert.NotContains(t, body.Data, "groupId")
}

func multipartBody(t *testing.T, videoName string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if videoName != "" {
		fw, err := mw.CreateFormFile("file", videoName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake video bytes"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newUploadHandler(store *fakeObjectStore, repo *fakeVideoStore, translations *fakeTranslationStore) *Handler {
	svc, _ := newTestService(store, repo, translations)
	return NewHandler(&fakeRecords{}, &fakeTranslationRows{}, &fakeFreshener{}, svc, time.Hour, zap.NewNop())
}

func TestUploadHandlerSuccess(t *testing.T) {
	store := newFakeObjectStore()
	repo := &fakeVideoStore{}
	h := newUploadHandler(store, repo, &fakeTranslationStore{})
	r := newTestRouter(h)

	buf, contentType := multipartBody(t, "lecture.mp4", map[string]string{
		"group_name":       "수학 기초",
		"main_category":    "수학",
		"duration_seconds": "725",
		"level":            "beginner",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeEnvelope(t, w)
	assert.True(t, body.Success)
	assert.Len(t, body.Data["group_id"], 32)
	assert.Equal(t, "12:05", body.Data["time"])
	assert.NotEmpty(t, body.Data["video_url"])
	assert.NotEmpty(t, body.Data["qr_url"])

	translations, ok := body.Data["translations"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "수학 기초", translations["ko"])
	assert.Equal(t, "en:수학 기초", translations["en"])

	require.NotNil(t, repo.created)
	assert.Equal(t, testBaseURL+repo.created.GroupID, body.Data["qr_link"])
}

func TestUploadHandlerDefaultsGroupName(t *testing.T) {
	repo := &fakeVideoStore{}
	h := newUploadHandler(newFakeObjectStore(), repo, &fakeTranslationStore{})
	r := newTestRouter(h)

	buf, contentType := multipartBody(t, "lecture.mp4", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, "default", repo.created.GroupName)
}

func TestUploadHandlerMissingFile(t *testing.T) {
	h := newUploadHandler(newFakeObjectStore(), &fakeVideoStore{}, &fakeTranslationStore{})
	r := newTestRouter(h)

	buf, contentType := multipartBody(t, "", map[string]string{"group_name": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "video file is required", decodeEnvelope(t, w).Error)
}

func TestUploadHandlerUnsupportedExtension(t *testing.T) {
	h := newUploadHandler(newFakeObjectStore(), &fakeVideoStore{}, &fakeTranslationStore{})
	r := newTestRouter(h)

	buf, contentType := multipartBody(t, "notes.txt", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error, "unsupported video format")
}
