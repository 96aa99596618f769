package certificates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lecturelink/backend/internal/models"
	"github.com/lecturelink/backend/pkg/queue"
)

type fakeCertStore struct {
	upserted  *models.Certificate
	upsertErr error
	cert      *models.Certificate
	getErr    error
}

func (f *fakeCertStore) Upsert(ctx context.Context, cert *models.Certificate) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = cert
	return nil
}

func (f *fakeCertStore) Get(ctx context.Context, userUID, certID string) (*models.Certificate, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.cert == nil || f.cert.UserUID != userUID || f.cert.CertID != certID {
		return nil, nil
	}
	return f.cert, nil
}

type fakeEnqueuer struct {
	payloads []queue.CertificateExportPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueCertificateExport(ctx context.Context, payload queue.CertificateExportPayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   string                 `json:"error"`
}

func doJSON(t *testing.T, h gin.HandlerFunc, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST(path, h)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestCreateCertificate(t *testing.T) {
	store := &fakeCertStore{}
	h := NewHandler(store, &fakeEnqueuer{}, zap.NewNop())

	w, env := doJSON(t, h.Create, "/api/create_certificate", `{
		"user_uid": "user-1",
		"cert_id": "cert-9",
		"lectureTitle": "Basic Math",
		"pdfUrl": "https://cdn.example/cert-9.pdf",
		"user_name": "Kim",
		"user_email": "kim@example.com"
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "certificate created", env.Data["message"])

	require.NotNil(t, store.upserted)
	assert.Equal(t, "user-1", store.upserted.UserUID)
	assert.Equal(t, "cert-9", store.upserted.CertID)
	assert.Equal(t, "Basic Math", store.upserted.LectureTitle)
	assert.Equal(t, "https://cdn.example/cert-9.pdf", store.upserted.PDFURL)
	assert.Equal(t, "Kim", store.upserted.UserName)
}

func TestCreateCertificateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing user_uid", `{"cert_id":"c","pdfUrl":"https://x/y.pdf"}`},
		{"missing cert_id", `{"user_uid":"u","pdfUrl":"https://x/y.pdf"}`},
		{"missing pdfUrl", `{"user_uid":"u","cert_id":"c"}`},
		{"bad json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeCertStore{}
			h := NewHandler(store, &fakeEnqueuer{}, zap.NewNop())

			w, env := doJSON(t, h.Create, "/api/create_certificate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
			assert.Nil(t, store.upserted)
		})
	}
}

func TestCreateCertificateStoreFailure(t *testing.T) {
	h := NewHandler(&fakeCertStore{upsertErr: errors.New("db down")}, &fakeEnqueuer{}, zap.NewNop())

	w, _ := doJSON(t, h.Create, "/api/create_certificate",
		`{"user_uid":"u","cert_id":"c","pdfUrl":"https://x/y.pdf"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestExportQueuesJob(t *testing.T) {
	store := &fakeCertStore{cert: &models.Certificate{
		UserUID: "user-1",
		CertID:  "cert-9",
		PDFURL:  "https://cdn.example/cert-9.pdf",
	}}
	jobs := &fakeEnqueuer{}
	h := NewHandler(store, jobs, zap.NewNop())

	w, env := doJSON(t, h.Export, "/api/add_certificate_to_master",
		`{"user_uid":"user-1","cert_id":"cert-9"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "certificate queued for export", env.Data["message"])
	require.Len(t, jobs.payloads, 1)
	assert.Equal(t, queue.CertificateExportPayload{UserUID: "user-1", CertID: "cert-9"}, jobs.payloads[0])
}

func TestExportUnknownCertificate(t *testing.T) {
	jobs := &fakeEnqueuer{}
	h := NewHandler(&fakeCertStore{}, jobs, zap.NewNop())

	w, env := doJSON(t, h.Export, "/api/add_certificate_to_master",
		`{"user_uid":"user-1","cert_id":"missing"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "certificate not found", env.Error)
	assert.Empty(t, jobs.payloads)
}

func TestExportRequiresPDF(t *testing.T) {
	store := &fakeCertStore{cert: &models.Certificate{UserUID: "user-1", CertID: "cert-9"}}
	jobs := &fakeEnqueuer{}
	h := NewHandler(store, jobs, zap.NewNop())

	w, env := doJSON(t, h.Export, "/api/add_certificate_to_master",
		`{"user_uid":"user-1","cert_id":"cert-9"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "certificate has no PDF URL", env.Error)
	assert.Empty(t, jobs.payloads)
}

func TestExportEnqueueFailure(t *testing.T) {
	store := &fakeCertStore{cert: &models.Certificate{
		UserUID: "user-1", CertID: "cert-9", PDFURL: "https://x/y.pdf",
	}}
	h := NewHandler(store, &fakeEnqueuer{err: errors.New("redis down")}, zap.NewNop())

	w, _ := doJSON(t, h.Export, "/api/add_certificate_to_master",
		`{"user_uid":"user-1","cert_id":"cert-9"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
