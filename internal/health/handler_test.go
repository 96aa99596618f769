package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecturelink/backend/internal/refresh"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeBucket struct{ err error }

func (f fakeBucket) HeadBucket(ctx context.Context) error { return f.err }

type fakeSweeper struct{ running bool }

func (f fakeSweeper) Status() refresh.Status { return refresh.Status{Running: f.running} }

type healthBody struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Services  struct {
		Database string `json:"database"`
		S3       string `json:"s3"`
		Sweeper  string `json:"sweeper"`
	} `json:"services"`
}

func check(t *testing.T, h *Handler) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.Check)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body healthBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestCheckHealthy(t *testing.T) {
	h := NewHandler(fakePinger{}, fakeBucket{}, fakeSweeper{running: true})
	w, body := check(t, h)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Services.Database)
	assert.Equal(t, "healthy", body.Services.S3)
	assert.Equal(t, "running", body.Services.Sweeper)
	assert.NotEmpty(t, body.Timestamp)
}

func TestCheckDatabaseDown(t *testing.T) {
	h := NewHandler(fakePinger{err: errors.New("refused")}, fakeBucket{}, fakeSweeper{running: true})
	w, body := check(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "unhealthy", body.Services.Database)
	assert.Equal(t, "healthy", body.Services.S3)
}

func TestCheckStorageDown(t *testing.T) {
	h := NewHandler(fakePinger{}, fakeBucket{err: errors.New("denied")}, fakeSweeper{})
	w, body := check(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body.Services.S3)
}

func TestCheckSweeperInformational(t *testing.T) {
	// A stopped sweeper is reported but does not fail the check.
	h := NewHandler(fakePinger{}, fakeBucket{}, fakeSweeper{running: false})
	w, body := check(t, h)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stopped", body.Services.Sweeper)
}

func TestCheckNilDependencies(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	w, body := check(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body.Services.Database)
	assert.Equal(t, "unhealthy", body.Services.S3)
	assert.Equal(t, "stopped", body.Services.Sweeper)
}
