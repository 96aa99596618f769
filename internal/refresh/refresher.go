package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lecturelink/backend/internal/models"
)

// Refresh reasons recorded alongside reissued URLs.
const (
	ReasonManual     = "manual"
	ReasonBackground = "background_refresh"
)

var (
	// ErrStorageUnavailable wraps failures to mint a replacement URL.
	ErrStorageUnavailable = errors.New("object storage unavailable")
	// ErrPersistenceFailure wraps failures to save reissued URLs. The fresh
	// URLs are still set on the record and usable for the current request.
	ErrPersistenceFailure = errors.New("url persistence failed")
)

// Issuer mints pre-signed URLs for object keys.
type Issuer interface {
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// RecordStore persists reissued URLs with their audit fields.
type RecordStore interface {
	UpdateURLs(ctx context.Context, groupID string, urls map[models.Role]string, reason string, at time.Time) error
}

// Outcome reports what EnsureFresh did for one record.
type Outcome struct {
	// Issued holds the replacement URL per role that needed one.
	Issued map[models.Role]string
	// Persisted is true when all issued URLs were saved.
	Persisted bool
}

// Refresher reissues expiring pre-signed URLs and persists the replacements.
type Refresher struct {
	issuer   Issuer
	store    RecordStore
	validFor time.Duration
	group    singleflight.Group
	logger   *zap.Logger
}

// NewRefresher creates a Refresher. validFor is the validity of newly issued
// URLs (typically the presign expire setting).
func NewRefresher(issuer Issuer, store RecordStore, validFor time.Duration, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		issuer:   issuer,
		store:    store,
		validFor: validFor,
		logger:   logger,
	}
}

// EnsureFresh checks the given roles on rec and reissues any URL that is
// expired or expires within margin. Roles without an object key are skipped.
// All reissued URLs are set on rec and saved in a single update; when the
// save fails the URLs stay on rec so the caller can still serve them, and the
// returned error wraps ErrPersistenceFailure.
func (r *Refresher) EnsureFresh(ctx context.Context, rec *models.VideoRecord, roles []models.Role, margin time.Duration, reason string) (Outcome, error) {
	out := Outcome{Issued: make(map[models.Role]string)}

	var issueErr error
	for _, role := range roles {
		key := rec.KeyFor(role)
		if key == "" {
			continue
		}
		if current := rec.URLFor(role); current != "" && !URLExpired(current, margin) {
			continue
		}
		fresh, err := r.issue(ctx, rec.GroupID, role, key)
		if err != nil {
			issueErr = errors.Join(issueErr, fmt.Errorf("%s: %w", role, err))
			continue
		}
		rec.SetURL(role, fresh)
		out.Issued[role] = fresh
	}
	if issueErr != nil {
		issueErr = fmt.Errorf("%w: %v", ErrStorageUnavailable, issueErr)
	}
	if len(out.Issued) == 0 {
		return out, issueErr
	}

	now := time.Now().UTC()
	if err := r.store.UpdateURLs(ctx, rec.GroupID, out.Issued, reason, now); err != nil {
		r.logger.Warn("failed to persist refreshed urls",
			zap.String("group_id", rec.GroupID),
			zap.Int("roles", len(out.Issued)),
			zap.Error(err))
		return out, errors.Join(issueErr, fmt.Errorf("%w: %v", ErrPersistenceFailure, err))
	}
	rec.LastRefreshedAt = &now
	rec.RefreshReason = reason

	out.Persisted = true
	r.logger.Debug("refreshed urls",
		zap.String("group_id", rec.GroupID),
		zap.Int("roles", len(out.Issued)),
		zap.String("reason", reason))
	return out, issueErr
}

// issue mints one URL, collapsing concurrent requests for the same record and
// role into a single storage call.
func (r *Refresher) issue(ctx context.Context, groupID string, role models.Role, key string) (string, error) {
	v, err, _ := r.group.Do(groupID+"/"+string(role), func() (interface{}, error) {
		return r.issuer.SignedURL(ctx, key, r.validFor)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
