package models

import "time"

// Role identifies which stored object an access URL points at.
type Role string

const (
	RoleVideo     Role = "video"
	RoleQR        Role = "qr"
	RoleThumbnail Role = "thumbnail"
)

// AllRoles lists every object role a record can carry.
var AllRoles = []Role{RoleVideo, RoleQR, RoleThumbnail}

// VideoRecord is one uploaded lecture: its storage keys, its time-limited
// access URLs, and the metadata shown on the watch page.
type VideoRecord struct {
	GroupID         string `json:"group_id"`
	GroupName       string `json:"group_name"`
	MainCategory    string `json:"main_category"`
	SubCategory     string `json:"sub_category"`
	SubSubCategory  string `json:"sub_sub_category"`
	Runtime         string `json:"time"` // display string, e.g. "12:05"
	DurationSeconds int    `json:"duration_seconds"`
	Level           string `json:"level"`
	Tag             string `json:"tag"`

	VideoKey     string `json:"video_key"`
	ThumbnailKey string `json:"thumbnail_key,omitempty"`
	QRKey        string `json:"qr_key,omitempty"`

	VideoURL     string `json:"video_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	QRURL        string `json:"qr_url,omitempty"`

	// QRLink is the deep link encoded in the QR image; QRURL is the signed
	// URL of the rendered image itself.
	QRLink     string `json:"qr_link,omitempty"`
	UploadDate string `json:"upload_date"` // YYYYMMDD

	// Audit metadata for the last URL regeneration. Never consulted for
	// expiry decisions; the URL's own signature parameters are authoritative.
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
	RefreshReason   string     `json:"refresh_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KeyFor returns the storage key for a role, or "" when the record has no
// such object.
func (v *VideoRecord) KeyFor(role Role) string {
	switch role {
	case RoleVideo:
		return v.VideoKey
	case RoleQR:
		return v.QRKey
	case RoleThumbnail:
		return v.ThumbnailKey
	}
	return ""
}

// URLFor returns the current access URL for a role, or "" when absent.
func (v *VideoRecord) URLFor(role Role) string {
	switch role {
	case RoleVideo:
		return v.VideoURL
	case RoleQR:
		return v.QRURL
	case RoleThumbnail:
		return v.ThumbnailURL
	}
	return ""
}

// SetURL stores a freshly issued access URL for a role.
func (v *VideoRecord) SetURL(role Role, url string) {
	switch role {
	case RoleVideo:
		v.VideoURL = url
	case RoleQR:
		v.QRURL = url
	case RoleThumbnail:
		v.ThumbnailURL = url
	}
}
