// Package refresh keeps stored pre-signed URLs usable: it decides when a URL
// is about to expire, reissues it from object storage, and persists the
// replacement. The URL's own signature parameters are the only authority on
// freshness.
package refresh

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// amzDateLayout matches the X-Amz-Date query parameter (UTC, literal Z).
const amzDateLayout = "20060102T150405Z"

// ParseSignature extracts the issue time and validity window from a
// pre-signed URL's X-Amz-Date and X-Amz-Expires query parameters.
func ParseSignature(rawURL string) (issuedAt time.Time, validFor time.Duration, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()

	dateStr := q.Get("X-Amz-Date")
	if dateStr == "" {
		return time.Time{}, 0, fmt.Errorf("missing X-Amz-Date")
	}
	issuedAt, err = time.Parse(amzDateLayout, dateStr)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parse X-Amz-Date %q: %w", dateStr, err)
	}

	expiresStr := q.Get("X-Amz-Expires")
	if expiresStr == "" {
		return time.Time{}, 0, fmt.Errorf("missing X-Amz-Expires")
	}
	seconds, err := strconv.Atoi(expiresStr)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parse X-Amz-Expires %q: %w", expiresStr, err)
	}

	return issuedAt, time.Duration(seconds) * time.Second, nil
}

// URLExpired reports whether rawURL is expired or expires within margin.
// URLs whose signature parameters are missing or unparsable count as expired,
// so a malformed stored URL gets replaced rather than served.
func URLExpired(rawURL string, margin time.Duration) bool {
	return urlExpiredAt(rawURL, margin, time.Now().UTC())
}

func urlExpiredAt(rawURL string, margin time.Duration, now time.Time) bool {
	issuedAt, validFor, err := ParseSignature(rawURL)
	if err != nil {
		return true
	}
	deadline := issuedAt.Add(validFor)
	return !now.Add(margin).Before(deadline)
}
