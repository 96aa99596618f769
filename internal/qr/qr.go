// Package qr renders lecture deep links as QR code images.
package qr

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// Size is the side length in pixels of generated QR images.
const Size = 600

// Encode renders link as a PNG QR code. Error correction is set to the
// highest level so printed codes survive logos and wear.
func Encode(link string) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Highest, Size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
