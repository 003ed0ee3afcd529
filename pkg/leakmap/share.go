package leakmap

import (
	"encoding/base64"
	"fmt"
	"html/template"

	qrcode "github.com/skip2/go-qrcode"
)

// ShareBadgeSize is the edge length of the QR code in pixels.
const ShareBadgeSize = 128

// ShareBadge is a QR code pointing at the published map, kept inline as a
// PNG data URI so the document needs no side files.
type ShareBadge struct {
	URL     string
	DataURI template.URL
}

// NewShareBadge encodes url as a medium-recovery QR PNG.
func NewShareBadge(url string) (*ShareBadge, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, ShareBadgeSize)
	if err != nil {
		return nil, fmt.Errorf("encode share qr: %w", err)
	}
	return &ShareBadge{
		URL:     url,
		DataURI: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
	}, nil
}
