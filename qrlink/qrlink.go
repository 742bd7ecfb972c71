// Package qrlink builds the guest-facing menu URLs for physical
// tables and renders them as QR code images.
package qrlink

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Builder constructs menu URLs under a public base, e.g.
// "https://menu.example.com".
type Builder struct {
	BaseURL string
}

// TableURL returns the guest menu URL for a table:
// <base>/<orgSlug>/<venueSlug>?table=<tableID>.
func (b Builder) TableURL(orgSlug, venueSlug, tableID string) (string, error) {
	if b.BaseURL == "" {
		return "", fmt.Errorf("empty base URL")
	}
	if orgSlug == "" || venueSlug == "" {
		return "", fmt.Errorf("org and venue slugs are required")
	}
	u, err := url.Parse(strings.TrimRight(b.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	u = u.JoinPath(orgSlug, venueSlug)
	if tableID != "" {
		q := u.Query()
		q.Set("table", tableID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Options controls QR rendering.
type Options struct {
	// Size is the side length in pixels. Zero means 256.
	Size int
	// Level is the error correction level; the zero value is
	// qrcode.Low.
	Level qrcode.RecoveryLevel
}

// EncodePNG renders the URL as a PNG QR code.
func EncodePNG(link string, opts Options) ([]byte, error) {
	if link == "" {
		return nil, fmt.Errorf("empty link")
	}
	size := opts.Size
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(link, opts.Level, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// WritePNG renders the URL and writes the PNG to path.
func WritePNG(link, path string, opts Options) error {
	png, err := EncodePNG(link, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("write qr file: %w", err)
	}
	return nil
}
