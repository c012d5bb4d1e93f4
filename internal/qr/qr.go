// Package qr builds QR codes that encode the calculator page address.
package qr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// ServiceEndpoint is the external QR image rendering service.
	ServiceEndpoint = "https://chart.googleapis.com/chart"
	// DefaultSize is the edge length of a QR image in pixels.
	DefaultSize = 300
	// DefaultFilename is the suggested download name of the page QR image.
	DefaultFilename = "dr-ayisha-page-qr.png"
)

// Mode selects where QR images come from.
type Mode string

const (
	// ModeLocal encodes QR images in process.
	ModeLocal Mode = "local"
	// ModeRemote points the page at ServiceEndpoint.
	ModeRemote Mode = "remote"
)

// ParseMode validates a QR mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLocal, ModeRemote:
		return m, nil
	default:
		return "", fmt.Errorf("qr mode must be %q or %q, got %q", ModeLocal, ModeRemote, s)
	}
}

// Reference is the QR code of one page load: the encoded page address and
// the image source showing it.
type Reference struct {
	PageURL  string
	ImageURL string
}

// ServiceURL returns the external service image URL encoding pageURL at the
// given edge size.
func ServiceURL(pageURL string, size int) string {
	if size <= 0 {
		size = DefaultSize
	}
	dim := strconv.Itoa(size)
	return ServiceEndpoint + "?cht=qr&chs=" + dim + "x" + dim + "&chl=" + EncodeURIComponent(pageURL) + "&choe=UTF-8"
}

// NewReference builds the reference for pageURL. In remote mode the image
// comes from ServiceURL, otherwise from localImage.
func NewReference(mode Mode, pageURL, localImage string, size int) Reference {
	ref := Reference{PageURL: pageURL, ImageURL: localImage}
	if mode == ModeRemote {
		ref.ImageURL = ServiceURL(pageURL, size)
	}
	return ref
}

// EncodeURIComponent percent-encodes s leaving only letters, digits and
// - _ . ! ~ * ' ( ) unescaped, matching the browser function of the same name.
func EncodeURIComponent(s string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	return uriComponentUnescaper.Replace(escaped)
}

var uriComponentUnescaper = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// PNG encodes content as a square QR code PNG of size pixels.
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return png, nil
}

// Terminal renders content as a QR code made of block characters.
func Terminal(content string) (string, error) {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return code.ToSmallString(false), nil
}
