package scan

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/yungbote/ecoscan-backend/internal/domain"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxImageBytes matches the 10MB cap the scan page enforces before upload.
const DefaultMaxImageBytes int64 = 10 * 1024 * 1024

// Input errors. Their messages are shown to the client as-is.
var (
	ErrNoImage       = errors.New("No image data provided")
	ErrInvalidImage  = errors.New("Invalid image data")
	ErrImageTooLarge = errors.New("Image exceeds maximum size")
)

const mimeUnknown = "application/octet-stream"

// DecodeImagePayload accepts raw base64 or a data URL ("<prefix>,<base64>").
// The payload is otherwise opaque: Format and MimeType are a best-effort sniff and
// stay empty / application/octet-stream for formats the decoders don't know
// (HEIC, ICO, SVG, ...). Providers decide what they accept.
func DecodeImagePayload(raw string, maxBytes int64) (domain.ImagePayload, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	data := strings.TrimSpace(raw)
	if data == "" {
		return domain.ImagePayload{}, ErrNoImage
	}
	if i := strings.IndexByte(data, ','); i >= 0 {
		data = data[i+1:]
	}
	data = stripSpace(data)
	if data == "" {
		return domain.ImagePayload{}, ErrNoImage
	}
	// base64 grows input by 4/3; reject before allocating the decode buffer.
	if int64(len(data)) > maxBytes/3*4+8 {
		return domain.ImagePayload{}, ErrImageTooLarge
	}

	b, err := decodeBase64(data)
	if err != nil {
		return domain.ImagePayload{}, ErrInvalidImage
	}
	if len(b) == 0 {
		return domain.ImagePayload{}, ErrInvalidImage
	}
	if int64(len(b)) > maxBytes {
		return domain.ImagePayload{}, ErrImageTooLarge
	}

	format := ""
	if _, f, err := image.DecodeConfig(bytes.NewReader(b)); err == nil {
		format = f
	}

	return domain.ImagePayload{
		Bytes:    b,
		Base64:   base64.StdEncoding.EncodeToString(b),
		Format:   format,
		MimeType: mimeForFormat(format),
	}, nil
}

// stripSpace drops the line breaks and padding spaces of MIME-wrapped base64.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
}

func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func mimeForFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return mimeUnknown
	}
}
