package media

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const MaxImageBytes = 5 << 20

var (
	ErrBadEncoding = errors.New("image is not valid base64")
	ErrTooLarge    = errors.New("image exceeds the 5MB limit")
	ErrNotImage    = errors.New("payload is not an image")
)

// Store is an external asset host. Upload returns the public URL of the new
// asset; Delete takes that same URL.
type Store interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeImage turns a base64 payload, optionally wrapped in a data URI, into
// raw bytes and checks that they really are an image.
func DecodeImage(encoded string) (Image, error) {
	s := strings.TrimSpace(encoded)
	if strings.HasPrefix(s, "data:") {
		i := strings.IndexByte(s, ',')
		if i < 0 {
			return Image{}, ErrBadEncoding
		}
		s = s[i+1:]
	}
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return Image{}, ErrBadEncoding
	}
	if base64.StdEncoding.DecodedLen(len(s)) > MaxImageBytes+3 {
		return Image{}, ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return Image{}, ErrBadEncoding
		}
	}
	if len(data) > MaxImageBytes {
		return Image{}, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Image{}, ErrNotImage
	}

	return Image{Data: data, ContentType: mt.String(), Extension: mt.Extension()}, nil
}

func extensionFor(contentType string) string {
	if mt := mimetype.Lookup(contentType); mt != nil {
		return mt.Extension()
	}
	return ""
}
