package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"goomer/internal/metrics"
)

const DefaultFolder = "goomer-reviews"

type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type Cloudinary struct {
	api    cloudinaryAPI
	folder string
}

func NewCloudinary(cld *cloudinary.Cloudinary, folder string) *Cloudinary {
	return newCloudinary(&cld.Upload, folder)
}

func newCloudinary(a cloudinaryAPI, folder string) *Cloudinary {
	if folder == "" {
		folder = DefaultFolder
	}
	return &Cloudinary{api: a, folder: folder}
}

func (c *Cloudinary) Upload(ctx context.Context, data []byte, _ string) (secureURL string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveMedia("cloudinary", "upload", err, time.Since(start)) }()

	resp, err := c.api.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:    c.folder,
		PublicID:  uuid.NewString(),
		Overwrite: api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("cloudinary upload: empty secure_url")
	}
	return resp.SecureURL, nil
}

func (c *Cloudinary) Delete(ctx context.Context, photoURL string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveMedia("cloudinary", "delete", err, time.Since(start)) }()

	publicID, err := PublicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	res, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("failed to delete photo from Cloudinary: %s", res.Error.Message)
	}
	if res.Result != "ok" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, res.Result)
	}
	return nil
}

var (
	versionSegment        = regexp.MustCompile(`^v\d+$`)
	transformationSegment = regexp.MustCompile(`^[a-z]{1,3}_`)
)

func isTransformation(segment string) bool {
	return strings.Contains(segment, ",") || transformationSegment.MatchString(segment)
}

// PublicIDFromURL extracts the public ID from a Cloudinary delivery URL:
// everything after "upload/" and the optional transformation and version
// segments, without the file extension.
func PublicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	parts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	start := -1
	for i, part := range parts {
		if part == "upload" {
			start = i + 1
			break
		}
	}
	if start < 0 || start >= len(parts) {
		return "", errors.New("failed to extract public ID from URL")
	}

	rest := parts[start:]
	versioned := false
	for i, part := range rest {
		if versionSegment.MatchString(part) && i+1 < len(rest) {
			rest = rest[i+1:]
			versioned = true
			break
		}
	}
	// without a version the transformations sit directly before the folder
	for !versioned && len(rest) > 1 && isTransformation(rest[0]) {
		rest = rest[1:]
	}

	last := len(rest) - 1
	rest[last] = strings.TrimSuffix(rest[last], path.Ext(rest[last]))
	id := strings.Join(rest, "/")
	if id == "" {
		return "", errors.New("failed to extract public ID from URL")
	}
	return id, nil
}
