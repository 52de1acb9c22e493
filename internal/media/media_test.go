package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/minio/minio-go/v7"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestDecodeImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngHeader)

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"plain base64", encoded, nil},
		{"data uri", "data:image/png;base64," + encoded, nil},
		{"unpadded", strings.TrimRight(encoded, "="), nil},
		{"wrapped lines", encoded[:10] + "\n" + encoded[10:], nil},
		{"empty", "", ErrBadEncoding},
		{"data uri without comma", "data:image/png;base64", ErrBadEncoding},
		{"garbage", "!!!not base64!!!", ErrBadEncoding},
		{"text payload", base64.StdEncoding.EncodeToString([]byte("hello, this is plain text")), ErrNotImage},
		{"just over the limit", base64.StdEncoding.EncodeToString(append(append([]byte{}, pngHeader...), make([]byte, MaxImageBytes)...)), ErrTooLarge},
		{"far over the limit", strings.Repeat("A", 2*MaxImageBytes), ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeImage(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.ContentType != "image/png" || img.Extension != ".png" {
				t.Fatalf("got %s %s", img.ContentType, img.Extension)
			}
			if !bytes.Equal(img.Data, pngHeader) {
				t.Fatalf("decoded bytes differ")
			}
		})
	}
}

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/goomer-reviews/abc-123.jpg", "goomer-reviews/abc-123", false},
		{"https://res.cloudinary.com/demo/image/upload/c_fill,w_200/v17/goomer-reviews/abc.png", "goomer-reviews/abc", false},
		{"https://res.cloudinary.com/demo/image/upload/goomer-reviews/abc.webp", "goomer-reviews/abc", false},
		{"https://res.cloudinary.com/demo/image/upload/c_fill,w_200/goomer-reviews/x.jpg", "goomer-reviews/x", false},
		{"https://res.cloudinary.com/demo/image/upload/w_200/h_100/goomer-reviews/x.jpg", "goomer-reviews/x", false},
		{"https://res.cloudinary.com/demo/image/upload/q_auto/sample.jpg", "sample", false},
		{"https://res.cloudinary.com/demo/image/upload/sample", "sample", false},
		{"https://example.com/not/cloudinary.jpg", "", true},
		{"https://res.cloudinary.com/demo/image/upload/", "", true},
		{"://bad", "", true},
	}

	for _, tt := range tests {
		got, err := PublicIDFromURL(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %q", tt.url, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%s: got %q, %v want %q", tt.url, got, err, tt.want)
		}
	}
}

type fakeCloudinary struct {
	uploads   []uploader.UploadParams
	destroyed []string
	uploadErr error
	result    string
}

func (f *fakeCloudinary) Upload(_ context.Context, _ interface{}, p uploader.UploadParams) (*uploader.UploadResult, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads = append(f.uploads, p)
	return &uploader.UploadResult{SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/" + p.Folder + "/" + p.PublicID + ".png"}, nil
}

func (f *fakeCloudinary) Destroy(_ context.Context, p uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = append(f.destroyed, p.PublicID)
	res := &uploader.DestroyResult{Result: "ok"}
	if f.result != "" {
		res.Result = f.result
	}
	return res, nil
}

func TestCloudinaryUploadAndDelete(t *testing.T) {
	fake := &fakeCloudinary{}
	c := newCloudinary(fake, "")

	u, err := c.Upload(context.Background(), pngHeader, "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(fake.uploads) != 1 || fake.uploads[0].Folder != DefaultFolder || fake.uploads[0].PublicID == "" {
		t.Fatalf("unexpected upload params: %+v", fake.uploads)
	}
	if fake.uploads[0].Overwrite == nil || *fake.uploads[0].Overwrite {
		t.Fatalf("uploads must not overwrite existing assets")
	}

	if err := c.Delete(context.Background(), u); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if want := DefaultFolder + "/" + fake.uploads[0].PublicID; fake.destroyed[0] != want {
		t.Fatalf("destroyed %q want %q", fake.destroyed[0], want)
	}

	fake.result = "not found"
	if err := c.Delete(context.Background(), u); err == nil {
		t.Fatalf("expected error when destroy does not report ok")
	}
}

func TestCloudinaryErrors(t *testing.T) {
	c := newCloudinary(&fakeCloudinary{uploadErr: errors.New("network down")}, "x")
	if _, err := c.Upload(context.Background(), pngHeader, "image/png"); err == nil {
		t.Fatalf("expected upload error")
	}

	c = newCloudinary(&errorBodyCloudinary{}, "x")
	if _, err := c.Upload(context.Background(), pngHeader, "image/png"); err == nil {
		t.Fatalf("expected error from response body")
	}
}

type errorBodyCloudinary struct{ fakeCloudinary }

func (e *errorBodyCloudinary) Upload(context.Context, interface{}, uploader.UploadParams) (*uploader.UploadResult, error) {
	return &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}, nil
}

type fakeMinIO struct {
	objects  map[string][]byte
	buckets  map[string]bool
	policies map[string]string
}

func newFakeMinIO() *fakeMinIO {
	return &fakeMinIO{objects: map[string][]byte{}, buckets: map[string]bool{}, policies: map[string]string{}}
}

func (f *fakeMinIO) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	b, _ := io.ReadAll(r)
	f.objects[bucket+"/"+key] = b
	return minio.UploadInfo{Bucket: bucket, Key: key}, nil
}

func (f *fakeMinIO) RemoveObject(_ context.Context, bucket, key string, _ minio.RemoveObjectOptions) error {
	if _, ok := f.objects[bucket+"/"+key]; !ok {
		return errors.New("no such key")
	}
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeMinIO) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeMinIO) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func (f *fakeMinIO) SetBucketPolicy(_ context.Context, bucket, policy string) error {
	f.policies[bucket] = policy
	return nil
}

func TestMinIO(t *testing.T) {
	fake := newFakeMinIO()
	m := newMinIO(fake, MinIOConfig{Endpoint: "localhost:9000", Bucket: "reviews"})
	ctx := context.Background()

	if err := m.EnsureBucket(ctx); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}
	if !fake.buckets["reviews"] || !strings.Contains(fake.policies["reviews"], "arn:aws:s3:::reviews/*") {
		t.Fatalf("bucket not created with public policy")
	}

	u, err := m.Upload(ctx, pngHeader, "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(u, "http://localhost:9000/reviews/"+DefaultFolder+"/") || !strings.HasSuffix(u, ".png") {
		t.Fatalf("unexpected url %s", u)
	}
	if len(fake.objects) != 1 {
		t.Fatalf("expected one object, got %d", len(fake.objects))
	}

	if err := m.Delete(ctx, u); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fake.objects) != 0 {
		t.Fatalf("object not removed")
	}
	if err := m.Delete(ctx, "https://elsewhere.example.com/x.png"); err == nil {
		t.Fatalf("expected error for foreign url")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory("")
	u, err := m.Upload(context.Background(), pngHeader, "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected one asset")
	}
	if err := m.Delete(context.Background(), u); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.Delete(context.Background(), u); err == nil {
		t.Fatalf("second delete should fail")
	}
}
