package service_test

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/captionly/internal/domain"
	"github.com/msomdec/captionly/internal/service"
)

func newTestUploads(t *testing.T) (*service.UploadService, domain.ObjectStore, string) {
	t.Helper()
	creds, _, db := newTestCredentials(t, false)
	identity, err := creds.SignUp(context.Background(), "uploader@example.com", "password123", callbackURL)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	objects := db.Objects()
	return service.NewUploadService(objects, testJWTSecret, 0, time.Hour), objects, identity.ID
}

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR fake image bytes")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00 fake image bytes")
)

// failingObjects is an ObjectStore whose writes always fail.
type failingObjects struct {
	domain.ObjectStore
}

func (failingObjects) Put(context.Context, *domain.StoredObject, []byte) error {
	return errors.New("disk full")
}

func tokenFrom(t *testing.T, signed string) (string, string) {
	t.Helper()
	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	return strings.TrimPrefix(u.Path, "/storage/img-store/"), u.Query().Get("token")
}

func TestUploadService_UploadAndOpen(t *testing.T) {
	uploads, _, ownerID := newTestUploads(t)
	ctx := context.Background()
	data := pngBytes

	up, err := uploads.Upload(ctx, ownerID, data)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if up.Object.Bucket != service.UploadBucket {
		t.Fatalf("bucket = %q, want %q", up.Object.Bucket, service.UploadBucket)
	}
	if !strings.HasPrefix(up.Object.Path, "uploads/") || !strings.HasSuffix(up.Object.Path, ".png") {
		t.Fatalf("unexpected object path %q", up.Object.Path)
	}
	if !strings.HasPrefix(up.SignedURL, "/storage/img-store/uploads/") {
		t.Fatalf("unexpected signed url %q", up.SignedURL)
	}

	objectPath, token := tokenFrom(t, up.SignedURL)
	obj, got, err := uploads.Open(ctx, service.UploadBucket, objectPath, token)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("opened bytes differ from uploaded bytes")
	}
	if obj.ContentType != "image/png" || obj.OwnerID != ownerID {
		t.Fatalf("unexpected object metadata %+v", obj)
	}
}

func TestUploadService_UniquePaths(t *testing.T) {
	uploads, objects, ownerID := newTestUploads(t)
	ctx := context.Background()

	a, err := uploads.Upload(ctx, ownerID, jpegBytes)
	if err != nil {
		t.Fatalf("Upload a: %v", err)
	}
	b, err := uploads.Upload(ctx, ownerID, jpegBytes)
	if err != nil {
		t.Fatalf("Upload b: %v", err)
	}
	if a.Object.Path == b.Object.Path {
		t.Fatal("two uploads of the same bytes should get distinct paths")
	}

	n, err := objects.CountByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("CountByOwner: %v", err)
	}
	if n != 2 {
		t.Fatalf("CountByOwner = %d, want 2", n)
	}
}

func TestUploadService_Rejections(t *testing.T) {
	uploads, _, ownerID := newTestUploads(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		data    []byte
		message string
	}{
		{"empty", nil, "No file provided"},
		{"too large", append(slices.Clone(pngBytes), make([]byte, service.DefaultMaxUpload)...), "File size too large. Maximum size is 5MB"},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), "Invalid file type. Only JPEG and PNG files are allowed"},
		{"text", []byte("hello"), "Invalid file type. Only JPEG and PNG files are allowed"},
		{"html", []byte("<!DOCTYPE html><html><script>alert(1)</script></html>"), "Invalid file type. Only JPEG and PNG files are allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uploads.Upload(ctx, ownerID, tt.data)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Fatalf("error %q should contain %q", err, tt.message)
			}
		})
	}
}

func TestUploadService_OpenRejectsBadTokens(t *testing.T) {
	uploads, _, ownerID := newTestUploads(t)
	ctx := context.Background()

	up, err := uploads.Upload(ctx, ownerID, jpegBytes)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	objectPath, token := tokenFrom(t, up.SignedURL)

	if _, _, err := uploads.Open(ctx, service.UploadBucket, objectPath, "garbage"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("garbage token: expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := uploads.Open(ctx, service.UploadBucket, "uploads/other.jpg", token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("token for another path: expected ErrUnauthorized, got %v", err)
	}

	other := service.NewUploadService(nil, "a-different-secret", 0, 0)
	forgedURL, _, err := other.SignURL(service.UploadBucket, objectPath)
	if err != nil {
		t.Fatalf("SignURL: %v", err)
	}
	_, forgedToken := tokenFrom(t, forgedURL)
	if _, _, err := uploads.Open(ctx, service.UploadBucket, objectPath, forgedToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("token signed with another secret: expected ErrUnauthorized, got %v", err)
	}
}

func TestUploadService_ExtensionFromContent(t *testing.T) {
	uploads, _, ownerID := newTestUploads(t)

	up, err := uploads.Upload(context.Background(), ownerID, jpegBytes)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if up.Object.ContentType != "image/jpeg" || !strings.HasSuffix(up.Object.Path, ".jpg") {
		t.Fatalf("unexpected object %+v", up.Object)
	}
}

func TestUploadService_StoreFailure(t *testing.T) {
	uploads := service.NewUploadService(failingObjects{}, testJWTSecret, 0, time.Hour)

	up, err := uploads.Upload(context.Background(), "owner", pngBytes)
	if err == nil || up != nil {
		t.Fatalf("expected store failure, got %+v, %v", up, err)
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("store failure should not be reported as invalid input: %v", err)
	}
}
