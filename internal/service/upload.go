package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/captionly/internal/domain"
)

const (
	UploadBucket     = "img-store"
	uploadPrefix     = "uploads/"
	uploadCache      = "3600"
	storageAudience  = "storage"
	DefaultMaxUpload = 5 * 1024 * 1024
	defaultSignedTTL = time.Hour
	msgNoFile        = "No file provided"
	msgFileTooLarge  = "File size too large. Maximum size is 5MB"
	msgInvalidType   = "Invalid file type. Only JPEG and PNG files are allowed"
)

// uploadExtensions maps each accepted content type to the extension its
// objects are stored under.
var uploadExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
}

// Upload is the result of a successful upload.
type Upload struct {
	Object    *domain.StoredObject
	SignedURL string
	ExpiresAt time.Time
}

// UploadService validates image uploads, stores them and hands out
// time-limited signed URLs.
type UploadService struct {
	objects   domain.ObjectStore
	secret    []byte
	maxBytes  int64
	signedTTL time.Duration
	now       func() time.Time
}

// NewUploadService creates a new UploadService. Zero maxBytes or signedTTL
// select the defaults of 5MB and one hour.
func NewUploadService(objects domain.ObjectStore, signingSecret string, maxBytes int64, signedTTL time.Duration) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUpload
	}
	if signedTTL <= 0 {
		signedTTL = defaultSignedTTL
	}
	return &UploadService{
		objects:   objects,
		secret:    []byte(signingSecret),
		maxBytes:  maxBytes,
		signedTTL: signedTTL,
		now:       time.Now,
	}
}

// Upload validates and stores an image owned by identityID. The content
// type is detected from the bytes; client-supplied names and types are
// never trusted.
func (s *UploadService) Upload(ctx context.Context, identityID string, data []byte) (*Upload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, msgNoFile)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, msgFileTooLarge)
	}
	contentType := http.DetectContentType(data)
	ext, ok := uploadExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, msgInvalidType)
	}

	obj := &domain.StoredObject{
		Bucket:       UploadBucket,
		Path:         uploadPrefix + uuid.NewString() + ext,
		OwnerID:      identityID,
		ContentType:  contentType,
		CacheControl: uploadCache,
	}
	signed, expires, err := s.SignURL(obj.Bucket, obj.Path)
	if err != nil {
		return nil, fmt.Errorf("sign url: %w", err)
	}
	if err := s.objects.Put(ctx, obj, data); err != nil {
		return nil, fmt.Errorf("save object: %w", err)
	}

	return &Upload{Object: obj, SignedURL: signed, ExpiresAt: expires}, nil
}

// SignURL returns a relative URL granting read access to bucket/objectPath
// until the returned expiry.
func (s *UploadService) SignURL(bucket, objectPath string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.signedTTL)
	claims := jwt.RegisteredClaims{
		Subject:   bucket + "/" + objectPath,
		Audience:  jwt.ClaimStrings{storageAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	u := url.URL{
		Path:     "/storage/" + bucket + "/" + objectPath,
		RawQuery: url.Values{"token": {token}}.Encode(),
	}
	return u.String(), expires, nil
}

// Open verifies a signed URL token and returns the object it grants.
func (s *UploadService) Open(ctx context.Context, bucket, objectPath, token string) (*domain.StoredObject, []byte, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(storageAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, domain.ErrTokenExpired
		}
		return nil, nil, domain.ErrUnauthorized
	}
	if claims.Subject != bucket+"/"+objectPath {
		return nil, nil, domain.ErrUnauthorized
	}

	obj, data, err := s.objects.Get(ctx, bucket, objectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	return obj, data, nil
}
