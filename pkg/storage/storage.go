// Package storage uploads user avatars to S3 (or an S3-compatible
// service) and returns their public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// MaxAvatarSize is the hard cap on uploaded avatar bytes.
const MaxAvatarSize = 2 << 20 // 2 MiB

var (
	ErrInvalidConfig      = errors.New("bucket and region are required")
	ErrEmptyFile          = errors.New("uploaded file is empty")
	ErrFileTooLarge       = errors.New("file exceeds the 2 MiB avatar limit")
	ErrUnsupportedType    = errors.New("unsupported image type")
	ErrAccessDenied       = errors.New("object storage access denied")
	ErrServiceUnavailable = errors.New("object storage unavailable")
	ErrOperationTimeout   = errors.New("object storage operation timed out")
)

// Content types accepted for avatars, mapped to the stored extension.
// The type is sniffed from the bytes; the client-declared type is ignored.
var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// S3Client is the subset of the S3 API the avatar store uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config contains S3 settings for the avatar store.
type Config struct {
	Bucket         string `env:"S3_BUCKET,required"`
	Region         string `env:"S3_REGION,required"`
	AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"S3_SECRET_KEY"`
	Endpoint       string `env:"S3_ENDPOINT"`        // for S3-compatible services
	BaseURL        string `env:"S3_BASE_URL"`        // public URL base, derived when empty
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE"` // for MinIO and friends
}

// AvatarStore validates and uploads avatar images.
type AvatarStore struct {
	client  S3Client
	bucket  string
	baseURL string
	now     func() time.Time
}

type Option func(*AvatarStore)

// WithS3Client sets a pre-configured client, bypassing AWS config loading.
func WithS3Client(client S3Client) Option {
	return func(s *AvatarStore) { s.client = client }
}

// WithClock overrides the time source used in object keys. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *AvatarStore) { s.now = now }
}

// New creates the avatar store. Without WithS3Client it loads AWS
// configuration from the environment plus the static credentials in cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*AvatarStore, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	s := &AvatarStore{bucket: cfg.Bucket, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		awsOptions := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}

		awsConfig, err := awsconfig.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}

		s.client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Endpoint != "" {
			baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	s.baseURL = strings.TrimSuffix(baseURL, "/") + "/"

	return s, nil
}

// ValidateAvatar checks size and sniffed content type, returning the
// extension to store the file under. Validation happens before any bytes
// reach the object store.
func ValidateAvatar(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if len(data) > MaxAvatarSize {
		return "", ErrFileTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return ext, nil
}

// Upload validates the image and writes it under
// avatars/{userID}-{epochMillis}.{ext}, returning the public URL.
func (s *AvatarStore) Upload(ctx context.Context, userID uuid.UUID, data []byte) (string, error) {
	ext, err := ValidateAvatar(data)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("avatars/%s-%d.%s", userID, s.now().UnixMilli(), ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return "", classifyError(err, "upload avatar")
	}

	return s.baseURL + key, nil
}

// Delete removes a previously uploaded avatar by its object key.
func (s *AvatarStore) Delete(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classifyError(err, "delete avatar")
	}
	return nil
}

func classifyError(err error, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrOperationTimeout, operation)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied":
			return fmt.Errorf("%w: %s", ErrAccessDenied, operation)
		case "SlowDown", "ServiceUnavailable":
			return fmt.Errorf("%w: %s", ErrServiceUnavailable, operation)
		}
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
