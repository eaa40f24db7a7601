package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/xy-planning-network/portfolio"
)

const (
	// Static holds files shipped with the application.
	Static = "static"

	// Media holds files users upload.
	Media = "media"

	DefaultAccessKey = "minioadmin"
	DefaultSecretKey = "minioadmin"
	DefaultBucket    = "portfolio"
	DefaultEndpoint  = "http://minio:9000"
	DefaultRegion    = "us-east-1"
)

// Config holds the settings for connecting to a MinIO or S3 endpoint.
type Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Endpoint  string
	Region    string
}

// A Storage keeps files under one location, a key prefix, of a bucket.
//
// Files are public; their URLs are unsigned.
type Storage struct {
	client   *minio.Client
	bucket   string
	region   string
	location string
	endpoint *url.URL
}

// New constructs a *Storage for location in the bucket cfg names.
// Fields left empty in cfg fall back to the Default values.
//
// New does not reach the endpoint; EnsureBucket does.
func New(cfg Config, location string) (*Storage, error) {
	cfg = withDefaults(cfg)

	endpoint, err := url.ParseRequestURI(cfg.Endpoint)
	if err != nil || endpoint.Host == "" {
		return nil, fmt.Errorf("%w: storage endpoint %q is not a URL", portfolio.ErrBadConfig, cfg.Endpoint)
	}

	client, err := minio.New(endpoint.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: endpoint.Scheme == "https",
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed creating storage client: %s", portfolio.ErrBadConfig, err)
	}

	return &Storage{
		client:   client,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		location: strings.Trim(location, "/"),
		endpoint: endpoint,
	}, nil
}

func withDefaults(cfg Config) Config {
	if cfg.AccessKey == "" {
		cfg.AccessKey = DefaultAccessKey
	}

	if cfg.SecretKey == "" {
		cfg.SecretKey = DefaultSecretKey
	}

	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	return cfg
}

// In returns a *Storage for another location of the same bucket.
func (s *Storage) In(location string) *Storage {
	cp := *s
	cp.location = strings.Trim(location, "/")

	return &cp
}

// Location is the key prefix of the Storage.
func (s *Storage) Location() string { return s.location }

// Save uploads the size bytes of r under name, replacing any file there,
// and returns the key to retrieve it by.
func (s *Storage) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	key, err := cleanKey(name)
	if err != nil {
		return "", err
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.object(key), r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("storage: failed saving %s: %w", key, translate(err))
	}

	return key, nil
}

// Delete removes the file under key.
// Deleting a file that does not exist succeeds.
func (s *Storage) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucket, s.object(key), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage: failed deleting %s: %w", key, translate(err))
	}

	return nil
}

// URL is the public address of the file under key.
func (s *Storage) URL(key string) string {
	u := *s.endpoint
	u.Path = "/" + path.Join(s.bucket, s.object(key))

	return u.String()
}

// EnsureBucket creates the bucket if it does not exist
// and lets anyone read its objects.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("storage: failed checking bucket %s: %w", s.bucket, translate(err))
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("storage: failed making bucket %s: %w", s.bucket, translate(err))
		}
	}

	if err := s.client.SetBucketPolicy(ctx, s.bucket, PublicReadPolicy(s.bucket)); err != nil {
		return fmt.Errorf("storage: failed setting policy on bucket %s: %w", s.bucket, translate(err))
	}

	return nil
}

// PublicReadPolicy is the bucket policy letting anyone get the objects of bucket.
func PublicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

func (s *Storage) object(key string) string {
	if s.location == "" {
		return key
	}

	return s.location + "/" + key
}

// cleanKey normalizes name into a key relative to the location,
// refusing names that climb out of it.
func cleanKey(name string) (string, error) {
	key := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	if key == "" || key == "." || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q is not a storage key", portfolio.ErrNotValid, name)
	}

	return key, nil
}

func translate(err error) error {
	er := minio.ToErrorResponse(err)
	switch {
	case er.Code == "NoSuchKey", er.Code == "NoSuchBucket", er.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", portfolio.ErrNotFound, err)
	case er.Code == "AccessDenied", er.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", portfolio.ErrForbidden, err)
	default:
		return fmt.Errorf("%w: %s", portfolio.ErrUnexpected, err)
	}
}
