package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pontis/backend/internal/config"
	"github.com/pontis/backend/pkg/logger"
)

// Client wraps one S3-compatible object store (MinIO, Cloudflare R2 or
// AWS). The core only hands it keys and receives URLs; object bytes are
// never inspected here.
type Client struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

func NewClient(cfg config.StorageConfig) (*Client, error) {
	var creds *credentials.Credentials
	if cfg.AccessKey == "" {
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *Client) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("storage_upload_failed", err, map[string]interface{}{
			"key":          key,
			"size":         size,
			"content_type": contentType,
			"bucket":       s.bucket,
		})
	} else {
		logger.Info("storage_upload_success", map[string]interface{}{
			"key":    key,
			"size":   size,
			"bucket": s.bucket,
		})
	}
	return err
}

func (s *Client) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error("storage_delete_failed", err, map[string]interface{}{
			"key":    key,
			"bucket": s.bucket,
		})
	} else {
		logger.Info("storage_delete_success", map[string]interface{}{
			"key":    key,
			"bucket": s.bucket,
		})
	}
	return err
}

// PublicURL builds the browser-facing URL for a stored key.
func (s *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicBaseURL, strings.TrimLeft(key, "/"))
}

func (s *Client) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	urlValue, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return urlValue.String(), nil
}

func (s *Client) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", s.bucket, err)
	}
	return nil
}
