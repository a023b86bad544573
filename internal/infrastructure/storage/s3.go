package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
)

type s3Storage struct {
	client *minio.Client
	bucket string
	prefix string
	signer *LinkSigner
}

// NewS3Storage connects to an S3 compatible endpoint. With a nil signer,
// links are S3 presigned URLs.
func NewS3Storage(cfg *config.StorageConfig, signer *LinkSigner) (Storage, error) {
	if cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}

	creds := credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, "")
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check s3 bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3Bucket, minio.MakeBucketOptions{Region: cfg.S3Region}); err != nil {
			zlog.Logger.Warn().Err(err).Str("bucket", cfg.S3Bucket).Msg("unable to create bucket, ensure it exists and credentials are correct")
		} else {
			zlog.Logger.Info().Str("bucket", cfg.S3Bucket).Msg("created s3 bucket")
		}
	}

	return &s3Storage{
		client: client,
		bucket: cfg.S3Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		signer: signer,
	}, nil
}

func (s *s3Storage) objectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *s3Storage) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if reader == nil {
		zlog.Logger.Error().Str("key", key).Msg("reader is nil")
		return fmt.Errorf("reader is nil")
	}

	objectName := s.objectName(key)
	info, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("failed to put object to s3")
		return fmt.Errorf("put object %s: %w", objectName, err)
	}

	zlog.Logger.Info().
		Str("object", objectName).
		Str("etag", info.ETag).
		Int64("bytes", info.Size).
		Msg("object saved to s3")
	return nil
}

func (s *s3Storage) Get(ctx context.Context, key string) (*Object, error) {
	objectName := s.objectName(key)
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("failed to get object")
		return nil, fmt.Errorf("get object %s: %w", objectName, err)
	}

	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, objectName)
		}
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("object inaccessible")
		return nil, fmt.Errorf("stat object %s: %w", objectName, err)
	}

	return &Object{Body: obj, Size: stat.Size, ContentType: stat.ContentType}, nil
}

func (s *s3Storage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if s.signer != nil {
		return s.signer.Sign(key, expiry)
	}

	objectName := s.objectName(key)
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, url.Values{})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("object", objectName).Dur("expiry", expiry).Msg("failed to presign object")
		return "", fmt.Errorf("presign object %s: %w", objectName, err)
	}
	return u.String(), nil
}
