package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"AriaFM/config"
	"AriaFM/logger"
)

var minioClient *minio.Client

// InitMinio connects the object storage client and makes sure the bucket
// exists. Cover art lives in object storage rather than the music library
// tree so resized variants can be stored without touching the library.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created object storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("MinIO client initialized",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return nil
}

// CoverArtStore reads and writes cover art objects.
type CoverArtStore struct {
	client *minio.Client
	bucket string
}

// NewCoverArtStore wraps the initialized client. InitMinio must have run.
func NewCoverArtStore(cfg *config.Config) *CoverArtStore {
	return &CoverArtStore{client: minioClient, bucket: cfg.MinioBucket}
}

// Get fetches one cover art object. A missing object comes back as
// (nil, "", nil) so callers can fall through to a default image.
func (s *CoverArtStore) Get(ctx context.Context, objectPath string) ([]byte, string, error) {
	if s.client == nil {
		return nil, "", fmt.Errorf("MinIO client not initialized")
	}

	object, err := s.client.GetObject(ctx, s.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object %s: %w", objectPath, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read object %s: %w", objectPath, err)
	}

	stat, err := object.Stat()
	if err != nil {
		return data, "application/octet-stream", nil
	}
	return data, stat.ContentType, nil
}

// Put uploads one cover art object, replacing any existing one.
func (s *CoverArtStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) error {
	if s.client == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	_, err := s.client.PutObject(ctx, s.bucket, objectPath, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", objectPath, err)
	}
	return nil
}
