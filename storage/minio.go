package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"CutRoom/config"
	"CutRoom/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store wraps the MinIO client for audio-asset access.
type Store struct {
	client *minio.Client
	bucket string
}

var defaultStore *Store

// Init connects to MinIO, makes sure the bucket exists and keeps the client
// as the package default.
func Init(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	defaultStore = &Store{client: client, bucket: cfg.MinioBucket}
	logger.Info("minio connected",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return nil
}

// Default returns the package-level store, or nil before Init.
func Default() *Store { return defaultStore }

// FetchObject opens an object for reading. Satisfies peaks.ObjectFetcher.
func (s *Store) FetchObject(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", objectPath, err)
	}
	// GetObject is lazy; Stat forces the existence check so callers get a
	// usable error instead of one on first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("stat object %s: %w", objectPath, err)
	}
	return obj, nil
}

// UploadFile stores a local file under objectPath and returns its serving path.
func (s *Store) UploadFile(ctx context.Context, localPath, objectPath string) (string, error) {
	contentType := contentTypeFor(objectPath)
	if _, err := s.client.FPutObject(ctx, s.bucket, objectPath, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	logger.Info("object uploaded",
		logger.String("object", objectPath),
		logger.String("contentType", contentType))
	return "/static/" + objectPath, nil
}

// PresignGet produces a time-limited signed URL for direct client playback.
func (s *Store) PresignGet(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectPath, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectPath, err)
	}
	return u.String(), nil
}

func contentTypeFor(objectPath string) string {
	switch strings.ToLower(filepath.Ext(objectPath)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a", ".aac":
		return "audio/aac"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
