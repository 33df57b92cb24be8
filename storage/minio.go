package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipstream/config"
	"clipstream/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio initializes the MinIO client and ensures the bucket exists.
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
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("MinIO client initialized", logger.String("bucket", cfg.MinioBucket))
	return nil
}

// GetMinioClient returns the MinIO client instance, nil when not initialized.
func GetMinioClient() *minio.Client {
	return minioClient
}

// StatAudioObject confirms an audio object exists and returns its size.
// Used before a stream's play count is incremented, so unreachable sources
// do not inflate counts.
func StatAudioObject(ctx context.Context, bucket, objectPath string) (int64, error) {
	if minioClient == nil {
		return 0, fmt.Errorf("MinIO client not initialized")
	}

	stat, err := minioClient.StatObject(ctx, bucket, objectPath, minio.StatObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to stat object %s: %w", objectPath, err)
	}
	return stat.Size, nil
}

// ServeAudioObject streams an audio object to the HTTP response.
func ServeAudioObject(ctx context.Context, w http.ResponseWriter, bucket, objectPath string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	object, err := minioClient.GetObject(ctx, bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to get object %s: %w", objectPath, err)
	}
	defer object.Close()

	w.Header().Set("Content-Type", audioContentType(objectPath))
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := io.Copy(w, object); err != nil {
		return fmt.Errorf("failed to serve object %s: %w", objectPath, err)
	}
	return nil
}

func audioContentType(objectPath string) string {
	switch {
	case strings.HasSuffix(objectPath, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(objectPath, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(objectPath, ".flac"):
		return "audio/flac"
	case strings.HasSuffix(objectPath, ".aac"):
		return "audio/aac"
	case strings.HasSuffix(objectPath, ".m4a"):
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
