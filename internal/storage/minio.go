package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/config"
)

// ArtifactStore keeps generated report artifacts in a MinIO bucket.
type ArtifactStore struct {
	client *minio.Client
	bucket string
}

// NewArtifactStore creates the MinIO client and ensures the bucket exists.
func NewArtifactStore(cfg config.MinIOConfig) (*ArtifactStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &ArtifactStore{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// ArtifactKey maps a report id onto its object key.
func ArtifactKey(reportID string) string {
	return path.Join("reports", reportID, "artifact")
}

// PutArtifact stores the artifact body for the given report.
func (s *ArtifactStore) PutArtifact(ctx context.Context, reportID string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, ArtifactKey(reportID), reader, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// GetArtifact returns a ReadCloser for the stored artifact.
func (s *ArtifactStore) GetArtifact(ctx context.Context, reportID string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ArtifactKey(reportID), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// stat to surface not-found before the caller reads
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// PresignedArtifactURL returns a presigned GET URL valid for the given duration.
func (s *ArtifactStore) PresignedArtifactURL(ctx context.Context, reportID string, expires time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, ArtifactKey(reportID), expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
