package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-dating-app/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	awscredentials "github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/minio/minio-go/v7"
	miniocredentials "github.com/minio/minio-go/v7/pkg/credentials"
)

// PhotoResolver turns a stored photo object key into a URL clients can load.
type PhotoResolver interface {
	PhotoURL(ctx context.Context, key string) (string, error)
}

func NewPhotoResolver(cfg *config.Config) (PhotoResolver, error) {
	switch cfg.StorageProvider {
	case "s3":
		return NewS3PhotoResolver(cfg)
	case "minio":
		return NewMinIOPhotoResolver(cfg)
	default:
		return PublicPhotoResolver{BaseURL: cfg.PhotoBaseURL}, nil
	}
}

func isAbsoluteURL(key string) bool {
	return strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://")
}

// PassthroughPhotoResolver returns keys unchanged.
type PassthroughPhotoResolver struct{}

func (PassthroughPhotoResolver) PhotoURL(_ context.Context, key string) (string, error) {
	return key, nil
}

// PublicPhotoResolver joins keys onto a public bucket URL.
type PublicPhotoResolver struct {
	BaseURL string
}

func (r PublicPhotoResolver) PhotoURL(_ context.Context, key string) (string, error) {
	if isAbsoluteURL(key) {
		return key, nil
	}
	return strings.TrimRight(r.BaseURL, "/") + "/" + strings.TrimLeft(key, "/"), nil
}

type S3PhotoResolver struct {
	client *s3.S3
	bucket string
	expiry time.Duration
}

func NewS3PhotoResolver(cfg *config.Config) (*S3PhotoResolver, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: awscredentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &S3PhotoResolver{client: s3.New(sess), bucket: cfg.S3Bucket, expiry: cfg.PhotoURLExpiry}, nil
}

func (r *S3PhotoResolver) PhotoURL(_ context.Context, key string) (string, error) {
	if isAbsoluteURL(key) {
		return key, nil
	}

	req, _ := r.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(r.expiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

type MinIOPhotoResolver struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func NewMinIOPhotoResolver(cfg *config.Config) (*MinIOPhotoResolver, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  miniocredentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
		Region: cfg.AWSRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &MinIOPhotoResolver{client: client, bucket: cfg.S3Bucket, expiry: cfg.PhotoURLExpiry}, nil
}

func (r *MinIOPhotoResolver) PhotoURL(ctx context.Context, key string) (string, error) {
	if isAbsoluteURL(key) {
		return key, nil
	}

	url, err := r.client.PresignedGetObject(ctx, r.bucket, key, r.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

// resolvePhotos resolves every key, dropping the ones that fail.
func (d Deps) resolvePhotos(ctx context.Context, keys []string) []string {
	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		url, err := d.Photos.PhotoURL(ctx, key)
		if err != nil {
			d.Log.WithError(err).WithField("photo_key", key).Warn("Failed to resolve photo URL")
			continue
		}
		urls = append(urls, url)
	}
	return urls
}
