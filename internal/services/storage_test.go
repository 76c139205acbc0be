package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"campus-dating-app/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicPhotoResolver(t *testing.T) {
	r := PublicPhotoResolver{BaseURL: "https://cdn.example.edu/photos/"}

	url, err := r.PhotoURL(context.Background(), "/profiles/1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.edu/photos/profiles/1/a.jpg", url)

	url, err = r.PhotoURL(context.Background(), "https://elsewhere.example.com/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://elsewhere.example.com/b.jpg", url)
}

func TestS3PhotoResolverPresigns(t *testing.T) {
	cfg := config.Load()
	cfg.StorageProvider = "s3"
	cfg.AWSAccessKeyID = "AKIDEXAMPLE"
	cfg.AWSSecretAccessKey = "secret"
	cfg.S3Bucket = "campus-photos"
	cfg.PhotoURLExpiry = 15 * time.Minute

	resolver, err := NewPhotoResolver(cfg)
	require.NoError(t, err)

	url, err := resolver.PhotoURL(context.Background(), "profiles/1/a.jpg")
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, "campus-photos"))
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestMinIOPhotoResolverPresigns(t *testing.T) {
	cfg := config.Load()
	cfg.StorageProvider = "minio"
	cfg.MinIOEndpoint = "minio.local:9000"
	cfg.S3Bucket = "campus-photos"

	resolver, err := NewPhotoResolver(cfg)
	require.NoError(t, err)

	url, err := resolver.PhotoURL(context.Background(), "profiles/1/a.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "minio.local:9000/campus-photos/profiles/1/a.jpg")
	assert.Contains(t, url, "X-Amz-Signature=")
}
