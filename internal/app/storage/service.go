/*
Package storage talks to S3-compatible object storage for avatar images.

Clients never upload through the server: they ask for a presigned PUT URL, upload directly to the
bucket and then save the object's public URL in their profile.
*/
package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	BucketName      string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	// PublicURL is the base URL under which bucket objects are publicly readable.
	PublicURL string
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// PresignUpload generates a pre-signed URL for uploading an object with the given key.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// Delete removes the object with the given key.
	Delete(ctx context.Context, key string) error

	// PublicURL returns the public address of key.
	PublicURL(key string) string

	// KeyFromURL returns the object key of a public URL served by this bucket.
	KeyFromURL(url string) (string, bool)
}

// NewStorageService returns the S3-compatible implementation of StorageService.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (StorageService, error) {
	return newS3Client(ctx, cfg)
}
