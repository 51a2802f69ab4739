package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"echospace/internal/pkg/logx"
)

// s3Client implements StorageService against an S3-compatible endpoint (R2, MinIO, AWS).
type s3Client struct {
	cfg     ServiceConfig
	client  *s3.Client
	presign *s3.PresignClient
}

func newS3Client(ctx context.Context, cfg ServiceConfig) (*s3Client, error) {
	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	return &s3Client{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

func (c *s3Client) PresignUpload(
	ctx context.Context,
	key string,
	mimeType string,
	fileSize int64,
	duration time.Duration,
) (string, error) {
	presigned, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.cfg.BucketName),
		Key:           aws.String(key),
		ContentType:   aws.String(mimeType),
		ContentLength: aws.Int64(fileSize),
	}, s3.WithPresignExpires(duration))
	if err != nil {
		logx.Error(err, "Failed to generate presigned upload URL", "key", key)
		return "", fmt.Errorf("presign upload: %w", err)
	}

	return presigned.URL, nil
}

func (c *s3Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		logx.Error(err, "S3 delete failed", "key", key)
		return fmt.Errorf("delete object: %w", err)
	}

	return nil
}

func (c *s3Client) PublicURL(key string) string {
	return c.cfg.PublicURL + "/" + key
}

func (c *s3Client) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, c.cfg.PublicURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
