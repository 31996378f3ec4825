package screenshot

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the bucket settings. Endpoint is set for S3-compatible
// services (R2, MinIO) and switches to path-style addressing.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
}

// S3 uploads screenshots to an S3 bucket.
type S3 struct {
	cfg      S3Config
	uploader *manager.Uploader
}

// NewS3 loads the default AWS configuration (environment, shared files)
// and overrides it with cfg.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("screenshots.bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = awsCfg.Region
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3WithClient(client, cfg), nil
}

// NewS3WithClient builds an S3 uploader over any client implementing the
// upload API.
func NewS3WithClient(client manager.UploadAPIClient, cfg S3Config) *S3 {
	return &S3{cfg: cfg, uploader: manager.NewUploader(client)}
}

func (s *S3) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	k, err := clean(key)
	if err != nil {
		return "", err
	}
	if s.cfg.Prefix != "" {
		k = path.Join(s.cfg.Prefix, k)
	}
	if contentType == "" {
		contentType = ContentType(k)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(k),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=3600"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to s3: %w", k, err)
	}
	return s.URL(k), nil
}

// URL is the public address of an object key.
func (s *S3) URL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return joinURL(s.cfg.PublicBaseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
