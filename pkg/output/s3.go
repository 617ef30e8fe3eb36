package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// UploadTimeout bounds a single object upload
const UploadTimeout = 30 * time.Second

// S3Config holds the settings of an S3-compatible bucket
type S3Config struct {
	AccessKey string
	SecretKey string
	Endpoint  string // Empty for AWS itself
	Region    string
	Bucket    string
	Prefix    string // Prepended to every object key
	ACL       string // Canned ACL such as "public-read"; empty leaves the bucket default
}

// S3ConfigFromEnv reads the bucket settings from S3_* environment variables
func S3ConfigFromEnv() S3Config {
	return S3Config{
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		Region:    getEnv("S3_REGION", "us-east-1"),
		Bucket:    os.Getenv("S3_BUCKET"),
		Prefix:    os.Getenv("S3_PREFIX"),
		ACL:       os.Getenv("S3_ACL"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Validate reports missing settings
func (c S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("s3 bucket is not set")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return errors.New("s3 credentials are not set")
	}
	return nil
}

// S3Uploader stores rendered images in a bucket
type S3Uploader struct {
	client *s3.S3
	config S3Config
	logger core.Logger
}

// NewS3Uploader creates an uploader with static credentials. Path-style addressing
// is forced so custom endpoints (MinIO, R2, Spaces) work without DNS buckets.
func NewS3Uploader(config S3Config, logger core.Logger) (*S3Uploader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	awsConfig := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, ""),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return &S3Uploader{
		client: s3.New(sess),
		config: config,
		logger: logger,
	}, nil
}

// ObjectKey returns the full key an upload of name is stored under
func (u *S3Uploader) ObjectKey(name string) string {
	if u.config.Prefix == "" {
		return name
	}
	return path.Join(u.config.Prefix, name)
}

// Upload stores data under name and returns the full object key
func (u *S3Uploader) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	key := u.ObjectKey(name)
	size := int64(len(data))
	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.config.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}
	if u.config.ACL != "" {
		input.ACL = aws.String(u.config.ACL)
	}

	if _, err := u.client.PutObjectWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	if u.logger != nil {
		u.logger.Printf("Uploaded %s to S3 (%d bytes)\n", key, size)
	}
	return key, nil
}

// UploadImage encodes img in format and uploads it as name
func (u *S3Uploader) UploadImage(ctx context.Context, name string, img image.Image, format string) (string, error) {
	contentType, err := ContentType(format)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return "", err
	}
	return u.Upload(ctx, name, buf.Bytes(), contentType)
}
