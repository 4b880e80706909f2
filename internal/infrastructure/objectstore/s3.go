package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/eslsoft/yorlect/internal/infrastructure/config"
)

// ErrBucketNotConfigured is returned when uploads are requested without a bucket.
var ErrBucketNotConfigured = errors.New("export.s3.bucket is not configured")

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// Uploader stores export files in an S3-compatible bucket.
type Uploader struct {
	cfg    config.S3Config
	client *s3.Client
	clock  func() time.Time
	newID  func() string
}

// NewUploader builds an S3 client from the export settings. Static
// credentials are used when an access key is configured, otherwise the
// default AWS credential chain applies.
func NewUploader(ctx context.Context, cfg config.S3Config) (*Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrBucketNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Uploader{cfg: cfg, client: client, clock: time.Now, newID: uuid.NewString}, nil
}

// Upload writes body under a dated, collision-free key and returns the key.
func (u *Uploader) Upload(ctx context.Context, name, contentType string, body []byte) (string, error) {
	key := ObjectKey(u.cfg.Prefix, name, u.clock(), u.newID())
	_, err := putObject(u.client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", u.cfg.Bucket, key, err)
	}
	return key, nil
}

// ObjectKey lays exports out as prefix/YYYY/MM/DD/<id>-<name>.
func ObjectKey(prefix, name string, now time.Time, id string) string {
	now = now.UTC()
	return path.Join(
		strings.Trim(prefix, "/"),
		fmt.Sprintf("%04d/%02d/%02d", now.Year(), int(now.Month()), now.Day()),
		id+"-"+path.Base(name),
	)
}
