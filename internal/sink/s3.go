package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"newsharvest/internal/models"
)

const (
	defaultRegion = "us-east-1"
	uploadTimeout = 2 * time.Minute
)

var errNoBucket = errors.New("s3 bucket is required")

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 buffers a site's JSON array in memory and uploads it as one object on Close.
type S3 struct {
	client putObjectAPI
	bucket string
	key    string
	buf    *bytes.Buffer
	arr    *arrayWriter
}

// NewS3Client builds a client for AWS or any S3-compatible endpoint such as MinIO.
func NewS3Client(ctx context.Context, cfg models.S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewS3(client putObjectAPI, cfg models.S3Config, site string) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errNoBucket
	}
	buf := &bytes.Buffer{}
	return &S3{
		client: client,
		bucket: cfg.Bucket,
		key:    cfg.Prefix + site + ".json",
		buf:    buf,
		arr:    &arrayWriter{w: buf},
	}, nil
}

func (s *S3) Key() string {
	return s.key
}

func (s *S3) Write(_ context.Context, rec models.ArticleRecord) error {
	return s.arr.write(rec)
}

func (s *S3) Close() error {
	if err := s.arr.close(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(s.buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}
