// Package archive copies rendered exam documents to S3-compatible storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3config "github.com/aws/aws-sdk-go-v2/config"
	s3credentials "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Object is a document to archive.
type Object struct {
	Name    string
	Content []byte
}

// Options configure the S3 client. Endpoint is empty for AWS itself.
type Options struct {
	Bucket       string
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	Prefix       string
	UsePathStyle bool
}

// S3Archiver stores objects under <prefix><date>/<name>.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 builds an archiver for a MinIO or AWS bucket.
func NewS3(ctx context.Context, opts Options) (*S3Archiver, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*s3config.LoadOptions) error{
		s3config.WithRegion(region),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, s3config.WithCredentialsProvider(
			s3credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := s3config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading S3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		// MinIO and most S3 clones reject the default trailing checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &S3Archiver{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

// Key returns the object key used for name on date.
func (a *S3Archiver) Key(date time.Time, name string) string {
	prefix := strings.Trim(a.prefix, "/")
	return path.Join(prefix, date.Format("2006-01-02"), name)
}

// Archive uploads every object and returns their keys.
func (a *S3Archiver) Archive(ctx context.Context, date time.Time, objects []Object) ([]string, error) {
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		key := a.Key(date, obj.Name)
		_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(a.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(obj.Content),
			ContentLength: aws.Int64(int64(len(obj.Content))),
			ContentType:   aws.String("text/plain; charset=utf-8"),
		})
		if err != nil {
			return keys, fmt.Errorf("archiving %s: %w", key, err)
		}
		slog.Info("document archived", "operation", "archive", "bucket", a.bucket, "key", key)
		keys = append(keys, key)
	}
	return keys, nil
}
